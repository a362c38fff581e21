package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the authenticated operator recorded on orders and logs
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SystemUser is recorded when no operator is attached to a request
var SystemUser = User{ID: "u1", Name: "Admin"}

// Product represents a catalog item with its physical and Amazon stock pools
type Product struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Stock         int             `json:"stock"`
	MinStock      int             `json:"min_stock"`
	Price         decimal.Decimal `json:"price"`
	AmazonStock   int             `json:"amazon_stock"`
	AmazonEnabled bool            `json:"amazon_enabled"`
}

// LowStock reports whether physical stock reached the reorder threshold
func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

// OrderItem is one line of an order
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// LogType classifies a ledger entry; the quantity sign is implied by the type
type LogType string

const (
	LogTypeEntry          LogType = "ENTRY"
	LogTypeExit           LogType = "EXIT"
	LogTypeAmazonSale     LogType = "AMAZON_SALE"
	LogTypeAmazonTransfer LogType = "AMAZON_TRANSFER"
)

// IsSale reports whether the movement counts towards sales reporting
func (t LogType) IsSale() bool {
	return t == LogTypeExit || t == LogTypeAmazonSale
}

// InventoryLog is an immutable ledger entry
type InventoryLog struct {
	ID          string              `json:"id"`
	Timestamp   time.Time           `json:"timestamp"`
	Type        LogType             `json:"type"`
	ProductID   string              `json:"product_id"`
	ProductName string              `json:"product_name"`
	Quantity    int                 `json:"quantity"`
	UserID      string              `json:"user_id"`
	UserName    string              `json:"user_name"`
	OrderID     string              `json:"order_id,omitempty"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
}

// Product categories
const (
	CategoryBooks       = "Libros"
	CategoryMerchandise = "Mercancía"
	CategoryStationery  = "Papelería"
	CategoryElectronics = "Electrónica"
	CategoryOther       = "Otros"
)

var Categories = []string{CategoryBooks, CategoryMerchandise, CategoryStationery, CategoryElectronics, CategoryOther}

const (
	DefaultCategory = CategoryOther
	DefaultMinStock = 5
)

// IsCategory reports whether c is one of the known categories
func IsCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// DefaultCatalog is inserted once when the product collection is empty
var DefaultCatalog = []Product{
	{SKU: "LIB-001", Name: "Libro Poder Personal", Category: CategoryBooks, Stock: 200, MinStock: 20, Price: decimal.NewFromInt(250)},
	{SKU: "LIB-002", Name: "Libro Los 10 principios de la lucidez en la toma de decisiones", Category: CategoryBooks, Stock: 500, MinStock: 50, Price: decimal.NewFromInt(300)},
	{SKU: "LIB-003", Name: "Libro Hipermarketing", Category: CategoryBooks, Stock: 100, MinStock: 15, Price: decimal.NewFromInt(280)},
	{SKU: "TAZ-001", Name: "Taza Negra Ovejas negras", Category: CategoryMerchandise, Stock: 50, MinStock: 10, Price: decimal.NewFromInt(150)},
	{SKU: "TAZ-002", Name: "Taza blanca ovejas negras", Category: CategoryMerchandise, Stock: 30, MinStock: 5, Price: decimal.NewFromInt(150)},
}
