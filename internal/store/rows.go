package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

const (
	productColumns = "id, sku, name, category, stock, min_stock, price, amazon_stock, amazon_enabled"
	orderColumns   = "id, type, items, recipient_name, deliverer_id, deliverer_name, created_at, delivered_at, status, signature, shipping_provider, tracking_number, seller_name, authorized_by"
	logColumns     = "id, timestamp, type, product_id, product_name, quantity, user_id, user_name, order_id, unit_price"
)

type productRow struct {
	ID            string          `db:"id"`
	SKU           string          `db:"sku"`
	Name          string          `db:"name"`
	Category      string          `db:"category"`
	Stock         int             `db:"stock"`
	MinStock      int             `db:"min_stock"`
	Price         decimal.Decimal `db:"price"`
	AmazonStock   int             `db:"amazon_stock"`
	AmazonEnabled bool            `db:"amazon_enabled"`
}

func (r productRow) toModel() models.Product {
	return models.Product{
		ID:            r.ID,
		SKU:           r.SKU,
		Name:          r.Name,
		Category:      r.Category,
		Stock:         r.Stock,
		MinStock:      r.MinStock,
		Price:         r.Price,
		AmazonStock:   r.AmazonStock,
		AmazonEnabled: r.AmazonEnabled,
	}
}

type orderRow struct {
	ID               string         `db:"id"`
	Type             string         `db:"type"`
	Items            types.JSONText `db:"items"`
	RecipientName    string         `db:"recipient_name"`
	DelivererID      string         `db:"deliverer_id"`
	DelivererName    string         `db:"deliverer_name"`
	CreatedAt        time.Time      `db:"created_at"`
	DeliveredAt      sql.NullTime   `db:"delivered_at"`
	Status           string         `db:"status"`
	Signature        sql.NullString `db:"signature"`
	ShippingProvider sql.NullString `db:"shipping_provider"`
	TrackingNumber   sql.NullString `db:"tracking_number"`
	SellerName       sql.NullString `db:"seller_name"`
	AuthorizedBy     sql.NullString `db:"authorized_by"`
}

func (r orderRow) toModel() (models.Order, error) {
	var items []models.OrderItem
	if len(r.Items) > 0 {
		if err := r.Items.Unmarshal(&items); err != nil {
			return models.Order{}, fmt.Errorf("failed to decode items of order %s: %w", r.ID, err)
		}
	}
	if items == nil {
		items = []models.OrderItem{}
	}

	orderType := models.OrderType(r.Type)
	details, err := models.NewDetails(orderType, models.DetailFields{
		ShippingProvider: r.ShippingProvider.String,
		TrackingNumber:   r.TrackingNumber.String,
		SellerName:       r.SellerName.String,
		AuthorizedBy:     r.AuthorizedBy.String,
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("order %s: %w", r.ID, err)
	}

	order := models.Order{
		ID:            r.ID,
		Type:          orderType,
		Items:         items,
		RecipientName: r.RecipientName,
		DelivererID:   r.DelivererID,
		DelivererName: r.DelivererName,
		CreatedAt:     r.CreatedAt,
		Status:        models.OrderStatus(r.Status),
		Signature:     r.Signature.String,
		Details:       details,
	}
	if r.DeliveredAt.Valid {
		t := r.DeliveredAt.Time
		order.DeliveredAt = &t
	}
	return order, nil
}

func newOrderRow(o *models.Order) (orderRow, error) {
	items := o.Items
	if items == nil {
		items = []models.OrderItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return orderRow{}, fmt.Errorf("failed to encode items: %w", err)
	}

	fields := models.Fields(o.Details)
	row := orderRow{
		Type:             string(o.Type),
		Items:            types.JSONText(raw),
		RecipientName:    o.RecipientName,
		DelivererID:      o.DelivererID,
		DelivererName:    o.DelivererName,
		CreatedAt:        o.CreatedAt,
		Status:           string(o.Status),
		Signature:        nullString(o.Signature),
		ShippingProvider: nullString(fields.ShippingProvider),
		TrackingNumber:   nullString(fields.TrackingNumber),
		SellerName:       nullString(fields.SellerName),
		AuthorizedBy:     nullString(fields.AuthorizedBy),
	}
	if o.DeliveredAt != nil {
		row.DeliveredAt = sql.NullTime{Time: *o.DeliveredAt, Valid: true}
	}
	return row, nil
}

type logRow struct {
	ID          string              `db:"id"`
	Timestamp   time.Time           `db:"timestamp"`
	Type        string              `db:"type"`
	ProductID   string              `db:"product_id"`
	ProductName string              `db:"product_name"`
	Quantity    int                 `db:"quantity"`
	UserID      string              `db:"user_id"`
	UserName    string              `db:"user_name"`
	OrderID     sql.NullString      `db:"order_id"`
	UnitPrice   decimal.NullDecimal `db:"unit_price"`
}

func (r logRow) toModel() models.InventoryLog {
	return models.InventoryLog{
		ID:          r.ID,
		Timestamp:   r.Timestamp,
		Type:        models.LogType(r.Type),
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		UserID:      r.UserID,
		UserName:    r.UserName,
		OrderID:     r.OrderID.String,
		UnitPrice:   r.UnitPrice,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
