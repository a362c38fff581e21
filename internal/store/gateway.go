package store

import (
	"context"
	"errors"
	"time"

	"inventory-service/internal/models"
)

// ErrNotFound is returned by updates and deletes that match no row
var ErrNotFound = errors.New("not found")

// Gateway is the row-store surface the inventory workflow persists through.
// Every call either succeeds or returns the store/transport error; nothing is retried.
type Gateway interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CountProducts(ctx context.Context) (int, error)
	SeedProductsIfEmpty(ctx context.Context, catalog []models.Product) error
	InsertProduct(ctx context.Context, product *models.Product) error
	UpdateProductStock(ctx context.Context, id string, stock int) error
	UpdateProductStocks(ctx context.Context, id string, stock, amazonStock int) error
	UpdateAmazonStock(ctx context.Context, id string, amazonStock int) error
	SetAmazonEnabled(ctx context.Context, id string, enabled bool) error
	DeleteProduct(ctx context.Context, id string) error

	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, deliveredAt *time.Time, signature string) error
	DeleteOrder(ctx context.Context, id string) error

	ListLogs(ctx context.Context) ([]models.InventoryLog, error)
	InsertLog(ctx context.Context, log *models.InventoryLog) error
	DeleteLogsByOrderID(ctx context.Context, orderID string) error

	// WithTx runs fn against a transactional view; all writes commit together or not at all.
	WithTx(ctx context.Context, fn func(tx Gateway) error) error
}
