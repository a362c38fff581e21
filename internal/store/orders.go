package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ListOrders retrieves all orders, newest first
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var rows []orderRow
	err := sqlx.SelectContext(ctx, s.q, &rows,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		o, err := r.toModel()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// GetOrderByID retrieves an order by ID; a missing order yields nil without error
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var row orderRow
	err := sqlx.GetContext(ctx, s.q, &row,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	order, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// InsertOrder creates a new order and fills in its server-assigned ID
func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	row, err := newOrderRow(order)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO orders (type, items, recipient_name, deliverer_id, deliverer_name, created_at,
			delivered_at, status, signature, shipping_provider, tracking_number, seller_name, authorized_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	err = sqlx.GetContext(ctx, s.q, &order.ID, query,
		row.Type, row.Items, row.RecipientName, row.DelivererID, row.DelivererName, row.CreatedAt,
		row.DeliveredAt, row.Status, row.Signature, row.ShippingProvider, row.TrackingNumber,
		row.SellerName, row.AuthorizedBy)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// UpdateOrderStatus updates the status, delivery time and signature of an order
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, deliveredAt *time.Time, signature string) error {
	var delivered sql.NullTime
	if deliveredAt != nil {
		delivered = sql.NullTime{Time: *deliveredAt, Valid: true}
	}

	err := s.exec(ctx,
		"UPDATE orders SET status = $1, delivered_at = $2, signature = $3 WHERE id = $4",
		string(status), delivered, nullString(signature), id)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return nil
}

// DeleteOrder hard-deletes an order row
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	if err := s.exec(ctx, "DELETE FROM orders WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	return nil
}
