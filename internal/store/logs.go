package store

import (
	"context"
	"fmt"

	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ListLogs retrieves the ledger, newest first
func (s *Store) ListLogs(ctx context.Context) ([]models.InventoryLog, error) {
	var rows []logRow
	err := sqlx.SelectContext(ctx, s.q, &rows,
		"SELECT "+logColumns+" FROM logs ORDER BY timestamp DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	logs := make([]models.InventoryLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, r.toModel())
	}
	return logs, nil
}

// InsertLog appends a ledger entry
func (s *Store) InsertLog(ctx context.Context, log *models.InventoryLog) error {
	query := `
		INSERT INTO logs (id, timestamp, type, product_id, product_name, quantity, user_id, user_name, order_id, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.q.ExecContext(ctx, query,
		log.ID, log.Timestamp, string(log.Type), log.ProductID, log.ProductName, log.Quantity,
		log.UserID, log.UserName, nullString(log.OrderID), log.UnitPrice)
	if err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}
	return nil
}

// DeleteLogsByOrderID removes every ledger entry caused by an order
func (s *Store) DeleteLogsByOrderID(ctx context.Context, orderID string) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM logs WHERE order_id = $1", orderID)
	if err != nil {
		return fmt.Errorf("failed to delete logs of order %s: %w", orderID, err)
	}
	return nil
}
