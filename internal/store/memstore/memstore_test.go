package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedProductsIfEmpty(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SeedProductsIfEmpty(ctx, models.DefaultCatalog))
	require.NoError(t, s.SeedProductsIfEmpty(ctx, models.DefaultCatalog))

	n, err := s.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(models.DefaultCatalog), n)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	for i := 1; i < len(products); i++ {
		assert.LessOrEqual(t, products[i-1].Name, products[i].Name)
	}
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{SKU: "A", Name: "A", Stock: 10}
	require.NoError(t, s.InsertProduct(ctx, p))

	err := s.WithTx(ctx, func(tx store.Gateway) error {
		if err := tx.UpdateProductStock(ctx, p.ID, 15); err != nil {
			return err
		}
		return tx.InsertLog(ctx, &models.InventoryLog{Type: models.LogTypeEntry, ProductID: p.ID, Quantity: 5})
	})
	require.NoError(t, err)

	products, _ := s.ListProducts(ctx)
	assert.Equal(t, 15, products[0].Stock)
	logs, _ := s.ListLogs(ctx)
	assert.Len(t, logs, 1)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{SKU: "A", Name: "A", Stock: 10}
	require.NoError(t, s.InsertProduct(ctx, p))

	err := s.WithTx(ctx, func(tx store.Gateway) error {
		if err := tx.UpdateProductStock(ctx, p.ID, 99); err != nil {
			return err
		}
		return tx.UpdateProductStock(ctx, "missing", 1)
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	products, _ := s.ListProducts(ctx)
	assert.Equal(t, 10, products[0].Stock)
}

func TestNegativeStockRejected(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := &models.Product{SKU: "A", Name: "A", Stock: 1}
	require.NoError(t, s.InsertProduct(ctx, p))

	assert.Error(t, s.UpdateProductStock(ctx, p.ID, -1))
	assert.Error(t, s.UpdateProductStocks(ctx, p.ID, 1, -1))
}

func TestFailOn(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("connection reset")

	s.FailOn("InsertLog", boom)
	err := s.InsertLog(ctx, &models.InventoryLog{Quantity: 1})
	assert.ErrorIs(t, err, boom)

	s.FailOn("InsertLog", nil)
	assert.NoError(t, s.InsertLog(ctx, &models.InventoryLog{Quantity: 1}))
}

func TestOrdersNewestFirstAndLogsByOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	older := &models.Order{Type: models.OrderTypePickup, CreatedAt: base, Status: models.OrderStatusPending, Details: models.PickupDetails{}}
	newer := &models.Order{Type: models.OrderTypeGift, CreatedAt: base.Add(time.Hour), Status: models.OrderStatusPending, Details: models.GiftDetails{AuthorizedBy: "Ana"}}
	require.NoError(t, s.InsertOrder(ctx, older))
	require.NoError(t, s.InsertOrder(ctx, newer))

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)

	require.NoError(t, s.InsertLog(ctx, &models.InventoryLog{Type: models.LogTypeExit, Quantity: 1, OrderID: newer.ID}))
	require.NoError(t, s.InsertLog(ctx, &models.InventoryLog{Type: models.LogTypeEntry, Quantity: 1}))
	require.NoError(t, s.DeleteLogsByOrderID(ctx, newer.ID))

	logs, _ := s.ListLogs(ctx)
	require.Len(t, logs, 1)
	assert.Equal(t, models.LogTypeEntry, logs[0].Type)

	missing, err := s.GetOrderByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, s.DeleteOrder(ctx, "nope"), store.ErrNotFound)
}
