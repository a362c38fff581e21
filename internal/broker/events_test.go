package broker

import (
	"context"
	"encoding/json"
	"testing"

	"inventory-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	keys   []string
	events []interface{}
}

func (w *captureWriter) PublishEvent(ctx context.Context, key string, event interface{}) error {
	w.keys = append(w.keys, key)
	w.events = append(w.events, event)
	return nil
}

func toMessage(t *testing.T, event interface{}) kafka.Message {
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

func TestPublishStockMovementKeyedByProduct(t *testing.T) {
	w := &captureWriter{}
	ep := NewEventPublisher(w)

	log := models.InventoryLog{ID: "l1", Type: models.LogTypeExit, Quantity: 3, OrderID: "o1"}
	product := models.Product{ID: "p1", SKU: "LIB-001", Stock: 7, MinStock: 20}
	require.NoError(t, ep.PublishStockMovement(context.Background(), log, product))

	require.Len(t, w.events, 1)
	assert.Equal(t, "product-p1", w.keys[0])
	event := w.events[0].(*models.StockMovementEvent)
	assert.Equal(t, models.EventTypeStockMovement, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, 7, event.Stock)
	assert.Equal(t, "o1", event.OrderID)
}

func TestHandleMessageRoutesByType(t *testing.T) {
	w := &captureWriter{}
	ep := NewEventPublisher(w)
	ctx := context.Background()

	require.NoError(t, ep.PublishStockMovement(ctx, models.InventoryLog{ID: "l1", Type: models.LogTypeEntry, Quantity: 1}, models.Product{ID: "p1"}))
	require.NoError(t, ep.PublishProductChanged(ctx, models.Product{ID: "p2"}, true))
	require.NoError(t, ep.PublishOrderEvent(ctx, models.EventTypeOrderDeleted, models.Order{ID: "o1"}))

	var movements, products, orders int
	h := NewEventHandler()
	h.OnStockMovement(func(ctx context.Context, e *models.StockMovementEvent) error {
		movements++
		assert.Equal(t, "p1", e.ProductID)
		return nil
	})
	h.OnProductChanged(func(ctx context.Context, e *models.ProductChangedEvent) error {
		products++
		assert.True(t, e.Deleted)
		return nil
	})
	h.OnOrder(func(ctx context.Context, e *models.OrderEvent) error {
		orders++
		assert.Equal(t, models.EventTypeOrderDeleted, e.EventType)
		return nil
	})

	for _, e := range w.events {
		require.NoError(t, h.HandleMessage(ctx, toMessage(t, e)))
	}
	assert.Equal(t, 1, movements)
	assert.Equal(t, 1, products)
	assert.Equal(t, 1, orders)
}

func TestHandleMessageIgnoresUnknownAndRejectsGarbage(t *testing.T) {
	h := NewEventHandler()
	ctx := context.Background()

	assert.NoError(t, h.HandleMessage(ctx, kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)}))
	assert.Error(t, h.HandleMessage(ctx, kafka.Message{Value: []byte(`not json`)}))
}
