package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter is the sink EventPublisher writes to; *Producer satisfies it
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher turns committed workflow changes into ledger-topic events.
// Events are keyed by product or order id so consumers see them in commit order.
type EventPublisher struct {
	writer EventWriter
	now    func() time.Time
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(writer EventWriter) *EventPublisher {
	return &EventPublisher{writer: writer, now: time.Now}
}

func (ep *EventPublisher) base(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: ep.now(),
	}
}

// PublishStockMovement publishes one event per ledger entry with the resulting stock levels
func (ep *EventPublisher) PublishStockMovement(ctx context.Context, log models.InventoryLog, product models.Product) error {
	event := &models.StockMovementEvent{
		BaseEvent:   ep.base(models.EventTypeStockMovement),
		LogID:       log.ID,
		LogType:     log.Type,
		ProductID:   product.ID,
		SKU:         product.SKU,
		Quantity:    log.Quantity,
		OrderID:     log.OrderID,
		Stock:       product.Stock,
		MinStock:    product.MinStock,
		AmazonStock: product.AmazonStock,
		Amazon:      product.AmazonEnabled,
	}
	return ep.writer.PublishEvent(ctx, "product-"+product.ID, event)
}

// PublishProductChanged publishes catalog changes
func (ep *EventPublisher) PublishProductChanged(ctx context.Context, product models.Product, deleted bool) error {
	event := &models.ProductChangedEvent{
		BaseEvent:   ep.base(models.EventTypeProductChanged),
		ProductID:   product.ID,
		SKU:         product.SKU,
		Stock:       product.Stock,
		MinStock:    product.MinStock,
		AmazonStock: product.AmazonStock,
		Amazon:      product.AmazonEnabled,
		Deleted:     deleted,
	}
	return ep.writer.PublishEvent(ctx, "product-"+product.ID, event)
}

// PublishOrderEvent publishes ORDER_CREATED, ORDER_DELIVERED or ORDER_DELETED
func (ep *EventPublisher) PublishOrderEvent(ctx context.Context, eventType string, order models.Order) error {
	event := &models.OrderEvent{
		BaseEvent: ep.base(eventType),
		OrderID:   order.ID,
		OrderType: order.Type,
		Status:    order.Status,
		Items:     order.Items,
	}
	return ep.writer.PublishEvent(ctx, "order-"+order.ID, event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onStockMovement  func(context.Context, *models.StockMovementEvent) error
	onProductChanged func(context.Context, *models.ProductChangedEvent) error
	onOrder          func(context.Context, *models.OrderEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnStockMovement registers a handler for STOCK_MOVEMENT events
func (eh *EventHandler) OnStockMovement(handler func(context.Context, *models.StockMovementEvent) error) {
	eh.onStockMovement = handler
}

// OnProductChanged registers a handler for PRODUCT_CHANGED events
func (eh *EventHandler) OnProductChanged(handler func(context.Context, *models.ProductChangedEvent) error) {
	eh.onProductChanged = handler
}

// OnOrder registers a handler for all order events
func (eh *EventHandler) OnOrder(handler func(context.Context, *models.OrderEvent) error) {
	eh.onOrder = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger := util.GetLogger()
	logger.Debug("Handling event", zap.String("type", baseEvent.EventType), zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeStockMovement:
		if eh.onStockMovement != nil {
			var event models.StockMovementEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal StockMovement event: %w", err)
			}
			return eh.onStockMovement(ctx, &event)
		}

	case models.EventTypeProductChanged:
		if eh.onProductChanged != nil {
			var event models.ProductChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ProductChanged event: %w", err)
			}
			return eh.onProductChanged(ctx, &event)
		}

	case models.EventTypeOrderCreated, models.EventTypeOrderDelivered, models.EventTypeOrderDeleted:
		if eh.onOrder != nil {
			var event models.OrderEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal Order event: %w", err)
			}
			return eh.onOrder(ctx, &event)
		}

	default:
		logger.Warn("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
