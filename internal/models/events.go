package models

import "time"

// Event types
const (
	EventTypeStockMovement  = "STOCK_MOVEMENT"
	EventTypeOrderCreated   = "ORDER_CREATED"
	EventTypeOrderDelivered = "ORDER_DELIVERED"
	EventTypeOrderDeleted   = "ORDER_DELETED"
	EventTypeProductChanged = "PRODUCT_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StockMovementEvent is published after a ledger entry and its stock delta commit
type StockMovementEvent struct {
	BaseEvent
	LogID       string  `json:"log_id"`
	LogType     LogType `json:"log_type"`
	ProductID   string  `json:"product_id"`
	SKU         string  `json:"sku"`
	Quantity    int     `json:"quantity"`
	OrderID     string  `json:"order_id,omitempty"`
	Stock       int     `json:"stock"`
	MinStock    int     `json:"min_stock"`
	AmazonStock int     `json:"amazon_stock"`
	Amazon      bool    `json:"amazon_enabled"`
}

// ProductChangedEvent is published when a product is created, enabled or removed
type ProductChangedEvent struct {
	BaseEvent
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"min_stock"`
	AmazonStock int    `json:"amazon_stock"`
	Amazon      bool   `json:"amazon_enabled"`
	Deleted     bool   `json:"deleted"`
}

// OrderEvent is published on order creation, delivery and deletion
type OrderEvent struct {
	BaseEvent
	OrderID   string      `json:"order_id"`
	OrderType OrderType   `json:"order_type"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
}
