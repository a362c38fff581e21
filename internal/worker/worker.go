package worker

import (
	"context"
	"sync"

	"inventory-service/internal/broker"
	"inventory-service/internal/models"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

const (
	ChannelStore  = "store"
	ChannelAmazon = "amazon"
)

// Level is the stock position of one product in one channel
type Level struct {
	SKU       string
	Channel   string
	Stock     int
	Threshold int
}

// Low reports whether the level reached its threshold
func (l Level) Low() bool {
	return l.Stock <= l.Threshold
}

// Levels derives the per-channel levels carried by a ledger event
func Levels(sku string, stock, minStock, amazonStock int, amazon bool, amazonLowStock int) []Level {
	levels := []Level{{SKU: sku, Channel: ChannelStore, Stock: stock, Threshold: minStock}}
	if amazon {
		levels = append(levels, Level{SKU: sku, Channel: ChannelAmazon, Stock: amazonStock, Threshold: amazonLowStock})
	}
	return levels
}

// StockAlertWorker follows the ledger topic and raises an alert when a product
// crosses into low stock. It alerts again only after the level recovered.
type StockAlertWorker struct {
	consumer       *broker.Consumer
	eventHandler   *broker.EventHandler
	amazonLowStock int

	mu      sync.Mutex
	alerted map[string]bool
	logger  *zap.Logger
}

// NewStockAlertWorker creates a new stock alert worker
func NewStockAlertWorker(consumer *broker.Consumer, amazonLowStock int) *StockAlertWorker {
	w := &StockAlertWorker{
		consumer:       consumer,
		eventHandler:   broker.NewEventHandler(),
		amazonLowStock: amazonLowStock,
		alerted:        map[string]bool{},
		logger:         util.GetLogger(),
	}

	w.eventHandler.OnStockMovement(w.handleStockMovement)
	w.eventHandler.OnProductChanged(w.handleProductChanged)
	w.eventHandler.OnOrder(w.handleOrder)
	return w
}

// Start starts the worker
func (w *StockAlertWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock alert worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockAlertWorker) Stop() error {
	w.logger.Info("Stopping stock alert worker")
	return w.consumer.Close()
}

func (w *StockAlertWorker) handleStockMovement(ctx context.Context, e *models.StockMovementEvent) error {
	w.observe(Levels(e.SKU, e.Stock, e.MinStock, e.AmazonStock, e.Amazon, w.amazonLowStock))
	return nil
}

func (w *StockAlertWorker) handleProductChanged(ctx context.Context, e *models.ProductChangedEvent) error {
	if e.Deleted {
		w.forget(e.SKU)
		return nil
	}
	w.observe(Levels(e.SKU, e.Stock, e.MinStock, e.AmazonStock, e.Amazon, w.amazonLowStock))
	return nil
}

func (w *StockAlertWorker) handleOrder(ctx context.Context, e *models.OrderEvent) error {
	w.logger.Debug("Order event",
		zap.String("order_id", e.OrderID),
		zap.String("event_type", e.EventType),
		zap.String("status", string(e.Status)))
	return nil
}

// observe returns the levels that newly became low
func (w *StockAlertWorker) observe(levels []Level) []Level {
	w.mu.Lock()
	defer w.mu.Unlock()

	var raised []Level
	for _, l := range levels {
		key := l.SKU + "/" + l.Channel
		util.ProductStock.WithLabelValues(l.SKU, l.Channel).Set(float64(l.Stock))

		if !l.Low() {
			delete(w.alerted, key)
			continue
		}
		if w.alerted[key] {
			continue
		}
		w.alerted[key] = true
		raised = append(raised, l)

		util.LowStockAlertsTotal.WithLabelValues(l.Channel).Inc()
		w.logger.Warn("Low stock",
			zap.String("sku", l.SKU),
			zap.String("channel", l.Channel),
			zap.Int("stock", l.Stock),
			zap.Int("threshold", l.Threshold))
	}
	return raised
}

func (w *StockAlertWorker) forget(sku string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.alerted, sku+"/"+ChannelStore)
	delete(w.alerted, sku+"/"+ChannelAmazon)
}
