package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_stock_movements_total",
		Help: "Ledger entries written, by log type",
	}, []string{"type"})

	StockMovementUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_stock_movement_units_total",
		Help: "Units moved, by log type",
	}, []string{"type"})

	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	}, []string{"type"})

	OrdersDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_delivered_total",
		Help: "Total number of pickup orders fulfilled by signature",
	})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_deleted_total",
		Help: "Total number of orders deleted",
	})

	OperationsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_operations_rejected_total",
		Help: "Operations refused before any write, by reason",
	}, []string{"reason"})

	PersistenceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_persistence_latency_seconds",
		Help:    "Latency of write-through persistence per operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	PersistenceFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_persistence_failures_total",
		Help: "Operations whose persistence step failed",
	}, []string{"operation"})

	ProductStock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inventory_product_stock",
		Help: "Current stock per product and channel",
	}, []string{"sku", "channel"})

	LowStockAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_low_stock_alerts_total",
		Help: "Low stock alerts raised by the alert worker",
	}, []string{"channel"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
