package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

// State owns the in-memory mirror of the three collections.
// Mutating operations run under exclusive so each validate, persist and mirror
// sequence completes before the next one starts. The mirror only changes after
// the store committed.
type State struct {
	mu       sync.Mutex
	gw       store.Gateway
	catalog  []models.Product
	products []models.Product
	orders   []models.Order
	logs     []models.InventoryLog
	loaded   bool
}

// NewState creates the mirror over gw; catalog is seeded on the first Load of an empty store
func NewState(gw store.Gateway, catalog []models.Product) *State {
	return &State{gw: gw, catalog: catalog}
}

// Load seeds the catalog if needed and refreshes the mirror from the store.
// The previous mirror is kept when any step fails.
func (s *State) Load(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "State.Load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gw.SeedProductsIfEmpty(ctx, s.catalog); err != nil {
		util.FailSpan(span, err)
		return persistenceFailure("seed products", err)
	}

	products, err := s.gw.ListProducts(ctx)
	if err != nil {
		util.FailSpan(span, err)
		return persistenceFailure("load products", err)
	}
	orders, err := s.gw.ListOrders(ctx)
	if err != nil {
		util.FailSpan(span, err)
		return persistenceFailure("load orders", err)
	}
	logs, err := s.gw.ListLogs(ctx)
	if err != nil {
		util.FailSpan(span, err)
		return persistenceFailure("load logs", err)
	}

	s.products, s.orders, s.logs = products, orders, logs
	s.loaded = true

	for _, p := range products {
		recordStockGauges(p)
	}

	util.GetLogger().Info("State loaded",
		zap.Int("products", len(products)),
		zap.Int("orders", len(orders)),
		zap.Int("logs", len(logs)))
	return nil
}

// Loaded reports whether a Load has succeeded at least once
func (s *State) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *State) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.products...)
}

func (s *State) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Order(nil), s.orders...)
}

func (s *State) Logs() []models.InventoryLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.InventoryLog(nil), s.logs...)
}

// Order returns a mirrored order by id
func (s *State) Order(id string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order(id)
}

func (s *State) exclusive(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return &Error{Kind: KindPrecondition, Message: "inventory is not loaded yet", Err: ErrNotLoaded}
	}
	return fn()
}

// persist runs fn in one store transaction and records its latency
func (s *State) persist(ctx context.Context, op string, fn func(tx store.Gateway) error) error {
	start := time.Now()
	err := s.gw.WithTx(ctx, fn)
	util.PersistenceLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		util.GetLogger().Error("Persistence failed", zap.String("operation", op), zap.Error(err))
		return persistenceFailure(op, err)
	}
	return nil
}

func (s *State) product(id string) (models.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (s *State) order(id string) (models.Order, bool) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

func (s *State) putProduct(p models.Product) {
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
			return
		}
	}
	s.products = append(s.products, p)
	sort.SliceStable(s.products, func(i, j int) bool {
		return s.products[i].Name < s.products[j].Name
	})
}

func (s *State) removeProduct(id string) {
	out := s.products[:0]
	for _, p := range s.products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	s.products = out
}

func (s *State) prependLogs(logs ...models.InventoryLog) {
	if len(logs) == 0 {
		return
	}
	// newest first: the last written entry leads
	merged := make([]models.InventoryLog, 0, len(logs)+len(s.logs))
	for i := len(logs) - 1; i >= 0; i-- {
		merged = append(merged, logs[i])
	}
	s.logs = append(merged, s.logs...)
}

func (s *State) prependOrder(o models.Order) {
	s.orders = append([]models.Order{o}, s.orders...)
}

func (s *State) putOrder(o models.Order) {
	for i := range s.orders {
		if s.orders[i].ID == o.ID {
			s.orders[i] = o
			return
		}
	}
	s.prependOrder(o)
}

func (s *State) removeOrder(id string) {
	out := s.orders[:0]
	for _, o := range s.orders {
		if o.ID != id {
			out = append(out, o)
		}
	}
	s.orders = out

	logs := s.logs[:0]
	for _, l := range s.logs {
		if l.OrderID != id {
			logs = append(logs, l)
		}
	}
	s.logs = logs
}

func recordStockGauges(p models.Product) {
	util.ProductStock.WithLabelValues(p.SKU, "store").Set(float64(p.Stock))
	if p.AmazonEnabled {
		util.ProductStock.WithLabelValues(p.SKU, "amazon").Set(float64(p.AmazonStock))
	}
}
