// Package memstore provides an in-memory transactional Gateway used for
// local development (STORE_DRIVER=memory) and for exercising the workflow in tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/store"

	"github.com/google/uuid"
)

type memoryState struct {
	products map[string]models.Product
	orders   map[string]models.Order
	logs     map[string]models.InventoryLog
	seq      map[string]int
	next     int
}

func newMemoryState() *memoryState {
	return &memoryState{
		products: map[string]models.Product{},
		orders:   map[string]models.Order{},
		logs:     map[string]models.InventoryLog{},
		seq:      map[string]int{},
	}
}

func (s *memoryState) clone() *memoryState {
	out := newMemoryState()
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.orders {
		out.orders[k] = cloneOrder(v)
	}
	for k, v := range s.logs {
		out.logs[k] = v
	}
	for k, v := range s.seq {
		out.seq[k] = v
	}
	out.next = s.next
	return out
}

func (s *memoryState) stamp(id string) {
	s.next++
	s.seq[id] = s.next
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		o.DeliveredAt = &t
	}
	return o
}

// Store keeps every collection in memory. Writes inside WithTx are applied to a
// cloned state and become visible only when the callback returns nil.
type Store struct {
	mu       *sync.Mutex
	state    *memoryState
	failures map[string]error
	inTx     bool
}

var _ store.Gateway = (*Store)(nil)

func New() *Store {
	return &Store{
		mu:       &sync.Mutex{},
		state:    newMemoryState(),
		failures: map[string]error{},
	}
}

// FailOn makes every later call of the named operation (e.g. "InsertLog") return err.
// A nil err clears the injected failure.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) begin(op string) (func(), error) {
	unlock := func() {}
	if !s.inTx {
		s.mu.Lock()
		unlock = s.mu.Unlock
	}
	if err := s.failures[op]; err != nil {
		unlock()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return unlock, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Gateway) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures["WithTx"]; err != nil {
		return fmt.Errorf("WithTx: %w", err)
	}

	work := s.state.clone()
	tx := &Store{mu: s.mu, state: work, failures: s.failures, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	*s.state = *work
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	unlock, err := s.begin("ListProducts")
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]models.Product, 0, len(s.state.products))
	for _, p := range s.state.products {
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return s.state.seq[out[i].ID] < s.state.seq[out[j].ID]
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	unlock, err := s.begin("CountProducts")
	if err != nil {
		return 0, err
	}
	defer unlock()
	return len(s.state.products), nil
}

func (s *Store) SeedProductsIfEmpty(ctx context.Context, catalog []models.Product) error {
	return s.WithTx(ctx, func(tx store.Gateway) error {
		n, err := tx.CountProducts(ctx)
		if err != nil || n > 0 {
			return err
		}
		for i := range catalog {
			p := catalog[i]
			if err := tx.InsertProduct(ctx, &p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) InsertProduct(ctx context.Context, product *models.Product) error {
	unlock, err := s.begin("InsertProduct")
	if err != nil {
		return err
	}
	defer unlock()

	product.ID = uuid.NewString()
	s.state.products[product.ID] = *product
	s.state.stamp(product.ID)
	return nil
}

func (s *Store) updateProduct(op, id string, apply func(p *models.Product) error) error {
	unlock, err := s.begin(op)
	if err != nil {
		return err
	}
	defer unlock()

	p, ok := s.state.products[id]
	if !ok {
		return fmt.Errorf("%s %s: %w", op, id, store.ErrNotFound)
	}
	if err := apply(&p); err != nil {
		return err
	}
	s.state.products[id] = p
	return nil
}

// checkNonNegative mirrors the CHECK constraints of the SQL schema
func checkNonNegative(field string, v int) error {
	if v < 0 {
		return fmt.Errorf("check constraint violated: %s = %d", field, v)
	}
	return nil
}

func (s *Store) UpdateProductStock(ctx context.Context, id string, stock int) error {
	return s.updateProduct("UpdateProductStock", id, func(p *models.Product) error {
		if err := checkNonNegative("stock", stock); err != nil {
			return err
		}
		p.Stock = stock
		return nil
	})
}

func (s *Store) UpdateProductStocks(ctx context.Context, id string, stock, amazonStock int) error {
	return s.updateProduct("UpdateProductStocks", id, func(p *models.Product) error {
		if err := checkNonNegative("stock", stock); err != nil {
			return err
		}
		if err := checkNonNegative("amazon_stock", amazonStock); err != nil {
			return err
		}
		p.Stock = stock
		p.AmazonStock = amazonStock
		return nil
	})
}

func (s *Store) UpdateAmazonStock(ctx context.Context, id string, amazonStock int) error {
	return s.updateProduct("UpdateAmazonStock", id, func(p *models.Product) error {
		if err := checkNonNegative("amazon_stock", amazonStock); err != nil {
			return err
		}
		p.AmazonStock = amazonStock
		return nil
	})
}

func (s *Store) SetAmazonEnabled(ctx context.Context, id string, enabled bool) error {
	return s.updateProduct("SetAmazonEnabled", id, func(p *models.Product) error {
		p.AmazonEnabled = enabled
		return nil
	})
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	unlock, err := s.begin("DeleteProduct")
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := s.state.products[id]; !ok {
		return fmt.Errorf("DeleteProduct %s: %w", id, store.ErrNotFound)
	}
	delete(s.state.products, id)
	return nil
}

func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	unlock, err := s.begin("ListOrders")
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]models.Order, 0, len(s.state.orders))
	for _, o := range s.state.orders {
		out = append(out, cloneOrder(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return s.state.seq[out[i].ID] > s.state.seq[out[j].ID]
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	unlock, err := s.begin("GetOrderByID")
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, ok := s.state.orders[id]
	if !ok {
		return nil, nil
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	unlock, err := s.begin("InsertOrder")
	if err != nil {
		return err
	}
	defer unlock()

	order.ID = uuid.NewString()
	s.state.orders[order.ID] = cloneOrder(*order)
	s.state.stamp(order.ID)
	return nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, deliveredAt *time.Time, signature string) error {
	unlock, err := s.begin("UpdateOrderStatus")
	if err != nil {
		return err
	}
	defer unlock()

	o, ok := s.state.orders[id]
	if !ok {
		return fmt.Errorf("UpdateOrderStatus %s: %w", id, store.ErrNotFound)
	}
	o.Status = status
	o.DeliveredAt = nil
	if deliveredAt != nil {
		t := *deliveredAt
		o.DeliveredAt = &t
	}
	o.Signature = signature
	s.state.orders[id] = o
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	unlock, err := s.begin("DeleteOrder")
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := s.state.orders[id]; !ok {
		return fmt.Errorf("DeleteOrder %s: %w", id, store.ErrNotFound)
	}
	delete(s.state.orders, id)
	return nil
}

func (s *Store) ListLogs(ctx context.Context) ([]models.InventoryLog, error) {
	unlock, err := s.begin("ListLogs")
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]models.InventoryLog, 0, len(s.state.logs))
	for _, l := range s.state.logs {
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return s.state.seq[out[i].ID] > s.state.seq[out[j].ID]
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) InsertLog(ctx context.Context, log *models.InventoryLog) error {
	unlock, err := s.begin("InsertLog")
	if err != nil {
		return err
	}
	defer unlock()

	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if _, exists := s.state.logs[log.ID]; exists {
		return fmt.Errorf("duplicate log id %s", log.ID)
	}
	if log.Quantity <= 0 {
		return fmt.Errorf("check constraint violated: quantity = %d", log.Quantity)
	}
	s.state.logs[log.ID] = *log
	s.state.stamp(log.ID)
	return nil
}

func (s *Store) DeleteLogsByOrderID(ctx context.Context, orderID string) error {
	unlock, err := s.begin("DeleteLogsByOrderID")
	if err != nil {
		return err
	}
	defer unlock()

	for id, l := range s.state.logs {
		if l.OrderID == orderID {
			delete(s.state.logs, id)
		}
	}
	return nil
}
