package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers which order a client request key produced
type IdempotencyStore interface {
	GetIdempotencyKey(ctx context.Context, key string) (string, bool, error)
	SetIdempotencyKey(ctx context.Context, key, orderID string, ttl time.Duration) error
}

// OrderService handles the order lifecycle: creation, fulfillment by signature and deletion
type OrderService struct {
	state          *State
	publisher      Publisher
	idempotency    IdempotencyStore
	deletePassword string
	now            func() time.Time
	logger         *zap.Logger
}

// NewOrderService creates a new order service; publisher and idempotency may be nil
func NewOrderService(state *State, publisher Publisher, idempotency IdempotencyStore, deletePassword string) *OrderService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &OrderService{
		state:          state,
		publisher:      publisher,
		idempotency:    idempotency,
		deletePassword: deletePassword,
		now:            time.Now,
		logger:         util.GetLogger(),
	}
}

// ItemInput is one requested order line
type ItemInput struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

// CreateOrderInput represents a request to create an order
type CreateOrderInput struct {
	Type           models.OrderType    `json:"type"`
	RecipientName  string              `json:"recipient_name"`
	Items          []ItemInput         `json:"items"`
	Details        models.DetailFields `json:"details"`
	IdempotencyKey string              `json:"-"`
}

// TokenResolution is the outcome of scanning a recollection token
type TokenResolution struct {
	Order       models.Order `json:"order"`
	Fulfillable bool         `json:"fulfillable"`
}

// demand sums the requested quantity per product, keeping first-seen order
type demand struct {
	ids   []string
	total map[string]int
}

func newDemand(items []models.OrderItem) demand {
	d := demand{total: map[string]int{}}
	for _, it := range items {
		if _, seen := d.total[it.ProductID]; !seen {
			d.ids = append(d.ids, it.ProductID)
		}
		d.total[it.ProductID] += it.Quantity
	}
	return d
}

// checkStock must run under exclusive; it returns the post-debit products
func (s *OrderService) checkStock(d demand) (map[string]models.Product, error) {
	after := make(map[string]models.Product, len(d.ids))
	for _, id := range d.ids {
		p, ok := s.state.product(id)
		if !ok {
			return nil, reject(KindNotFound, ErrProductNotFound, "product not found: "+id)
		}
		if p.Stock < d.total[id] {
			return nil, reject(KindPrecondition, ErrInsufficientStock, "insufficient stock for "+p.Name)
		}
		p.Stock -= d.total[id]
		after[id] = p
	}
	return after, nil
}

func (s *OrderService) resolveItems(items []ItemInput) ([]models.OrderItem, error) {
	if len(items) == 0 {
		return nil, reject(KindValidation, ErrEmptyOrder, "add at least one item")
	}

	resolved := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		n, err := ValidateQuantity(it.Quantity)
		if err != nil {
			return nil, err
		}
		p, ok := s.state.product(it.ProductID)
		if !ok {
			return nil, reject(KindNotFound, ErrProductNotFound, "product not found: "+it.ProductID)
		}
		resolved = append(resolved, models.OrderItem{ProductID: p.ID, Name: p.Name, Quantity: n})
	}
	return resolved, nil
}

// replay must run under exclusive so a retried key cannot race the first request
func (s *OrderService) replay(ctx context.Context, key string) (models.Order, bool) {
	if s.idempotency == nil || key == "" {
		return models.Order{}, false
	}
	orderID, found, err := s.idempotency.GetIdempotencyKey(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to check idempotency key", zap.String("idempotency_key", key), zap.Error(err))
		return models.Order{}, false
	}
	if !found {
		return models.Order{}, false
	}
	return s.state.order(orderID)
}

func (s *OrderService) remember(ctx context.Context, key, orderID string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if err := s.idempotency.SetIdempotencyKey(ctx, key, orderID, idempotencyTTL); err != nil {
		s.logger.Warn("Failed to store idempotency key", zap.String("order_id", orderID), zap.Error(err))
	}
}

// CreateOrder records an order. Instant orders debit every item and write their EXIT
// logs together with the order; pickup orders stay PENDING until signed.
func (s *OrderService) CreateOrder(ctx context.Context, actor models.User, in CreateOrderInput) (models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	instant, err := in.Type.IsInstant()
	if err != nil {
		return models.Order{}, reject(KindValidation, err, "unknown order type")
	}
	recipient := strings.TrimSpace(in.RecipientName)
	if recipient == "" {
		return models.Order{}, reject(KindValidation, ErrMissingRecipient, "recipient name is required")
	}
	details, err := models.NewDetails(in.Type, in.Details)
	if err != nil {
		return models.Order{}, reject(KindValidation, err, "unknown order type")
	}
	if err := details.Validate(); err != nil {
		return models.Order{}, reject(KindValidation, err, "incomplete order details")
	}

	var order models.Order
	var logs []models.InventoryLog
	var after map[string]models.Product
	var replayed bool
	err = s.state.exclusive(func() error {
		if existing, ok := s.replay(ctx, in.IdempotencyKey); ok {
			order, replayed = existing, true
			return nil
		}

		items, err := s.resolveItems(in.Items)
		if err != nil {
			return err
		}

		d := newDemand(items)
		if instant {
			if after, err = s.checkStock(d); err != nil {
				return err
			}
		}

		now := s.now()
		order = models.Order{
			Type:          in.Type,
			Items:         items,
			RecipientName: recipient,
			DelivererID:   actor.ID,
			DelivererName: actor.Name,
			CreatedAt:     now,
			Status:        models.OrderStatusPending,
			Details:       details,
		}
		if instant {
			order.Status = models.OrderStatusDelivered
			order.DeliveredAt = &now
		}

		logs = nil
		err = s.state.persist(ctx, "create order", func(tx store.Gateway) error {
			if err := tx.InsertOrder(ctx, &order); err != nil {
				return err
			}
			if !instant {
				return nil
			}
			for _, id := range d.ids {
				if err := tx.UpdateProductStock(ctx, id, after[id].Stock); err != nil {
					return err
				}
			}
			for _, it := range items {
				p, _ := s.state.product(it.ProductID)
				entry := newLog(now, actor, models.LogTypeExit, p, it.Quantity, order.ID,
					it.Name+" ("+in.Type.ExitLabel()+")")
				if err := tx.InsertLog(ctx, &entry); err != nil {
					return err
				}
				logs = append(logs, entry)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, id := range d.ids {
			if p, ok := after[id]; ok {
				s.state.putProduct(p)
			}
		}
		s.state.prependLogs(logs...)
		s.state.prependOrder(order)
		s.remember(ctx, in.IdempotencyKey, order.ID)
		return nil
	})
	if err != nil {
		util.FailSpan(span, err)
		return models.Order{}, err
	}
	if replayed {
		s.logger.Info("Duplicate order request detected",
			zap.String("idempotency_key", in.IdempotencyKey),
			zap.String("order_id", order.ID))
		return order, nil
	}

	util.OrdersCreatedTotal.WithLabelValues(string(order.Type)).Inc()
	for _, l := range logs {
		recordMovement(l, after[l.ProductID])
	}
	util.OperationLogger("create_order", actor.ID).Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("type", string(order.Type)),
		zap.String("status", string(order.Status)),
		zap.Int("items", len(order.Items)))

	if err := s.publisher.PublishOrderEvent(ctx, models.EventTypeOrderCreated, order); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}
	publishMovements(ctx, s.publisher, s.logger, logs, after)
	return order, nil
}

// FulfillOrder completes a pending pickup order with the recipient's signature
func (s *OrderService) FulfillOrder(ctx context.Context, actor models.User, orderID, signature string) (models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.FulfillOrder")
	defer span.End()

	if strings.TrimSpace(signature) == "" {
		return models.Order{}, reject(KindValidation, ErrMissingSignature, "signature is required")
	}

	var order models.Order
	var logs []models.InventoryLog
	var after map[string]models.Product
	err := s.state.exclusive(func() error {
		current, ok := s.state.order(orderID)
		if !ok {
			return reject(KindNotFound, ErrOrderNotFound, "order not found")
		}
		if !current.Fulfillable() || !models.CanTransition(current.Status, models.OrderStatusDelivered) {
			return reject(KindPrecondition, ErrOrderNotPending, "order cannot be fulfilled")
		}

		d := newDemand(current.Items)
		var err error
		if after, err = s.checkStock(d); err != nil {
			return err
		}

		now := s.now()
		order = current
		order.Status = models.OrderStatusDelivered
		order.DeliveredAt = &now
		order.Signature = signature

		logs = nil
		err = s.state.persist(ctx, "fulfill order", func(tx store.Gateway) error {
			if err := tx.UpdateOrderStatus(ctx, order.ID, order.Status, order.DeliveredAt, signature); err != nil {
				return err
			}
			for _, id := range d.ids {
				if err := tx.UpdateProductStock(ctx, id, after[id].Stock); err != nil {
					return err
				}
			}
			for _, it := range order.Items {
				p, _ := s.state.product(it.ProductID)
				entry := newLog(now, actor, models.LogTypeExit, p, it.Quantity, order.ID, it.Name)
				if err := tx.InsertLog(ctx, &entry); err != nil {
					return err
				}
				logs = append(logs, entry)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, p := range after {
			s.state.putProduct(p)
		}
		s.state.prependLogs(logs...)
		s.state.putOrder(order)
		return nil
	})
	if err != nil {
		util.FailSpan(span, err)
		return models.Order{}, err
	}

	util.OrdersDeliveredTotal.Inc()
	for _, l := range logs {
		recordMovement(l, after[l.ProductID])
	}
	util.OperationLogger("fulfill_order", actor.ID).Info("Order delivered", zap.String("order_id", order.ID))

	if err := s.publisher.PublishOrderEvent(ctx, models.EventTypeOrderDelivered, order); err != nil {
		s.logger.Error("Failed to publish OrderDelivered event", zap.Error(err))
	}
	publishMovements(ctx, s.publisher, s.logger, logs, after)
	return order, nil
}

// DeleteOrder removes an order and every log it caused. Debited stock is not restored.
func (s *OrderService) DeleteOrder(ctx context.Context, actor models.User, orderID, password string, confirmed bool) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	if s.deletePassword == "" {
		return reject(KindForbidden, ErrDeleteDisabled, "order deletion is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.deletePassword)) != 1 {
		return reject(KindForbidden, ErrWrongPassword, "wrong password")
	}
	if !confirmed {
		return reject(KindValidation, ErrNotConfirmed, "deletion must be confirmed")
	}

	var removed models.Order
	err := s.state.exclusive(func() error {
		order, ok := s.state.order(orderID)
		if !ok {
			return reject(KindNotFound, ErrOrderNotFound, "order not found")
		}

		if err := s.state.persist(ctx, "delete order", func(tx store.Gateway) error {
			if err := tx.DeleteOrder(ctx, order.ID); err != nil {
				return err
			}
			return tx.DeleteLogsByOrderID(ctx, order.ID)
		}); err != nil {
			return err
		}

		s.state.removeOrder(order.ID)
		removed = order
		return nil
	})
	if err != nil {
		util.FailSpan(span, err)
		return err
	}

	util.OrdersDeletedTotal.Inc()
	util.OperationLogger("delete_order", actor.ID).Warn("Order deleted", zap.String("order_id", orderID))
	if err := s.publisher.PublishOrderEvent(ctx, models.EventTypeOrderDeleted, removed); err != nil {
		s.logger.Error("Failed to publish OrderDeleted event", zap.Error(err))
	}
	return nil
}

// ResolveToken looks up the order a scanned recollection token points to
func (s *OrderService) ResolveToken(ctx context.Context, token string) (TokenResolution, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ResolveToken")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return TokenResolution{}, reject(KindValidation, ErrOrderNotFound, "empty token")
	}

	if order, ok := s.state.Order(token); ok {
		return TokenResolution{Order: order, Fulfillable: order.Fulfillable()}, nil
	}

	order, err := s.state.gw.GetOrderByID(ctx, token)
	if err != nil {
		util.FailSpan(span, err)
		return TokenResolution{}, persistenceFailure("look up order", err)
	}
	if order == nil {
		return TokenResolution{}, reject(KindNotFound, ErrOrderNotFound, "order not found")
	}
	return TokenResolution{Order: *order, Fulfillable: order.Fulfillable()}, nil
}

// ListOrders returns the mirrored orders, newest first
func (s *OrderService) ListOrders() []models.Order {
	return s.state.Orders()
}

// GetOrder returns a mirrored order by ID
func (s *OrderService) GetOrder(orderID string) (models.Order, error) {
	order, ok := s.state.Order(orderID)
	if !ok {
		return models.Order{}, &Error{Kind: KindNotFound, Message: "order not found", Err: ErrOrderNotFound}
	}
	return order, nil
}
