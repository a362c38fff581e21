package service

import (
	"context"
	"math"
	"strings"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/store"
	"inventory-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Publisher receives committed changes; failures are logged and never undo a commit
type Publisher interface {
	PublishStockMovement(ctx context.Context, log models.InventoryLog, product models.Product) error
	PublishProductChanged(ctx context.Context, product models.Product, deleted bool) error
	PublishOrderEvent(ctx context.Context, eventType string, order models.Order) error
}

type noopPublisher struct{}

func (noopPublisher) PublishStockMovement(context.Context, models.InventoryLog, models.Product) error {
	return nil
}
func (noopPublisher) PublishProductChanged(context.Context, models.Product, bool) error { return nil }
func (noopPublisher) PublishOrderEvent(context.Context, string, models.Order) error    { return nil }

// InventoryService applies stock movements to the catalog and records them in the ledger
type InventoryService struct {
	state          *State
	publisher      Publisher
	amazonLowStock int
	now            func() time.Time
	logger         *zap.Logger
}

// NewInventoryService creates a new inventory service; publisher may be nil
func NewInventoryService(state *State, publisher Publisher, amazonLowStock int) *InventoryService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &InventoryService{
		state:          state,
		publisher:      publisher,
		amazonLowStock: amazonLowStock,
		now:            time.Now,
		logger:         util.GetLogger(),
	}
}

// ValidateQuantity accepts finite, positive, whole quantities
func ValidateQuantity(qty float64) (int, error) {
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 || qty != math.Trunc(qty) || qty > math.MaxInt32 {
		return 0, reject(KindValidation, ErrInvalidQuantity, "invalid quantity")
	}
	return int(qty), nil
}

// ProductInput carries the fields accepted when creating a product
type ProductInput struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	AmazonStock int             `json:"amazon_stock"`
	Price       decimal.Decimal `json:"price"`
}

func newLog(now time.Time, actor models.User, logType models.LogType, p models.Product, qty int, orderID, productName string) models.InventoryLog {
	if productName == "" {
		productName = p.Name
	}
	return models.InventoryLog{
		ID:          uuid.NewString(),
		Timestamp:   now,
		Type:        logType,
		ProductID:   p.ID,
		ProductName: productName,
		Quantity:    qty,
		UserID:      actor.ID,
		UserName:    actor.Name,
		OrderID:     orderID,
		UnitPrice:   decimal.NewNullDecimal(p.Price),
	}
}

func recordMovement(log models.InventoryLog, p models.Product) {
	util.StockMovementsTotal.WithLabelValues(string(log.Type)).Inc()
	util.StockMovementUnits.WithLabelValues(string(log.Type)).Add(float64(log.Quantity))
	recordStockGauges(p)
}

func publishMovements(ctx context.Context, pub Publisher, logger *zap.Logger, logs []models.InventoryLog, after map[string]models.Product) {
	for _, l := range logs {
		if err := pub.PublishStockMovement(ctx, l, after[l.ProductID]); err != nil {
			logger.Error("Failed to publish stock movement", zap.String("log_id", l.ID), zap.Error(err))
		}
	}
}

// AddStock receives qty units into the physical stock of a product
func (s *InventoryService) AddStock(ctx context.Context, actor models.User, productID string, qty float64) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.AddStock")
	defer span.End()

	n, err := ValidateQuantity(qty)
	if err != nil {
		return models.Product{}, err
	}

	var updated models.Product
	var entry models.InventoryLog
	err = s.state.exclusive(func() error {
		p, ok := s.state.product(productID)
		if !ok {
			return reject(KindNotFound, ErrProductNotFound, "product not found")
		}

		updated = p
		updated.Stock += n
		entry = newLog(s.now(), actor, models.LogTypeEntry, p, n, "", "")

		err := s.state.persist(ctx, "add stock", func(tx store.Gateway) error {
			if err := tx.UpdateProductStock(ctx, p.ID, updated.Stock); err != nil {
				return err
			}
			return tx.InsertLog(ctx, &entry)
		})
		if err != nil {
			return err
		}

		s.state.putProduct(updated)
		s.state.prependLogs(entry)
		return nil
	})
	if err != nil {
		util.FailSpan(span, err)
		return models.Product{}, err
	}

	recordMovement(entry, updated)
	util.OperationLogger("add_stock", actor.ID).Info("Stock received",
		zap.String("product_id", productID), zap.Int("quantity", n), zap.Int("stock", updated.Stock))
	publishMovements(ctx, s.publisher, s.logger, []models.InventoryLog{entry}, map[string]models.Product{updated.ID: updated})
	return updated, nil
}

// TransferToAmazon moves qty units from the physical stock to the Amazon pool
func (s *InventoryService) TransferToAmazon(ctx context.Context, actor models.User, productID string, qty float64) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.TransferToAmazon")
	defer span.End()

	n, err := ValidateQuantity(qty)
	if err != nil {
		return models.Product{}, err
	}

	var updated models.Product
	var entry models.InventoryLog
	err = s.state.exclusive(func() error {
		p, ok := s.state.product(productID)
		if !ok {
			return reject(KindNotFound, ErrProductNotFound, "product not found")
		}
		if !p.AmazonEnabled {
			return reject(KindPrecondition, ErrAmazonNotEnabled, "enable the product for Amazon first")
		}
		if p.Stock < n {
			return reject(KindPrecondition, ErrInsufficientStock, "not enough stock to transfer")
		}

		updated = p
		updated.Stock -= n
		updated.AmazonStock += n
		entry = newLog(s.now(), actor, models.LogTypeAmazonTransfer, p, n, "", "")

		err := s.state.persist(ctx, "transfer to amazon", func(tx store.Gateway) error {
			if err := tx.UpdateProductStocks(ctx, p.ID, updated.Stock, updated.AmazonStock); err != nil {
				return err
			}
			return tx.InsertLog(ctx, &entry)
		})
		if err != nil {
			return err
		}

		s.state.putProduct(updated)
		s.state.prependLogs(entry)
		return nil
	})
	if err != nil {
		util.FailSpan(span, err)
		return models.Product{}, err
	}

	recordMovement(entry, updated)
	util.OperationLogger("transfer_to_amazon", actor.ID).Info("Stock transferred to Amazon",
		zap.String("product_id", productID), zap.Int("quantity", n))
	publishMovements(ctx, s.publisher, s.logger, []models.InventoryLog{entry}, map[string]models.Product{updated.ID: updated})
	return updated, nil
}

// RecordAmazonSale debits qty units sold through Amazon from the Amazon pool
func (s *InventoryService) RecordAmazonSale(ctx context.Context, actor models.User, productID string, qty float64) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.RecordAmazonSale")
	defer span.End()

	n, err := ValidateQuantity(qty)
	if err != nil {
		return models.Product{}, err
	}

	var updated models.Product
	var entry models.InventoryLog
	err = s.state.exclusive(func() error {
		p, ok := s.state.product(productID)
		if !ok {
			return reject(KindNotFound, ErrProductNotFound, "product not found")
		}
		if !p.AmazonEnabled {
			return reject(KindPrecondition, ErrAmazonNotEnabled, "product is not sold on Amazon")
		}
		if p.AmazonStock < n {
			return reject(KindPrecondition, ErrInsufficientAmazonStock, "not enough Amazon stock")
		}

		updated = p
		updated.AmazonStock -= n
		entry = newLog(s.now(), actor, models.LogTypeAmazonSale, p, n, "", "")

		err := s.state.persist(ctx, "record amazon sale", func(tx store.Gateway) error {
			if err := tx.UpdateAmazonStock(ctx, p.ID, updated.AmazonStock); err != nil {
				return err
			}
			return tx.InsertLog(ctx, &entry)
		})
		if err != nil {
			return err
		}

		s.state.putProduct(updated)
		s.state.prependLogs(entry)
		return nil
	})
	if err != nil {
		util.FailSpan(span, err)
		return models.Product{}, err
	}

	recordMovement(entry, updated)
	util.OperationLogger("amazon_sale", actor.ID).Info("Amazon sale recorded",
		zap.String("product_id", productID), zap.Int("quantity", n))
	publishMovements(ctx, s.publisher, s.logger, []models.InventoryLog{entry}, map[string]models.Product{updated.ID: updated})
	return updated, nil
}

// EnableAmazon opens the Amazon channel for a product. Enabling twice is a no-op.
func (s *InventoryService) EnableAmazon(ctx context.Context, productID string) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.EnableAmazon")
	defer span.End()

	var updated models.Product
	changed := false
	err := s.state.exclusive(func() error {
		p, ok := s.state.product(productID)
		if !ok {
			return reject(KindNotFound, ErrProductNotFound, "product not found")
		}
		updated = p
		if p.AmazonEnabled {
			return nil
		}

		if err := s.state.persist(ctx, "enable amazon", func(tx store.Gateway) error {
			return tx.SetAmazonEnabled(ctx, p.ID, true)
		}); err != nil {
			return err
		}

		updated.AmazonEnabled = true
		s.state.putProduct(updated)
		changed = true
		return nil
	})
	if err != nil {
		util.FailSpan(span, err)
		return models.Product{}, err
	}

	if changed {
		recordStockGauges(updated)
		s.logger.Info("Amazon enabled", zap.String("product_id", productID))
		if err := s.publisher.PublishProductChanged(ctx, updated, false); err != nil {
			s.logger.Error("Failed to publish product change", zap.Error(err))
		}
	}
	return updated, nil
}

func (s *InventoryService) validateProductInput(in ProductInput) (ProductInput, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" {
		return in, reject(KindValidation, ErrMissingSKU, "sku is required")
	}
	if in.Name == "" {
		return in, reject(KindValidation, ErrMissingName, "name is required")
	}
	if in.Category == "" {
		in.Category = models.DefaultCategory
	}
	if !models.IsCategory(in.Category) {
		return in, reject(KindValidation, ErrUnknownCategory, "unknown category "+in.Category)
	}
	if in.MinStock == 0 {
		in.MinStock = models.DefaultMinStock
	}
	if in.Stock < 0 || in.MinStock < 0 || in.AmazonStock < 0 || in.Price.IsNegative() {
		return in, reject(KindValidation, ErrNegativeValue, "stock levels and price must not be negative")
	}
	return in, nil
}

func (s *InventoryService) insertProduct(ctx context.Context, op string, p models.Product) (models.Product, error) {
	err := s.state.exclusive(func() error {
		if err := s.state.persist(ctx, op, func(tx store.Gateway) error {
			return tx.InsertProduct(ctx, &p)
		}); err != nil {
			return err
		}
		s.state.putProduct(p)
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}

	recordStockGauges(p)
	s.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("sku", p.SKU))
	if err := s.publisher.PublishProductChanged(ctx, p, false); err != nil {
		s.logger.Error("Failed to publish product change", zap.Error(err))
	}
	return p, nil
}

// AddProduct adds a product to the catalog with the default category and minimum stock
func (s *InventoryService) AddProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.AddProduct")
	defer span.End()

	// amazon stock only exists once the channel is enabled
	in.AmazonStock = 0
	in, err := s.validateProductInput(in)
	if err != nil {
		return models.Product{}, err
	}

	p, err := s.insertProduct(ctx, "add product", models.Product{
		SKU:      in.SKU,
		Name:     in.Name,
		Category: in.Category,
		Stock:    in.Stock,
		MinStock: in.MinStock,
		Price:    in.Price,
	})
	if err != nil {
		util.FailSpan(span, err)
	}
	return p, err
}

// CreateAmazonProduct creates a product that only exists in the Amazon channel so far
func (s *InventoryService) CreateAmazonProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.CreateAmazonProduct")
	defer span.End()

	in.Stock = 0
	in, err := s.validateProductInput(in)
	if err != nil {
		return models.Product{}, err
	}

	p, err := s.insertProduct(ctx, "create amazon product", models.Product{
		SKU:           in.SKU,
		Name:          in.Name,
		Category:      in.Category,
		MinStock:      in.MinStock,
		Price:         in.Price,
		AmazonStock:   in.AmazonStock,
		AmazonEnabled: true,
	})
	if err != nil {
		util.FailSpan(span, err)
	}
	return p, err
}

// DeleteProduct removes a product from the catalog; its ledger history is kept
func (s *InventoryService) DeleteProduct(ctx context.Context, productID string) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.DeleteProduct")
	defer span.End()

	var removed models.Product
	err := s.state.exclusive(func() error {
		p, ok := s.state.product(productID)
		if !ok {
			return reject(KindNotFound, ErrProductNotFound, "product not found")
		}
		if err := s.state.persist(ctx, "delete product", func(tx store.Gateway) error {
			return tx.DeleteProduct(ctx, p.ID)
		}); err != nil {
			return err
		}
		s.state.removeProduct(p.ID)
		removed = p
		return nil
	})
	if err != nil {
		util.FailSpan(span, err)
		return err
	}

	util.ProductStock.DeleteLabelValues(removed.SKU, "store")
	util.ProductStock.DeleteLabelValues(removed.SKU, "amazon")
	s.logger.Info("Product deleted", zap.String("product_id", productID))
	if err := s.publisher.PublishProductChanged(ctx, removed, true); err != nil {
		s.logger.Error("Failed to publish product change", zap.Error(err))
	}
	return nil
}

// ListProducts returns the mirrored catalog sorted by name
func (s *InventoryService) ListProducts() []models.Product {
	return s.state.Products()
}

// ListLogs returns the mirrored ledger, newest first
func (s *InventoryService) ListLogs() []models.InventoryLog {
	return s.state.Logs()
}
