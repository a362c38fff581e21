package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// OrderType selects how and when an order debits stock
type OrderType string

const (
	OrderTypePickup     OrderType = "PICKUP"
	OrderTypeShipping   OrderType = "SHIPPING"
	OrderTypeDirectSale OrderType = "DIRECT_SALE"
	OrderTypeGift       OrderType = "GIFT"
)

var ErrUnknownOrderType = errors.New("unknown order type")

// IsInstant reports whether stock is debited when the order is created.
// Deferred (pickup) orders debit stock only when the recipient signs.
func (t OrderType) IsInstant() (bool, error) {
	switch t {
	case OrderTypeShipping, OrderTypeDirectSale, OrderTypeGift:
		return true, nil
	case OrderTypePickup:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOrderType, string(t))
	}
}

// ExitLabel is appended to the product name of EXIT logs written at creation time
func (t OrderType) ExitLabel() string {
	if t == OrderTypeGift {
		return "Regalo"
	}
	return "Salida"
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// Reserved, never produced by the current workflow.
	OrderStatusReturned      OrderStatus = "RETURNED"
	OrderStatusShipped       OrderStatus = "SHIPPED"
	OrderStatusCompletedSale OrderStatus = "COMPLETED_SALE"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:       {OrderStatusDelivered: true},
	OrderStatusDelivered:     {},
	OrderStatusReturned:      {},
	OrderStatusShipped:       {},
	OrderStatusCompletedSale: {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// OrderDetails carries the fields that only make sense for one order type
type OrderDetails interface {
	Type() OrderType
	Validate() error
}

var ErrMissingAuthorizer = errors.New("gift orders require who authorized them")

type PickupDetails struct{}

func (PickupDetails) Type() OrderType { return OrderTypePickup }
func (PickupDetails) Validate() error { return nil }

type ShippingDetails struct {
	Provider       string
	TrackingNumber string
}

func (ShippingDetails) Type() OrderType { return OrderTypeShipping }
func (ShippingDetails) Validate() error { return nil }

type DirectSaleDetails struct {
	SellerName string
}

func (DirectSaleDetails) Type() OrderType { return OrderTypeDirectSale }
func (DirectSaleDetails) Validate() error { return nil }

type GiftDetails struct {
	AuthorizedBy string
}

func (GiftDetails) Type() OrderType { return OrderTypeGift }

func (d GiftDetails) Validate() error {
	if strings.TrimSpace(d.AuthorizedBy) == "" {
		return ErrMissingAuthorizer
	}
	return nil
}

// DetailFields is the flat, column-shaped form of OrderDetails
type DetailFields struct {
	ShippingProvider string `json:"shipping_provider,omitempty"`
	TrackingNumber   string `json:"tracking_number,omitempty"`
	SellerName       string `json:"seller_name,omitempty"`
	AuthorizedBy     string `json:"authorized_by,omitempty"`
}

// NewDetails builds the variant for t, keeping only the fields that belong to it
func NewDetails(t OrderType, f DetailFields) (OrderDetails, error) {
	switch t {
	case OrderTypePickup:
		return PickupDetails{}, nil
	case OrderTypeShipping:
		return ShippingDetails{Provider: f.ShippingProvider, TrackingNumber: f.TrackingNumber}, nil
	case OrderTypeDirectSale:
		return DirectSaleDetails{SellerName: f.SellerName}, nil
	case OrderTypeGift:
		return GiftDetails{AuthorizedBy: f.AuthorizedBy}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrderType, string(t))
	}
}

// Fields flattens details back into their column form
func Fields(d OrderDetails) DetailFields {
	switch v := d.(type) {
	case ShippingDetails:
		return DetailFields{ShippingProvider: v.Provider, TrackingNumber: v.TrackingNumber}
	case DirectSaleDetails:
		return DetailFields{SellerName: v.SellerName}
	case GiftDetails:
		return DetailFields{AuthorizedBy: v.AuthorizedBy}
	default:
		return DetailFields{}
	}
}

// Order represents an outbound fulfillment
type Order struct {
	ID            string       `json:"id"`
	Type          OrderType    `json:"type"`
	Items         []OrderItem  `json:"items"`
	RecipientName string       `json:"recipient_name"`
	DelivererID   string       `json:"deliverer_id"`
	DelivererName string       `json:"deliverer_name"`
	CreatedAt     time.Time    `json:"created_at"`
	Status        OrderStatus  `json:"status"`
	DeliveredAt   *time.Time   `json:"delivered_at,omitempty"`
	Signature     string       `json:"signature,omitempty"`
	Details       OrderDetails `json:"-"`
}

// Fulfillable reports whether the order can still be completed by signature
func (o *Order) Fulfillable() bool {
	return o.Type == OrderTypePickup && o.Status == OrderStatusPending
}

func (o Order) MarshalJSON() ([]byte, error) {
	type alias Order
	return json.Marshal(struct {
		alias
		DetailFields
	}{alias: alias(o), DetailFields: Fields(o.Details)})
}
