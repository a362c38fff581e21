package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInstant(t *testing.T) {
	tests := []struct {
		typ     OrderType
		instant bool
	}{
		{OrderTypePickup, false},
		{OrderTypeShipping, true},
		{OrderTypeDirectSale, true},
		{OrderTypeGift, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			instant, err := tt.typ.IsInstant()
			require.NoError(t, err)
			assert.Equal(t, tt.instant, instant)
		})
	}

	_, err := OrderType("BARTER").IsInstant()
	assert.ErrorIs(t, err, ErrUnknownOrderType)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusDelivered))
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusDelivered))
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusPending, OrderStatusShipped))
}

func TestNewDetailsKeepsOnlyTypeFields(t *testing.T) {
	fields := DetailFields{
		ShippingProvider: "DHL",
		TrackingNumber:   "123",
		SellerName:       "Ana",
		AuthorizedBy:     "Horacio",
	}

	d, err := NewDetails(OrderTypeShipping, fields)
	require.NoError(t, err)
	assert.Equal(t, DetailFields{ShippingProvider: "DHL", TrackingNumber: "123"}, Fields(d))

	d, err = NewDetails(OrderTypeGift, fields)
	require.NoError(t, err)
	assert.Equal(t, DetailFields{AuthorizedBy: "Horacio"}, Fields(d))

	d, err = NewDetails(OrderTypePickup, fields)
	require.NoError(t, err)
	assert.Equal(t, DetailFields{}, Fields(d))
}

func TestGiftRequiresAuthorizer(t *testing.T) {
	assert.ErrorIs(t, GiftDetails{AuthorizedBy: "  "}.Validate(), ErrMissingAuthorizer)
	assert.NoError(t, GiftDetails{AuthorizedBy: "Horacio"}.Validate())
}

func TestOrderMarshalFlattensDetails(t *testing.T) {
	order := Order{
		ID:        "o1",
		Type:      OrderTypeDirectSale,
		Items:     []OrderItem{{ProductID: "p1", Name: "Taza", Quantity: 2}},
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Status:    OrderStatusDelivered,
		Details:   DirectSaleDetails{SellerName: "Ana"},
	}

	raw, err := json.Marshal(order)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Ana", out["seller_name"])
	assert.Equal(t, "DIRECT_SALE", out["type"])
	assert.NotContains(t, out, "authorized_by")
	assert.NotContains(t, out, "Details")
}

func TestIsCategory(t *testing.T) {
	assert.True(t, IsCategory("Papelería"))
	assert.False(t, IsCategory("Juguetes"))
}
