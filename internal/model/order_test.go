package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTotalExpectedWeight(t *testing.T) {
	order := Order{Items: []OrderItem{
		{Name: "rice", Weight: 100, Quantity: 2},
		{Name: "soap", Weight: 0, Quantity: 3},
	}}
	assert.Equal(t, 200.0, order.TotalExpectedWeight())
}

func TestItemKeyPriority(t *testing.T) {
	assert.Equal(t, "line-1", OrderItem{ID: "line-1", ProductID: "p", Name: "n"}.Key())
	assert.Equal(t, "p", OrderItem{ProductID: "p", Name: "n"}.Key())
	assert.Equal(t, "n", OrderItem{Name: "n"}.Key())
}

func TestDistinctItemCountCollapsesSharedKeys(t *testing.T) {
	order := Order{Items: []OrderItem{
		{ProductID: "p1", Name: "Tea (small)"},
		{ProductID: "p1", Name: "Tea (large)"},
		{ProductID: "p2", Name: "Milk"},
	}}
	assert.Equal(t, 2, order.DistinctItemCount())
}

func TestStatusAwaitingExit(t *testing.T) {
	assert.True(t, StatusPaid.AwaitingExit())
	assert.True(t, StatusPending.AwaitingExit())
	assert.False(t, StatusPendingPayment.AwaitingExit())
	assert.False(t, StatusVerified.AwaitingExit())
}

func TestPaymentMethodInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPaid, PaymentUPI.InitialStatus())
	assert.Equal(t, StatusPaid, PaymentManual.InitialStatus())
	assert.Equal(t, StatusPendingPayment, PaymentCash.InitialStatus())
	assert.False(t, PaymentMethod("CARD").Valid())
}

func TestNewSaleMargins(t *testing.T) {
	item := OrderItem{ProductID: "p1", Name: "Coffee", Price: decimal.NewFromInt(100), Quantity: 2}
	sale := NewSale(uuid.New(), item, time.Now())

	assert.True(t, sale.CostPrice.Equal(decimal.NewFromInt(70)), sale.CostPrice.String())
	assert.True(t, sale.Profit.Equal(decimal.NewFromInt(60)), sale.Profit.String())
	assert.Equal(t, 2, sale.Quantity)
}

func TestOfferLive(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	assert.True(t, (&Offer{Active: true}).Live(now))
	assert.False(t, (&Offer{Active: true, ValidUntil: &past}).Live(now))
	assert.False(t, (&Offer{Active: false}).Live(now))
}
