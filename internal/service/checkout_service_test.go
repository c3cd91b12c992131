package service

import (
	"context"
	"errors"
	"testing"

	"scannimart/internal/model"
	"scannimart/internal/repository"
	"scannimart/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckout(r repos, pub Publisher) *checkoutService {
	return NewCheckoutService(r.db, r.products, r.orders, r.sales, pub, nil, nil).(*checkoutService)
}

func countOrders(t *testing.T, r repos) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func TestCheckoutOutOfStockIsAllOrNothing(t *testing.T) {
	r := newRepos(t)
	svc := newCheckout(r, nil)
	ctx := context.Background()
	a := mustProduct(t, r, "Product A", "AAA111", 20, 5, 100)
	b := mustProduct(t, r, "Product B", "BBB222", 40, 0, 100)

	_, err := svc.Checkout(ctx, &CheckoutRequest{
		Items:         []CartLine{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 1}},
		PaymentMethod: model.PaymentUPI,
	})

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "Product B", oos.ProductName)
	assert.Equal(t, 0, oos.Remaining)
	assert.Contains(t, err.Error(), "Product B")

	assert.Equal(t, int64(0), countOrders(t, r))
	got, err := r.products.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestCheckoutSuccess(t *testing.T) {
	r := newRepos(t)
	pub := &recordingPublisher{}
	svc := newCheckout(r, pub)
	ctx := context.Background()
	a := mustProduct(t, r, "Product A", "AAA111", 20, 10, 150)

	order, err := svc.Checkout(ctx, &CheckoutRequest{
		Items:         []CartLine{{ProductID: a.ID, Quantity: 3}},
		PaymentMethod: model.PaymentUPI,
		Customer:      &model.CustomerDetails{Name: "Asha", Email: "asha@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPaid, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(60)), order.TotalAmount.String())
	assert.Len(t, order.ReadableID, 6)
	assert.Equal(t, IdentifierShortCode, ClassifyIdentifier(order.ReadableID).Kind)
	assert.Equal(t, IdentifierOpaqueToken, ClassifyIdentifier(order.QRCodeString).Kind)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "AAA111", order.Items[0].Barcode)
	assert.Equal(t, 450.0, order.TotalExpectedWeight())

	got, err := r.products.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)

	stored, err := r.orders.FindByReadableID(ctx, order.ReadableID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
	require.NotNil(t, stored.CustomerDetails)
	assert.Equal(t, "Asha", stored.CustomerDetails.Name)

	sales, err := r.sales.FindAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 3, sales[0].Quantity)
	assert.Equal(t, order.ID, sales[0].OrderID)

	assert.Equal(t, 1, pub.count(ws.TopicInventory))
	assert.Equal(t, 1, pub.count(ws.OrderTopic(order.ID.String())))
}

func TestCheckoutCashAwaitsPayment(t *testing.T) {
	r := newRepos(t)
	svc := newCheckout(r, nil)
	a := mustProduct(t, r, "Product A", "AAA111", 20, 10, 0)

	order, err := svc.Checkout(context.Background(), &CheckoutRequest{
		Items:         []CartLine{{ProductID: a.ID, Quantity: 1}},
		PaymentMethod: model.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingPayment, order.Status)
}

func TestCheckoutProductNotFound(t *testing.T) {
	r := newRepos(t)
	svc := newCheckout(r, nil)

	_, err := svc.Checkout(context.Background(), &CheckoutRequest{
		Items:         []CartLine{{ProductID: uuid.New(), Name: "Ghost Pepper", Quantity: 1}},
		PaymentMethod: model.PaymentUPI,
	})

	var notFound *ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Ghost Pepper", notFound.Item)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCheckoutCombinesQuantitiesPerProduct(t *testing.T) {
	r := newRepos(t)
	svc := newCheckout(r, nil)
	a := mustProduct(t, r, "Product A", "AAA111", 20, 3, 0)

	_, err := svc.Checkout(context.Background(), &CheckoutRequest{
		Items:         []CartLine{{ProductID: a.ID, Quantity: 2}, {ProductID: a.ID, Quantity: 2}},
		PaymentMethod: model.PaymentUPI,
	})
	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, 3, oos.Remaining)
}

func TestCheckoutVariant(t *testing.T) {
	r := newRepos(t)
	svc := newCheckout(r, nil)
	ctx := context.Background()
	heavy := 900.0
	p := &model.Product{
		Name: "Coffee", Barcode: "COF001", Price: decimal.NewFromInt(100), Stock: 10, Weight: 250,
		Variants: []model.Variant{
			{Name: "Large", Price: decimal.NewFromInt(300), Weight: &heavy},
			{Name: "Medium", Price: decimal.NewFromInt(180)},
		},
	}
	require.NoError(t, r.products.Create(ctx, p))

	order, err := svc.Checkout(ctx, &CheckoutRequest{
		Items: []CartLine{
			{ProductID: p.ID, Quantity: 1, Variant: "large"},
			{ProductID: p.ID, Quantity: 2, Variant: "Medium"},
		},
		PaymentMethod: model.PaymentUPI,
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	assert.Equal(t, "Coffee (Large)", order.Items[0].Name)
	assert.Equal(t, 900.0, order.Items[0].Weight)
	assert.Equal(t, 250.0, order.Items[1].Weight)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(660)), order.TotalAmount.String())
	assert.NotEqual(t, order.Items[0].Key(), order.Items[1].Key())

	_, err = svc.Checkout(ctx, &CheckoutRequest{
		Items:         []CartLine{{ProductID: p.ID, Quantity: 1, Variant: "Decaf"}},
		PaymentMethod: model.PaymentUPI,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCheckoutRetriesReadableCollision(t *testing.T) {
	r := newRepos(t)
	svc := newCheckout(r, nil)
	a := mustProduct(t, r, "Product A", "AAA111", 20, 10, 0)
	mustOrder(t, r, "TAKEN1", model.StatusPaid, line("Old", "x", 1, 1, 0))

	codes := []string{"TAKEN1", "TAKEN1", "FRESH1"}
	svc.newReadableID = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	order, err := svc.Checkout(context.Background(), &CheckoutRequest{
		Items:         []CartLine{{ProductID: a.ID, Quantity: 1}},
		PaymentMethod: model.PaymentUPI,
	})
	require.NoError(t, err)
	assert.Equal(t, "FRESH1", order.ReadableID)
	assert.Equal(t, int64(2), countOrders(t, r))
}

func TestCheckoutGivesUpAfterRepeatedCollisions(t *testing.T) {
	r := newRepos(t)
	svc := newCheckout(r, nil)
	ctx := context.Background()
	a := mustProduct(t, r, "Product A", "AAA111", 20, 10, 0)
	mustOrder(t, r, "TAKEN1", model.StatusPaid, line("Old", "x", 1, 1, 0))
	svc.newReadableID = func() (string, error) { return "TAKEN1", nil }

	_, err := svc.Checkout(ctx, &CheckoutRequest{
		Items:         []CartLine{{ProductID: a.ID, Quantity: 1}},
		PaymentMethod: model.PaymentUPI,
	})
	assert.ErrorIs(t, err, ErrIdentifierExhausted)

	got, err := r.products.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
}

type failingSales struct{ repository.SaleRepository }

func (failingSales) CreateMany(context.Context, []model.Sale) error {
	return errors.New("analytics down")
}

func TestSalesFailureDoesNotFailCheckout(t *testing.T) {
	r := newRepos(t)
	a := mustProduct(t, r, "Product A", "AAA111", 20, 10, 0)
	svc := NewCheckoutService(r.db, r.products, r.orders, failingSales{}, nil, nil, nil)

	order, err := svc.Checkout(context.Background(), &CheckoutRequest{
		Items:         []CartLine{{ProductID: a.ID, Quantity: 1}},
		PaymentMethod: model.PaymentUPI,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, order.ID)
}

func TestCheckoutRejectsBadRequests(t *testing.T) {
	r := newRepos(t)
	svc := newCheckout(r, nil)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, &CheckoutRequest{PaymentMethod: model.PaymentUPI})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.Checkout(ctx, &CheckoutRequest{
		Items:         []CartLine{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: model.PaymentMethod("CARD"),
	})
	assert.ErrorIs(t, err, ErrInvalidPayment)

	_, err = svc.Checkout(ctx, &CheckoutRequest{
		Items:         []CartLine{{ProductID: uuid.New(), Quantity: 0}},
		PaymentMethod: model.PaymentUPI,
	})
	assert.Error(t, err)
}

func TestNewReadableIDShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewReadableID()
		require.NoError(t, err)
		assert.Regexp(t, `^[A-Z0-9]{6}$`, code)
	}
}
