package repository

import (
	"context"
	"testing"
	"time"

	"scannimart/internal/model"
	"scannimart/internal/storetest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(readable string, status model.OrderStatus) *model.Order {
	return &model.Order{
		ReadableID:    readable,
		QRCodeString:  uuid.NewString(),
		Items:         []model.OrderItem{{ProductID: "p1", Name: "Tea", Price: decimal.NewFromInt(40), Quantity: 2, Weight: 250}},
		TotalAmount:   decimal.NewFromInt(80),
		Status:        status,
		PaymentMethod: model.PaymentUPI,
	}
}

func TestOrderLookups(t *testing.T) {
	repo := NewOrderRepo(storetest.NewDB(t))
	ctx := context.Background()
	order := newOrder("AB12CD", model.StatusPaid)
	require.NoError(t, repo.Create(ctx, order))

	byCode, err := repo.FindByReadableID(ctx, "ab12cd")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byCode.ID)
	require.Len(t, byCode.Items, 1)
	assert.Equal(t, 250.0, byCode.Items[0].Weight)

	byToken, err := repo.FindByQRCode(ctx, order.QRCodeString)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byToken.ID)

	_, err = repo.FindByReadableID(ctx, "ZZZZZZ")
	assert.True(t, IsNotFound(err))
}

func TestReadableIDUnique(t *testing.T) {
	repo := NewOrderRepo(storetest.NewDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newOrder("AB12CD", model.StatusPaid)))

	err := repo.Create(ctx, newOrder("AB12CD", model.StatusPaid))
	assert.True(t, IsUniqueViolation(err), "%v", err)
}

func TestTransitionStatusIsConditional(t *testing.T) {
	repo := NewOrderRepo(storetest.NewDB(t))
	ctx := context.Background()
	order := newOrder("AB12CD", model.StatusPaid)
	require.NoError(t, repo.Create(ctx, order))

	from := []model.OrderStatus{model.StatusPaid, model.StatusPending}
	moved, err := repo.TransitionStatus(ctx, order.ID, from, StatusChange{Status: model.StatusVerified, At: time.Now()})
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.TransitionStatus(ctx, order.ID, from, StatusChange{Status: model.StatusVerified, At: time.Now()})
	require.NoError(t, err)
	assert.False(t, moved)

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, got.Status)
	assert.NotNil(t, got.VerifiedAt)
}

func TestTransitionStatusSetsPaymentMethod(t *testing.T) {
	repo := NewOrderRepo(storetest.NewDB(t))
	ctx := context.Background()
	order := newOrder("CASH01", model.StatusPendingPayment)
	order.PaymentMethod = model.PaymentCash
	require.NoError(t, repo.Create(ctx, order))

	moved, err := repo.TransitionStatus(ctx, order.ID,
		[]model.OrderStatus{model.StatusPendingPayment},
		StatusChange{Status: model.StatusVerified, PaymentMethod: model.PaymentManual, At: time.Now()})
	require.NoError(t, err)
	assert.True(t, moved)

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentManual, got.PaymentMethod)
}
