package service

import (
	"testing"

	"scannimart/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsampledOrder builds an order whose id escapes the random audit draw.
func unsampledOrder(t *testing.T, total string, items ...model.OrderItem) *model.Order {
	t.Helper()
	order := &model.Order{Items: items, TotalAmount: decimal.RequireFromString(total)}
	for i := 0; i < 1000; i++ {
		id := uuid.New()
		if !AuditSampled(id.String(), DefaultRiskPolicy().AuditSampleRate) {
			order.ID = id
			return order
		}
	}
	t.Fatal("no unsampled id found")
	return nil
}

func TestRiskBoundaries(t *testing.T) {
	c := NewRiskClassifier(DefaultRiskPolicy())
	one := line("Tea", "111", 10, 1, 0)

	assert.Equal(t, RiskLow, c.Classify(unsampledOrder(t, "999.99", one)).Level)
	assert.Equal(t, RiskMedium, c.Classify(unsampledOrder(t, "1000.01", one)).Level)
	assert.Equal(t, RiskMedium, c.Classify(unsampledOrder(t, "4999.99", one)).Level)
	assert.Equal(t, RiskHigh, c.Classify(unsampledOrder(t, "5000", one)).Level)
	assert.Equal(t, RiskLow, c.Classify(unsampledOrder(t, "1000", one)).Level)
}

func TestRiskItemCountFallback(t *testing.T) {
	c := NewRiskClassifier(DefaultRiskPolicy())
	var items []model.OrderItem
	for i := 0; i < 6; i++ {
		items = append(items, line("Item", "", 10, 1, 0))
	}

	got := c.Classify(unsampledOrder(t, "999.99", items...))
	assert.Equal(t, RiskMedium, got.Level)
	assert.Equal(t, "item_count", got.Reason)

	got = c.Classify(unsampledOrder(t, "999.99", items[:5]...))
	assert.Equal(t, RiskLow, got.Level)
}

func TestSpotCheckPicksFirstMostExpensive(t *testing.T) {
	c := NewRiskClassifier(DefaultRiskPolicy())
	cheap := line("Gum", "1", 5, 1, 0)
	first := line("Headphones", "2", 900, 1, 0)
	second := line("Speaker", "3", 900, 1, 0)

	got := c.Classify(unsampledOrder(t, "1805", cheap, first, second))
	require.Equal(t, RiskMedium, got.Level)
	require.NotNil(t, got.SpotCheckItem)
	assert.Equal(t, "Headphones", got.SpotCheckItem.Name)
}

func TestRandomAuditIsStable(t *testing.T) {
	key := uuid.NewString()
	first := AuditSampled(key, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, AuditSampled(key, 10))
	}
	assert.False(t, AuditSampled(key, 0))
	assert.True(t, AuditSampled(key, 100))
}

func TestRandomAuditEscalatesToHigh(t *testing.T) {
	c := NewRiskClassifier(DefaultRiskPolicy())
	order := &model.Order{Items: []model.OrderItem{line("Tea", "1", 10, 1, 0)}, TotalAmount: decimal.NewFromInt(10)}
	for i := 0; i < 1000; i++ {
		id := uuid.New()
		if AuditSampled(id.String(), 10) {
			order.ID = id
			break
		}
	}
	require.NotEqual(t, uuid.Nil, order.ID)

	got := c.Classify(order)
	assert.Equal(t, RiskHigh, got.Level)
	assert.Equal(t, "random_audit", got.Reason)
	assert.Equal(t, got, c.Classify(order))
}
