package service

import (
	"testing"

	"scannimart/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityMismatch(t *testing.T) {
	billed := []model.OrderItem{line("Apple", "apple", 10, 2, 0)}
	flags := ReconcileTrolley(billed, []DetectedItem{{Barcode: "apple", Name: "Apple", Quantity: 3}})

	require.Len(t, flags, 1)
	assert.Equal(t, FlagQuantityMismatch, flags[0].Type)
	assert.Equal(t, 3, flags[0].Detected)
	assert.Equal(t, 2, flags[0].Billed)
	assert.Equal(t, SeverityHigh, flags[0].Severity)
}

func TestMissingFromBill(t *testing.T) {
	billed := []model.OrderItem{line("Apple", "apple", 10, 2, 0)}
	flags := ReconcileTrolley(billed, []DetectedItem{{Barcode: "unknown", Name: "Mystery", Quantity: 1}})

	require.Len(t, flags, 1)
	assert.Equal(t, FlagMissingFromBill, flags[0].Type)
	assert.Equal(t, 0, flags[0].Billed)
	assert.Equal(t, SeverityHigh, flags[0].Severity)
}

func TestUnderDetectionIsNotFlagged(t *testing.T) {
	billed := []model.OrderItem{
		line("Apple", "apple", 10, 3, 0),
		line("Milk", "milk", 10, 1, 0),
	}
	flags := ReconcileTrolley(billed, []DetectedItem{{Barcode: "apple", Quantity: 1}})
	assert.Empty(t, flags)
}

func TestBilledAndDetectedQuantitiesAccumulate(t *testing.T) {
	billed := []model.OrderItem{
		line("Apple", "apple", 10, 1, 0),
		line("Apple", "apple", 10, 1, 0),
	}
	detected := []DetectedItem{
		{Barcode: "apple", Quantity: 1},
		{Barcode: "apple", Quantity: 1},
	}
	assert.Empty(t, ReconcileTrolley(billed, detected))

	detected = append(detected, DetectedItem{Barcode: "apple", Quantity: 1})
	flags := ReconcileTrolley(billed, detected)
	require.Len(t, flags, 1)
	assert.Equal(t, 3, flags[0].Detected)
	assert.Equal(t, 2, flags[0].Billed)
}
