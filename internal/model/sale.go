package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Synthetic margin used for analytics: cost is 70% of the selling price.
var CostRatio = decimal.NewFromFloat(0.7)

// Sale is one analytics row per order line, appended at checkout.
type Sale struct {
	BaseModel
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID    string          `gorm:"type:varchar(64)" json:"product_id"`
	ItemName     string          `gorm:"type:varchar(255);not null" json:"item_name"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	SellingPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"selling_price"`
	CostPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"cost_price"`
	Profit       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"profit"`
	Date         time.Time       `gorm:"not null;index" json:"date"`
}

// NewSale derives the analytics row for one order line.
func NewSale(orderID uuid.UUID, item OrderItem, at time.Time) Sale {
	qty := decimal.NewFromInt(int64(item.Quantity))
	cost := item.Price.Mul(CostRatio).Round(2)
	return Sale{
		OrderID:      orderID,
		ProductID:    item.ProductID,
		ItemName:     item.Name,
		Quantity:     item.Quantity,
		SellingPrice: item.Price,
		CostPrice:    cost,
		Profit:       item.Price.Sub(cost).Mul(qty),
		Date:         at,
	}
}
