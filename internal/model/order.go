package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusVerified       OrderStatus = "verified"

	// StatusPending is a legacy literal from an older schema. It means the
	// same thing as StatusPaid.
	StatusPending OrderStatus = "pending"
)

// AwaitingExit reports whether the pass can be redeemed without collecting money.
func (s OrderStatus) AwaitingExit() bool {
	return s == StatusPaid || s == StatusPending
}

type PaymentMethod string

const (
	PaymentUPI    PaymentMethod = "UPI"
	PaymentCash   PaymentMethod = "CASH"
	PaymentManual PaymentMethod = "Manual"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentUPI, PaymentCash, PaymentManual:
		return true
	}
	return false
}

// InitialStatus is paid for instant (simulated) methods and pending_payment for cash.
func (m PaymentMethod) InitialStatus() OrderStatus {
	if m == PaymentCash {
		return StatusPendingPayment
	}
	return StatusPaid
}

type CustomerDetails struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

type VariantSnapshot struct {
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Weight *float64        `json:"weight,omitempty"`
}

// OrderItem is a snapshot taken at checkout. It never follows later catalog edits.
type OrderItem struct {
	ID        string           `json:"id,omitempty"`
	ProductID string           `json:"product_id,omitempty"`
	Barcode   string           `json:"barcode,omitempty"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Quantity  int              `json:"quantity"`
	Weight    float64          `json:"weight"`
	Variant   *VariantSnapshot `json:"variant,omitempty"`
}

// Key is the audit identity of the line: id, then product id, then name.
func (i OrderItem) Key() string {
	switch {
	case i.ID != "":
		return i.ID
	case i.ProductID != "":
		return i.ProductID
	default:
		return i.Name
	}
}

// LineTotal is price x quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	BaseModel
	ReadableID      string           `gorm:"type:varchar(6);uniqueIndex;not null" json:"readable_id"`
	QRCodeString    string           `gorm:"type:varchar(128);uniqueIndex;not null" json:"qr_code_string"`
	Items           []OrderItem      `gorm:"serializer:json;type:jsonb;not null" json:"items"`
	TotalAmount     decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status          OrderStatus      `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod   PaymentMethod    `gorm:"type:varchar(10);not null" json:"payment_method"`
	CustomerDetails *CustomerDetails `gorm:"serializer:json;type:jsonb" json:"customer_details,omitempty"`
	VerifiedAt      *time.Time       `json:"verified_at,omitempty"`
}

// TotalExpectedWeight sums weight x quantity over all lines, in grams.
func (o *Order) TotalExpectedWeight() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Weight * float64(item.Quantity)
	}
	return total
}

// DistinctItemCount counts the distinct audit keys on the order.
func (o *Order) DistinctItemCount() int {
	seen := make(map[string]struct{}, len(o.Items))
	for _, item := range o.Items {
		seen[item.Key()] = struct{}{}
	}
	return len(seen)
}
