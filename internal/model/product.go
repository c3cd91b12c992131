package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Variant is an optional sub-SKU of a product. A nil Weight falls back to the
// base product weight.
type Variant struct {
	Name   string          `json:"name" validate:"required"`
	Price  decimal.Decimal `json:"price"`
	Weight *float64        `json:"weight,omitempty"`
}

type Product struct {
	BaseModel
	Name     string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Barcode  string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"barcode" validate:"required,barcode"`
	Price    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	Stock    int             `gorm:"not null;default:0" json:"stock" validate:"gte=0"`
	Weight   float64         `gorm:"not null;default:0" json:"weight" validate:"gte=0"` // grams
	Category string          `gorm:"type:varchar(100)" json:"category"`
	ImageURL string          `gorm:"type:text" json:"image_url"`
	Variants []Variant       `gorm:"serializer:json;type:jsonb" json:"variants" validate:"dive"`
}

// FindVariant looks a variant up by name, case-insensitively.
func (p *Product) FindVariant(name string) (*Variant, bool) {
	for i := range p.Variants {
		if strings.EqualFold(p.Variants[i].Name, name) {
			return &p.Variants[i], true
		}
	}
	return nil, false
}
