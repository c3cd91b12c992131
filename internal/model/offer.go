package model

import (
	"time"

	"github.com/google/uuid"
)

type Offer struct {
	BaseModel
	Title           string     `gorm:"type:varchar(255);not null" json:"title" validate:"required"`
	Description     string     `gorm:"type:text" json:"description"`
	DiscountPercent int        `gorm:"not null;default:0" json:"discount_percent" validate:"gte=0,lte=100"`
	ProductID       *uuid.UUID `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Active          bool       `gorm:"default:true" json:"active"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
}

// Live reports whether the offer should be shown at time now.
func (o *Offer) Live(now time.Time) bool {
	if !o.Active {
		return false
	}
	return o.ValidUntil == nil || o.ValidUntil.After(now)
}
