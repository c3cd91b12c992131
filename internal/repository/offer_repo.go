package repository

import (
	"context"
	"time"

	"scannimart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfferRepository interface {
	Create(ctx context.Context, offer *model.Offer) error
	FindLive(ctx context.Context, now time.Time) ([]model.Offer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type offerRepo struct {
	db *gorm.DB
}

func NewOfferRepo(db *gorm.DB) OfferRepository {
	return &offerRepo{db}
}

func (r *offerRepo) Create(ctx context.Context, offer *model.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *offerRepo) FindLive(ctx context.Context, now time.Time) ([]model.Offer, error) {
	var offers []model.Offer
	err := r.db.WithContext(ctx).
		Where("active = ? AND (valid_until IS NULL OR valid_until > ?)", true, now).
		Order("created_at DESC").
		Find(&offers).Error
	return offers, err
}

func (r *offerRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Offer{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
