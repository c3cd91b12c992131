package repository

import (
	"context"
	"strings"
	"time"

	"scannimart/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByReadableID(ctx context.Context, code string) (*model.Order, error)
	FindByQRCode(ctx context.Context, token string) (*model.Order, error)
	FindRecent(ctx context.Context, limit int) ([]model.Order, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from []model.OrderStatus, to StatusChange) (bool, error)
}

// StatusChange is the write half of a conditional status transition.
type StatusChange struct {
	Status        model.OrderStatus
	PaymentMethod model.PaymentMethod // left untouched when empty
	At            time.Time
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepo{tx}
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByReadableID matches the 6-character code, uppercased, limit 1.
func (r *orderRepo) FindByReadableID(ctx context.Context, code string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("readable_id = ?", strings.ToUpper(code)).
		Limit(1).
		Find(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &order, nil
}

func (r *orderRepo) FindByQRCode(ctx context.Context, token string) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, "qr_code_string = ?", token).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindRecent(ctx context.Context, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

// TransitionStatus is a compare-and-swap on status: the row is written only if
// its current status is still one of from. It reports whether the row moved.
func (r *orderRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from []model.OrderStatus, to StatusChange) (bool, error) {
	fields := map[string]interface{}{
		"status":     to.Status,
		"updated_at": to.At,
	}
	if to.PaymentMethod != "" {
		fields["payment_method"] = to.PaymentMethod
	}
	if to.Status == model.StatusVerified {
		fields["verified_at"] = to.At
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
