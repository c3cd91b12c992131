package service

import (
	"context"

	"scannimart/internal/repository"
)

// PassView is what the customer's exit pass screen shows.
type PassView struct {
	*OrderSummary
	QRCodeString string `json:"qr_code_string"`
}

type OrderService interface {
	GetPass(ctx context.Context, identifier string) (*PassView, error)
	Recent(ctx context.Context, limit int) ([]OrderSummary, error)
}

type orderService struct {
	resolver  IdentifierResolver
	orderRepo repository.OrderRepository
}

func NewOrderService(resolver IdentifierResolver, orderRepo repository.OrderRepository) OrderService {
	return &orderService{resolver: resolver, orderRepo: orderRepo}
}

func (s *orderService) GetPass(ctx context.Context, identifier string) (*PassView, error) {
	order, err := s.resolver.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return &PassView{OrderSummary: NewOrderSummary(order), QRCodeString: order.QRCodeString}, nil
}

func (s *orderService) Recent(ctx context.Context, limit int) ([]OrderSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	orders, err := s.orderRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	out := make([]OrderSummary, len(orders))
	for i := range orders {
		out[i] = *NewOrderSummary(&orders[i])
	}
	return out, nil
}
