package service

import (
	"context"
	"time"

	"scannimart/internal/model"
	"scannimart/internal/repository"
)

type SalesOverview struct {
	Summary  *repository.SalesSummary `json:"summary"`
	TopItems []repository.TopItem     `json:"top_items"`
	Daily    []repository.DailySales  `json:"daily"`
}

type DashboardService interface {
	GetOverview(ctx context.Context, days int) (*SalesOverview, error)
	GetRecentSales(ctx context.Context, limit int) ([]model.Sale, error)
}

type dashboardService struct {
	saleRepo repository.SaleRepository
	now      func() time.Time
}

func NewDashboardService(saleRepo repository.SaleRepository) DashboardService {
	return &dashboardService{saleRepo: saleRepo, now: time.Now}
}

func (s *dashboardService) GetOverview(ctx context.Context, days int) (*SalesOverview, error) {
	if days <= 0 {
		days = 7
	}
	endDate := s.now()
	startDate := endDate.AddDate(0, 0, -days)

	summary, err := s.saleRepo.Summary(ctx, startDate, endDate)
	if err != nil {
		return nil, storeErr("sales summary", err)
	}
	top, err := s.saleRepo.TopItems(ctx, startDate, endDate, 5)
	if err != nil {
		return nil, storeErr("top items", err)
	}
	daily, err := s.saleRepo.Daily(ctx, startDate, endDate)
	if err != nil {
		return nil, storeErr("daily sales", err)
	}
	return &SalesOverview{Summary: summary, TopItems: top, Daily: daily}, nil
}

func (s *dashboardService) GetRecentSales(ctx context.Context, limit int) ([]model.Sale, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	sales, err := s.saleRepo.FindAll(ctx, limit)
	if err != nil {
		return nil, storeErr("recent sales", err)
	}
	return sales, nil
}
