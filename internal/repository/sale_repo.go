package repository

import (
	"context"
	"time"

	"scannimart/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateMany(ctx context.Context, sales []model.Sale) error
	FindAll(ctx context.Context, limit int) ([]model.Sale, error)
	Summary(ctx context.Context, start, end time.Time) (*SalesSummary, error)
	TopItems(ctx context.Context, start, end time.Time, limit int) ([]TopItem, error)
	Daily(ctx context.Context, start, end time.Time) ([]DailySales, error)
}

type SalesSummary struct {
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Profit  decimal.Decimal `json:"profit"`
	Units   int64           `json:"units"`
	Lines   int64           `json:"lines"`
}

type TopItem struct {
	ItemName string          `json:"item_name"`
	Sold     int64           `json:"sold"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type DailySales struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) CreateMany(ctx context.Context, sales []model.Sale) error {
	if len(sales) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&sales).Error
}

// FindAll returns sales newest first. limit <= 0 means no limit.
func (r *saleRepo) FindAll(ctx context.Context, limit int) ([]model.Sale, error) {
	var sales []model.Sale
	q := r.db.WithContext(ctx).Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&sales).Error
	return sales, err
}

func (r *saleRepo) Summary(ctx context.Context, start, end time.Time) (*SalesSummary, error) {
	var row struct {
		Revenue   float64
		Cost      float64
		Profit    float64
		Units     int64
		LineCount int64
	}
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select(`
			COALESCE(SUM(selling_price * quantity), 0) AS revenue,
			COALESCE(SUM(cost_price * quantity), 0) AS cost,
			COALESCE(SUM(profit), 0) AS profit,
			COALESCE(SUM(quantity), 0) AS units,
			COUNT(*) AS line_count
		`).
		Where("date BETWEEN ? AND ?", start, end).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &SalesSummary{
		Revenue: decimal.NewFromFloat(row.Revenue).Round(2),
		Cost:    decimal.NewFromFloat(row.Cost).Round(2),
		Profit:  decimal.NewFromFloat(row.Profit).Round(2),
		Units:   row.Units,
		Lines:   row.LineCount,
	}, nil
}

func (r *saleRepo) TopItems(ctx context.Context, start, end time.Time, limit int) ([]TopItem, error) {
	var rows []struct {
		ItemName string
		Sold     int64
		Revenue  float64
	}
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("item_name, SUM(quantity) AS sold, SUM(selling_price * quantity) AS revenue").
		Where("date BETWEEN ? AND ?", start, end).
		Group("item_name").
		Order("sold DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]TopItem, len(rows))
	for i, row := range rows {
		items[i] = TopItem{ItemName: row.ItemName, Sold: row.Sold, Revenue: decimal.NewFromFloat(row.Revenue).Round(2)}
	}
	return items, nil
}

func (r *saleRepo) Daily(ctx context.Context, start, end time.Time) ([]DailySales, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select(`
			DATE(date) AS day,
			COALESCE(SUM(selling_price * quantity), 0) AS revenue,
			COALESCE(SUM(profit), 0) AS profit
		`).
		Where("date BETWEEN ? AND ?", start, end).
		Group("DATE(date)").
		Order("day ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DailySales
	for rows.Next() {
		var day string
		var revenue, profit float64
		if err := rows.Scan(&day, &revenue, &profit); err != nil {
			return nil, err
		}
		if len(day) > 10 {
			day = day[:10]
		}
		results = append(results, DailySales{
			Date:    day,
			Revenue: decimal.NewFromFloat(revenue).Round(2),
			Profit:  decimal.NewFromFloat(profit).Round(2),
		})
	}
	return results, rows.Err()
}
