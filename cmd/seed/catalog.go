package main

import (
	"context"
	"fmt"

	"scannimart/internal/model"
	"scannimart/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func grams(v float64) *float64 { return &v }

// demoCatalog is the catalog a fresh store demo starts with.
func demoCatalog() []model.Product {
	return []model.Product{
		{Name: "Amul Butter 100g", Barcode: "8901262150019", Price: decimal.NewFromInt(56), Stock: 40, Weight: 100, Category: "Dairy"},
		{Name: "Amul Taaza Milk 1L", Barcode: "8901262011013", Price: decimal.NewFromInt(68), Stock: 60, Weight: 1030, Category: "Dairy"},
		{Name: "Britannia Good Day", Barcode: "8901063010338", Price: decimal.NewFromInt(30), Stock: 80, Weight: 120, Category: "Snacks"},
		{Name: "Maggi Noodles 4-pack", Barcode: "8901058851298", Price: decimal.NewFromInt(56), Stock: 50, Weight: 280, Category: "Instant Food"},
		{Name: "Tata Salt 1kg", Barcode: "8904043901015", Price: decimal.NewFromInt(28), Stock: 70, Weight: 1000, Category: "Staples"},
		{Name: "Basmati Rice", Barcode: "8906001230017", Price: decimal.NewFromInt(120), Stock: 30, Weight: 1000, Category: "Staples",
			Variants: []model.Variant{
				{Name: "1kg", Price: decimal.NewFromInt(120), Weight: grams(1000)},
				{Name: "5kg", Price: decimal.NewFromInt(560), Weight: grams(5000)},
			}},
		{Name: "Dove Soap 100g", Barcode: "8901030704314", Price: decimal.NewFromInt(52), Stock: 45, Weight: 100, Category: "Personal Care"},
		{Name: "Sony Headphones", Barcode: "4548736132610", Price: decimal.NewFromInt(5990), Stock: 5, Weight: 250, Category: "Electronics"},
	}
}

// resetCatalog replaces every product with products in one transaction.
func resetCatalog(ctx context.Context, db *gorm.DB, productRepo repository.ProductRepository, products []model.Product) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := productRepo.WithTx(tx)
		if err := repo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear products: %w", err)
		}
		for i := range products {
			products[i].CreatedBy = "seed"
			products[i].UpdatedBy = "seed"
			if err := repo.Create(ctx, &products[i]); err != nil {
				return fmt.Errorf("insert %s: %w", products[i].Barcode, err)
			}
		}
		return nil
	})
}
