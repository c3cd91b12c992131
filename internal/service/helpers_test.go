package service

import (
	"context"
	"sync"
	"testing"

	"scannimart/internal/model"
	"scannimart/internal/repository"
	"scannimart/internal/storetest"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string, _ []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

func (p *recordingPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}

type repos struct {
	db       *gorm.DB
	products repository.ProductRepository
	orders   repository.OrderRepository
	sales    repository.SaleRepository
	offers   repository.OfferRepository
}

func newRepos(t *testing.T) repos {
	db := storetest.NewDB(t)
	return repos{
		db:       db,
		products: repository.NewProductRepo(db),
		orders:   repository.NewOrderRepo(db),
		sales:    repository.NewSaleRepo(db),
		offers:   repository.NewOfferRepo(db),
	}
}

func mustProduct(t *testing.T, r repos, name, barcode string, price int64, stock int, weight float64) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Barcode: barcode, Price: decimal.NewFromInt(price), Stock: stock, Weight: weight}
	require.NoError(t, r.products.Create(context.Background(), p))
	return p
}

func mustOrder(t *testing.T, r repos, readable string, status model.OrderStatus, items ...model.OrderItem) *model.Order {
	t.Helper()
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	order := &model.Order{
		ReadableID:    readable,
		QRCodeString:  NewPassToken(),
		Items:         items,
		TotalAmount:   total,
		Status:        status,
		PaymentMethod: model.PaymentUPI,
	}
	if status == model.StatusPendingPayment {
		order.PaymentMethod = model.PaymentCash
	}
	require.NoError(t, r.orders.Create(context.Background(), order))
	return order
}

func line(name, barcode string, price int64, qty int, weight float64) model.OrderItem {
	return model.OrderItem{
		ProductID: uuid.NewString(),
		Barcode:   barcode,
		Name:      name,
		Price:     decimal.NewFromInt(price),
		Quantity:  qty,
		Weight:    weight,
	}
}
