package service

import (
	"context"
	"errors"
	"time"

	"scannimart/internal/model"
	"scannimart/internal/repository"
	"scannimart/pkg/logger"
	"scannimart/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryService interface {
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	CreateProduct(ctx context.Context, req *model.Product, userID string) error
	UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, userID string) (*model.Product, error)
	SetStock(ctx context.Context, id uuid.UUID, stock int, userID string) (*model.Product, error)

	GetLiveOffers(ctx context.Context) ([]model.Offer, error)
	CreateOffer(ctx context.Context, req *model.Offer, userID string) error
	DeleteOffer(ctx context.Context, id uuid.UUID) error
}

// UpdateProductRequest is a partial update; nil fields are left alone.
type UpdateProductRequest struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	Barcode  *string          `json:"barcode,omitempty" validate:"omitempty,barcode"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Stock    *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Weight   *float64         `json:"weight,omitempty" validate:"omitempty,gte=0"`
	Category *string          `json:"category,omitempty"`
	ImageURL *string          `json:"image_url,omitempty"`
	Variants *[]model.Variant `json:"variants,omitempty"`
}

type inventoryService struct {
	productRepo repository.ProductRepository
	offerRepo   repository.OfferRepository
	db          *gorm.DB
	publisher   Publisher
	log         *logger.Logger
}

func NewInventoryService(productRepo repository.ProductRepository, offerRepo repository.OfferRepository, db *gorm.DB, publisher Publisher, log *logger.Logger) InventoryService {
	if log == nil {
		log = logger.Nop()
	}
	return &inventoryService{
		productRepo: productRepo,
		offerRepo:   offerRepo,
		db:          db,
		publisher:   publisherOrNop(publisher),
		log:         log,
	}
}

func (s *inventoryService) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, storeErr("list products", err)
	}
	return products, nil
}

func (s *inventoryService) GetProductByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	product, err := s.productRepo.FindByBarcode(ctx, barcode)
	if repository.IsNotFound(err) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, storeErr("find product by barcode", err)
	}
	return product, nil
}

func (s *inventoryService) CreateProduct(ctx context.Context, req *model.Product, userID string) error {
	if req.Price.IsNegative() {
		return errors.New("validation failed: field 'Product.Price' failed on tag 'gte'")
	}
	if err := validator.Check(req); err != nil {
		return err
	}

	existing, err := s.productRepo.FindByBarcode(ctx, req.Barcode)
	if err != nil && !repository.IsNotFound(err) {
		return storeErr("check barcode", err)
	}
	if existing != nil {
		return ErrBarcodeExists
	}

	req.CreatedBy = userID
	req.UpdatedBy = userID
	if err := s.productRepo.Create(ctx, req); err != nil {
		// Lost a race with another create on the same barcode.
		if repository.IsUniqueViolation(err) {
			return ErrBarcodeExists
		}
		return storeErr("create product", err)
	}

	s.log.Info(s.log.WithField(ctx, "barcode", req.Barcode), "product created")
	publishStock(s.publisher, "product_created", req)
	return nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, userID string) (*model.Product, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, errors.New("validation failed: field 'UpdateProductRequest.Price' failed on tag 'gte'")
	}

	var updated *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		existing, err := products.FindByID(ctx, id)
		if repository.IsNotFound(err) {
			return ErrProductNotFound
		}
		if err != nil {
			return storeErr("load product", err)
		}

		if req.Barcode != nil && *req.Barcode != existing.Barcode {
			other, err := products.FindByBarcode(ctx, *req.Barcode)
			if err != nil && !repository.IsNotFound(err) {
				return storeErr("check barcode", err)
			}
			if other != nil {
				return ErrBarcodeExists
			}
		}

		applyProductUpdate(existing, req)
		existing.UpdatedBy = userID
		existing.UpdatedAt = time.Now()
		if err := products.Update(ctx, existing); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrBarcodeExists
			}
			return storeErr("update product", err)
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishStock(s.publisher, "product_updated", updated)
	return updated, nil
}

// SetStock overwrites the counted stock after a shelf audit or delivery.
func (s *inventoryService) SetStock(ctx context.Context, id uuid.UUID, stock int, userID string) (*model.Product, error) {
	if stock < 0 {
		return nil, errors.New("validation failed: stock must not be negative")
	}
	err := s.productRepo.UpdateFields(ctx, id, map[string]interface{}{
		"stock":      stock,
		"updated_by": userID,
		"updated_at": time.Now(),
	})
	if repository.IsNotFound(err) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, storeErr("set stock", err)
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("reload product", err)
	}
	publishStock(s.publisher, "stock_set", product)
	return product, nil
}

func applyProductUpdate(p *model.Product, req *UpdateProductRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Barcode != nil {
		p.Barcode = *req.Barcode
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Weight != nil {
		p.Weight = *req.Weight
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if req.Variants != nil {
		p.Variants = *req.Variants
	}
}

func (s *inventoryService) GetLiveOffers(ctx context.Context) ([]model.Offer, error) {
	offers, err := s.offerRepo.FindLive(ctx, time.Now())
	if err != nil {
		return nil, storeErr("list offers", err)
	}
	return offers, nil
}

func (s *inventoryService) CreateOffer(ctx context.Context, req *model.Offer, userID string) error {
	if err := validator.Check(req); err != nil {
		return err
	}
	if req.ProductID != nil {
		if _, err := s.productRepo.FindByID(ctx, *req.ProductID); repository.IsNotFound(err) {
			return ErrProductNotFound
		} else if err != nil {
			return storeErr("check offer product", err)
		}
	}
	req.Active = true
	req.CreatedBy = userID
	req.UpdatedBy = userID
	if err := s.offerRepo.Create(ctx, req); err != nil {
		return storeErr("create offer", err)
	}
	return nil
}

func (s *inventoryService) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	err := s.offerRepo.Delete(ctx, id)
	if repository.IsNotFound(err) {
		return ErrOfferNotFound
	}
	if err != nil {
		return storeErr("delete offer", err)
	}
	return nil
}
