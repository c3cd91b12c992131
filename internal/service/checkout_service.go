package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"scannimart/internal/model"
	"scannimart/internal/repository"
	"scannimart/pkg/logger"
	"scannimart/pkg/metrics"
	"scannimart/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	readableIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	readableIDLength   = 6
	maxIDAttempts      = 5
)

var ErrIdentifierExhausted = errors.New("could not mint a unique order code")

type CartLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Name      string    `json:"name,omitempty"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
	Variant   string    `json:"variant,omitempty"`
}

type CheckoutRequest struct {
	Items         []CartLine             `json:"items" validate:"required,min=1,dive"`
	PaymentMethod model.PaymentMethod    `json:"payment_method" validate:"required"`
	Customer      *model.CustomerDetails `json:"customer_details,omitempty" validate:"omitempty"`
}

type CheckoutService interface {
	Checkout(ctx context.Context, req *CheckoutRequest) (*model.Order, error)
}

type checkoutService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	saleRepo    repository.SaleRepository
	publisher   Publisher
	metrics     *metrics.Metrics
	log         *logger.Logger
	now         func() time.Time

	newReadableID func() (string, error)
	newToken      func() string
}

func NewCheckoutService(db *gorm.DB, productRepo repository.ProductRepository, orderRepo repository.OrderRepository, saleRepo repository.SaleRepository, publisher Publisher, m *metrics.Metrics, log *logger.Logger) CheckoutService {
	if log == nil {
		log = logger.Nop()
	}
	return &checkoutService{
		db:            db,
		productRepo:   productRepo,
		orderRepo:     orderRepo,
		saleRepo:      saleRepo,
		publisher:     publisherOrNop(publisher),
		metrics:       m,
		log:           log,
		now:           time.Now,
		newReadableID: NewReadableID,
		newToken:      NewPassToken,
	}
}

type pricedLine struct {
	product *model.Product
	item    model.OrderItem
}

// Checkout prices the cart against the live catalog and, if every line can
// be filled, creates the order and takes the stock in one transaction.
// Validation failures leave the store untouched.
func (s *checkoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*model.Order, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if !req.PaymentMethod.Valid() {
		return nil, ErrInvalidPayment
	}
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	var (
		order *model.Order
		lines []pricedLine
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		orders := s.orderRepo.WithTx(tx)

		var err error
		lines, err = s.priceCart(ctx, products, req.Items)
		if err != nil {
			return err
		}

		order = &model.Order{
			Status:          req.PaymentMethod.InitialStatus(),
			PaymentMethod:   req.PaymentMethod,
			CustomerDetails: req.Customer,
			TotalAmount:     decimal.Zero,
		}
		for _, line := range lines {
			order.Items = append(order.Items, line.item)
			order.TotalAmount = order.TotalAmount.Add(line.item.LineTotal())
		}

		if err := s.insertWithFreshCodes(ctx, tx, orders, order); err != nil {
			return err
		}

		for _, line := range lines {
			ok, err := products.DecrementStock(ctx, line.product.ID, line.item.Quantity)
			if err != nil {
				return storeErr("decrement stock", err)
			}
			if !ok {
				// Another checkout took the stock after we read it.
				current, err := products.FindByID(ctx, line.product.ID)
				if err != nil {
					return storeErr("reload product", err)
				}
				return &OutOfStockError{ProductName: current.Name, Remaining: current.Stock}
			}
			line.product.Stock -= line.item.Quantity
		}
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, req, err)
		return nil, err
	}

	ctx = s.log.WithOrderID(ctx, order.ID.String())
	s.metrics.Checkout("created", string(order.PaymentMethod))
	s.log.Info(ctx, "order created")

	s.appendSales(ctx, order)
	for _, line := range lines {
		publishStock(s.publisher, "stock_sold", line.product)
	}
	publishOrderStatus(s.publisher, order, order.CreatedAt)

	return order, nil
}

// priceCart resolves every line against the catalog and checks stock for the
// combined quantity per product, before anything is written.
func (s *checkoutService) priceCart(ctx context.Context, products repository.ProductRepository, cart []CartLine) ([]pricedLine, error) {
	byID := make(map[uuid.UUID]*model.Product)
	wanted := make(map[uuid.UUID]int)
	lines := make([]pricedLine, 0, len(cart))

	for _, line := range cart {
		product, ok := byID[line.ProductID]
		if !ok {
			p, err := products.FindByID(ctx, line.ProductID)
			if repository.IsNotFound(err) {
				name := line.Name
				if name == "" {
					name = line.ProductID.String()
				}
				return nil, &ProductNotFoundError{Item: name}
			}
			if err != nil {
				return nil, storeErr("load product", err)
			}
			product = p
			byID[line.ProductID] = p
		}

		item, err := snapshotItem(product, line)
		if err != nil {
			return nil, err
		}

		wanted[product.ID] += line.Quantity
		if product.Stock < wanted[product.ID] {
			return nil, &OutOfStockError{ProductName: product.Name, Remaining: product.Stock}
		}
		lines = append(lines, pricedLine{product: product, item: item})
	}
	return lines, nil
}

func snapshotItem(product *model.Product, line CartLine) (model.OrderItem, error) {
	item := model.OrderItem{
		ProductID: product.ID.String(),
		Barcode:   product.Barcode,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  line.Quantity,
		Weight:    product.Weight,
	}
	if line.Variant == "" {
		return item, nil
	}

	variant, ok := product.FindVariant(line.Variant)
	if !ok {
		return model.OrderItem{}, &ProductNotFoundError{Item: fmt.Sprintf("%s (%s)", product.Name, line.Variant)}
	}
	weight := product.Weight
	if variant.Weight != nil {
		weight = *variant.Weight
	}
	item.ID = product.ID.String() + ":" + strings.ToLower(variant.Name)
	item.Name = fmt.Sprintf("%s (%s)", product.Name, variant.Name)
	item.Price = variant.Price
	item.Weight = weight
	item.Variant = &model.VariantSnapshot{Name: variant.Name, Price: variant.Price, Weight: variant.Weight}
	return item, nil
}

// insertWithFreshCodes mints a readable code and pass token and inserts the
// order, retrying on a unique collision. Each attempt runs in a savepoint so
// a failed insert does not poison the surrounding transaction.
func (s *checkoutService) insertWithFreshCodes(ctx context.Context, tx *gorm.DB, orders repository.OrderRepository, order *model.Order) error {
	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		code, err := s.newReadableID()
		if err != nil {
			return err
		}
		order.ReadableID = code
		order.QRCodeString = s.newToken()

		err = tx.Transaction(func(sp *gorm.DB) error {
			return orders.WithTx(sp).Create(ctx, order)
		})
		if err == nil {
			return nil
		}
		if !repository.IsUniqueViolation(err) {
			return storeErr("insert order", err)
		}
		s.log.Warn(s.log.WithField(ctx, "attempt", attempt), "order code collision, minting another")
	}
	return ErrIdentifierExhausted
}

// appendSales writes analytics rows. Failure is logged and swallowed: the
// order already exists.
func (s *checkoutService) appendSales(ctx context.Context, order *model.Order) {
	at := order.CreatedAt
	if at.IsZero() {
		at = s.now()
	}
	sales := make([]model.Sale, len(order.Items))
	for i, item := range order.Items {
		sales[i] = model.NewSale(order.ID, item, at)
	}
	if err := s.saleRepo.CreateMany(ctx, sales); err != nil {
		s.log.Error(ctx, "record sales", err)
	}
}

func (s *checkoutService) recordFailure(ctx context.Context, req *CheckoutRequest, err error) {
	var (
		oos      *OutOfStockError
		notFound *ProductNotFoundError
	)
	switch {
	case errors.As(err, &oos):
		s.metrics.Checkout("out_of_stock", string(req.PaymentMethod))
		s.log.Info(s.log.WithField(ctx, "product", oos.ProductName), "checkout rejected: out of stock")
	case errors.As(err, &notFound):
		s.metrics.Checkout("product_not_found", string(req.PaymentMethod))
		s.log.Info(s.log.WithField(ctx, "product", notFound.Item), "checkout rejected: product not found")
	default:
		s.metrics.Checkout("error", string(req.PaymentMethod))
		s.log.Error(ctx, "checkout failed", err)
	}
}

// NewReadableID draws 6 characters from [A-Z0-9].
func NewReadableID() (string, error) {
	limit := big.NewInt(int64(len(readableIDAlphabet)))
	b := make([]byte, readableIDLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = readableIDAlphabet[n.Int64()]
	}
	return string(b), nil
}

// NewPassToken is the opaque QR payload. It never looks like an order id or
// a short code.
func NewPassToken() string {
	return "SCN-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
