package service

import (
	"context"
	"errors"
	"time"

	"scannimart/internal/model"
	"scannimart/internal/repository"
	"scannimart/pkg/logger"
	"scannimart/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OutcomeKind string

const (
	OutcomeGranted         OutcomeKind = "granted"
	OutcomePaymentRequired OutcomeKind = "payment_required"
	OutcomeAlreadyUsed     OutcomeKind = "already_used"
	OutcomePaymentPending  OutcomeKind = "payment_pending"
	OutcomeNotFound        OutcomeKind = "not_found"
)

// Severity is the colour class the gate screen renders the outcome with.
func (k OutcomeKind) Severity() string {
	switch k {
	case OutcomeGranted:
		return "success"
	case OutcomePaymentRequired:
		return "info"
	case OutcomeAlreadyUsed:
		return "danger"
	case OutcomePaymentPending:
		return "warning"
	default:
		return "error"
	}
}

func (k OutcomeKind) Message() string {
	switch k {
	case OutcomeGranted:
		return "Exit granted"
	case OutcomePaymentRequired:
		return "Collect payment before releasing the customer"
	case OutcomeAlreadyUsed:
		return "This pass has already been used"
	case OutcomePaymentPending:
		return "Order is not eligible for exit yet"
	default:
		return "No order matches this code"
	}
}

type OrderSummary struct {
	ID                  uuid.UUID              `json:"id"`
	ReadableID          string                 `json:"readable_id"`
	Status              model.OrderStatus      `json:"status"`
	PaymentMethod       model.PaymentMethod    `json:"payment_method"`
	TotalAmount         decimal.Decimal        `json:"total_amount"`
	Items               []model.OrderItem      `json:"items"`
	TotalExpectedWeight float64                `json:"total_expected_weight"`
	CustomerDetails     *model.CustomerDetails `json:"customer_details,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	VerifiedAt          *time.Time             `json:"verified_at,omitempty"`
}

func NewOrderSummary(order *model.Order) *OrderSummary {
	return &OrderSummary{
		ID:                  order.ID,
		ReadableID:          order.ReadableID,
		Status:              order.Status,
		PaymentMethod:       order.PaymentMethod,
		TotalAmount:         order.TotalAmount,
		Items:               order.Items,
		TotalExpectedWeight: order.TotalExpectedWeight(),
		CustomerDetails:     order.CustomerDetails,
		CreatedAt:           order.CreatedAt,
		VerifiedAt:          order.VerifiedAt,
	}
}

// VerificationOutcome is the tagged result of presenting an exit pass.
// Order is set for granted and payment_required, and for already_used so
// the agent can see when the pass was redeemed.
type VerificationOutcome struct {
	Kind  OutcomeKind     `json:"outcome"`
	Order *OrderSummary   `json:"order,omitempty"`
	Risk  *RiskAssessment `json:"risk,omitempty"`
}

type VerificationService interface {
	Submit(ctx context.Context, identifier string, confirmPayment bool) (*VerificationOutcome, error)
	Verify(ctx context.Context, order *model.Order, confirmPayment bool) (*VerificationOutcome, error)
}

type verificationService struct {
	resolver  IdentifierResolver
	orderRepo repository.OrderRepository
	risk      *RiskClassifier
	publisher Publisher
	metrics   *metrics.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewVerificationService(resolver IdentifierResolver, orderRepo repository.OrderRepository, risk *RiskClassifier, publisher Publisher, m *metrics.Metrics, log *logger.Logger) VerificationService {
	if log == nil {
		log = logger.Nop()
	}
	if risk == nil {
		risk = NewRiskClassifier(DefaultRiskPolicy())
	}
	return &verificationService{
		resolver:  resolver,
		orderRepo: orderRepo,
		risk:      risk,
		publisher: publisherOrNop(publisher),
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// Submit resolves the identifier and runs the exit decision. An unknown code
// is an outcome, not an error; only store failures and lost races are errors.
func (s *verificationService) Submit(ctx context.Context, identifier string, confirmPayment bool) (*VerificationOutcome, error) {
	order, err := s.resolver.Resolve(ctx, identifier)
	if errors.Is(err, ErrOrderNotFound) {
		s.log.Info(s.log.WithField(ctx, "identifier", identifier), "exit pass not found")
		s.metrics.GateOutcome(string(OutcomeNotFound))
		return &VerificationOutcome{Kind: OutcomeNotFound}, nil
	}
	if err != nil {
		s.log.Error(ctx, "resolve exit pass", err)
		return nil, err
	}
	return s.Verify(ctx, order, confirmPayment)
}

// Verify applies the exit state machine to order. Writes are conditional on
// the status the decision was taken from; if another gate wins the race the
// order is reloaded and the decision taken once more.
func (s *verificationService) Verify(ctx context.Context, order *model.Order, confirmPayment bool) (*VerificationOutcome, error) {
	ctx = s.log.WithOrderID(ctx, order.ID.String())

	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			fresh, err := s.orderRepo.FindByID(ctx, order.ID)
			if err != nil {
				s.log.Error(ctx, "reload order after lost transition", err)
				return nil, storeErr("reload order", err)
			}
			order = fresh
		}

		outcome, change, from := s.decide(order, confirmPayment)
		if change == nil {
			s.finish(ctx, outcome)
			return outcome, nil
		}

		moved, err := s.orderRepo.TransitionStatus(ctx, order.ID, from, *change)
		if err != nil {
			s.log.Error(ctx, "transition order status", err)
			return nil, storeErr("transition order status", err)
		}
		if !moved {
			s.log.Warn(ctx, "order status changed underneath verification, retrying")
			continue
		}

		order.Status = change.Status
		if change.PaymentMethod != "" {
			order.PaymentMethod = change.PaymentMethod
		}
		at := change.At
		order.VerifiedAt = &at
		order.UpdatedAt = at

		outcome.Order = NewOrderSummary(order)
		publishOrderStatus(s.publisher, order, at)
		s.finish(ctx, outcome)
		return outcome, nil
	}

	s.metrics.GateOutcome("conflict")
	return nil, ErrConflict
}

// decide returns the outcome for order as it stands and, when the outcome
// requires a write, the change and the statuses it may be applied from.
func (s *verificationService) decide(order *model.Order, confirmPayment bool) (*VerificationOutcome, *repository.StatusChange, []model.OrderStatus) {
	switch {
	case order.Status == model.StatusVerified:
		return &VerificationOutcome{Kind: OutcomeAlreadyUsed, Order: NewOrderSummary(order)}, nil, nil

	case order.Status == model.StatusPendingPayment && !confirmPayment:
		risk := s.risk.Classify(order)
		return &VerificationOutcome{Kind: OutcomePaymentRequired, Order: NewOrderSummary(order), Risk: &risk}, nil, nil

	case order.Status == model.StatusPendingPayment:
		risk := s.risk.Classify(order)
		return &VerificationOutcome{Kind: OutcomeGranted, Risk: &risk},
			&repository.StatusChange{Status: model.StatusVerified, PaymentMethod: model.PaymentCash, At: s.now()},
			[]model.OrderStatus{model.StatusPendingPayment}

	case order.Status.AwaitingExit():
		risk := s.risk.Classify(order)
		return &VerificationOutcome{Kind: OutcomeGranted, Risk: &risk},
			&repository.StatusChange{Status: model.StatusVerified, At: s.now()},
			[]model.OrderStatus{model.StatusPaid, model.StatusPending}

	default:
		return &VerificationOutcome{Kind: OutcomePaymentPending, Order: NewOrderSummary(order)}, nil, nil
	}
}

func (s *verificationService) finish(ctx context.Context, outcome *VerificationOutcome) {
	s.metrics.GateOutcome(string(outcome.Kind))
	ctx = s.log.WithField(ctx, "outcome", string(outcome.Kind))
	switch outcome.Kind {
	case OutcomeAlreadyUsed, OutcomePaymentPending:
		s.log.Warn(ctx, "exit pass rejected")
	default:
		s.log.Info(ctx, "exit pass processed")
	}
}

// orderFromSummary rebuilds the order fields a gate session needs.
func orderFromSummary(sum *OrderSummary) *model.Order {
	order := &model.Order{
		ReadableID:      sum.ReadableID,
		Items:           sum.Items,
		TotalAmount:     sum.TotalAmount,
		Status:          sum.Status,
		PaymentMethod:   sum.PaymentMethod,
		CustomerDetails: sum.CustomerDetails,
		VerifiedAt:      sum.VerifiedAt,
	}
	order.ID = sum.ID
	order.CreatedAt = sum.CreatedAt
	return order
}
