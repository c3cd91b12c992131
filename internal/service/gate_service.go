package service

import (
	"context"
	"errors"
	"time"

	"scannimart/pkg/logger"
	"scannimart/pkg/metrics"

	"github.com/google/uuid"
)

// GateResult pairs the exit decision with the session opened for it, if any.
type GateResult struct {
	Outcome *VerificationOutcome `json:"outcome"`
	Session *SessionView         `json:"session,omitempty"`
}

// SessionView is the session as the gate screen renders it.
type SessionView struct {
	*VerificationSession
	Progress       float64 `json:"progress"`
	ExpectedWeight float64 `json:"expected_weight"`
}

func viewOf(s *VerificationSession) *SessionView {
	return &SessionView{VerificationSession: s, Progress: s.Progress(), ExpectedWeight: s.Order.TotalExpectedWeight()}
}

type ScanOutcome struct {
	Scan    ScanResult   `json:"scan"`
	Session *SessionView `json:"session"`
}

type WeightOutcome struct {
	Matched bool         `json:"matched"`
	Session *SessionView `json:"session"`
}

type ReconcileOutcome struct {
	Detected []DetectedItem       `json:"detected"`
	Flags    []ReconciliationFlag `json:"flags"`
	Session  *SessionView         `json:"session"`
}

// GateService drives a security agent's workflow across requests: submit a
// pass, audit items, take payment, then complete or reset.
type GateService interface {
	Submit(ctx context.Context, identifier string, confirmPayment bool) (*GateResult, error)
	Session(ctx context.Context, sessionID string) (*SessionView, error)
	ScanItem(ctx context.Context, sessionID, code string) (*ScanOutcome, error)
	QuickVerify(ctx context.Context, sessionID string) (*SessionView, error)
	RecordWeight(ctx context.Context, sessionID string, grams float64) (*WeightOutcome, error)
	ConfirmPayment(ctx context.Context, sessionID string) (*GateResult, error)
	Reconcile(ctx context.Context, sessionID string, image []byte, mimeType string) (*ReconcileOutcome, error)
	Complete(ctx context.Context, sessionID string) (*AuditReport, error)
	Reset(ctx context.Context, sessionID string) error
}

type gateService struct {
	verification VerificationService
	sessions     SessionStore
	ai           AIService
	tolerance    WeightTolerance
	metrics      *metrics.Metrics
	log          *logger.Logger
	now          func() time.Time
}

func NewGateService(verification VerificationService, sessions SessionStore, ai AIService, tolerance WeightTolerance, m *metrics.Metrics, log *logger.Logger) GateService {
	if log == nil {
		log = logger.Nop()
	}
	return &gateService{
		verification: verification,
		sessions:     sessions,
		ai:           ai,
		tolerance:    tolerance,
		metrics:      m,
		log:          log,
		now:          time.Now,
	}
}

func (s *gateService) Submit(ctx context.Context, identifier string, confirmPayment bool) (*GateResult, error) {
	outcome, err := s.verification.Submit(ctx, identifier, confirmPayment)
	if err != nil {
		return nil, err
	}
	result := &GateResult{Outcome: outcome}
	if outcome.Kind != OutcomeGranted && outcome.Kind != OutcomePaymentRequired {
		return result, nil
	}

	session := NewVerificationSession(uuid.NewString(), orderFromSummary(outcome.Order), riskOrZero(outcome.Risk), outcome.Kind == OutcomePaymentRequired, s.now())
	if err := s.sessions.Save(ctx, session); err != nil {
		s.log.Error(ctx, "save gate session", err)
		return nil, storeErr("save gate session", err)
	}
	result.Session = viewOf(session)
	return result, nil
}

func (s *gateService) Session(ctx context.Context, sessionID string) (*SessionView, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return viewOf(session), nil
}

func (s *gateService) ScanItem(ctx context.Context, sessionID, code string) (*ScanOutcome, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	scan := session.MarkItemByScan(code)
	s.metrics.ItemScan(string(scan.Result))
	if scan.Result == ScanExtraItem {
		s.log.Warn(s.log.WithField(s.log.WithOrderID(ctx, session.Order.ID.String()), "code", code), "extra item detected at gate")
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return &ScanOutcome{Scan: scan, Session: viewOf(session)}, nil
}

func (s *gateService) QuickVerify(ctx context.Context, sessionID string) (*SessionView, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.QuickVerifyAll()
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return viewOf(session), nil
}

func (s *gateService) RecordWeight(ctx context.Context, sessionID string, grams float64) (*WeightOutcome, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	matched := session.RecordWeight(grams, s.tolerance)
	if !matched {
		s.log.Warn(s.log.WithOrderID(ctx, session.Order.ID.String()), "trolley weight outside tolerance")
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return &WeightOutcome{Matched: matched, Session: viewOf(session)}, nil
}

// ConfirmPayment records cash collection for a session opened on a
// payment_required outcome. The order is re-read so a stale session cannot
// verify twice.
func (s *gateService) ConfirmPayment(ctx context.Context, sessionID string) (*GateResult, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	outcome, err := s.verification.Submit(ctx, session.Order.ID.String(), true)
	if err != nil {
		return nil, err
	}
	if outcome.Order != nil {
		session.Order = orderFromSummary(outcome.Order)
	}
	if outcome.Kind == OutcomeGranted {
		session.PaymentPending = false
		if outcome.Risk != nil {
			session.Risk = *outcome.Risk
		}
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return &GateResult{Outcome: outcome, Session: viewOf(session)}, nil
}

func (s *gateService) Reconcile(ctx context.Context, sessionID string, image []byte, mimeType string) (*ReconcileOutcome, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}
	detected, err := s.ai.DetectItems(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}
	flags := ReconcileTrolley(session.Order.Items, detected)
	session.Flags = flags
	if len(flags) > 0 {
		s.log.Warn(s.log.WithOrderID(ctx, session.Order.ID.String()), "trolley reconciliation raised flags")
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return &ReconcileOutcome{Detected: detected, Flags: flags, Session: viewOf(session)}, nil
}

func (s *gateService) Complete(ctx context.Context, sessionID string) (*AuditReport, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	report := session.Report(s.tolerance, s.now())
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return nil, storeErr("delete gate session", err)
	}
	s.log.Info(s.log.WithOrderID(ctx, report.OrderID), "gate session completed")
	return &report, nil
}

func (s *gateService) Reset(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return storeErr("delete gate session", err)
	}
	return nil
}

func (s *gateService) load(ctx context.Context, sessionID string) (*VerificationSession, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		s.log.Error(ctx, "load gate session", err)
		return nil, storeErr("load gate session", err)
	}
	return session, nil
}

func (s *gateService) save(ctx context.Context, session *VerificationSession) error {
	if err := s.sessions.Save(ctx, session); err != nil {
		s.log.Error(ctx, "save gate session", err)
		return storeErr("save gate session", err)
	}
	return nil
}

func riskOrZero(r *RiskAssessment) RiskAssessment {
	if r == nil {
		return RiskAssessment{}
	}
	return *r
}
