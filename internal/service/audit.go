package service

import (
	"math"
	"time"

	"scannimart/internal/model"
)

type ScanResultKind string

const (
	ScanMatched   ScanResultKind = "matched"
	ScanExtraItem ScanResultKind = "extra_item_detected"
)

type ScanResult struct {
	Result   ScanResultKind `json:"result"`
	Code     string         `json:"code"`
	ItemKey  string         `json:"item_key,omitempty"`
	ItemName string         `json:"item_name,omitempty"`
	Warning  string         `json:"warning,omitempty"`
}

// WeightTolerance accepts a measured weight within Rate of the expected
// weight plus Absolute grams of scale noise.
type WeightTolerance struct {
	Rate     float64
	Absolute float64
}

func DefaultWeightTolerance() WeightTolerance {
	return WeightTolerance{Rate: 0.10, Absolute: 50}
}

// Matches is vacuously true when the order carries no weight data.
func (t WeightTolerance) Matches(expected, actual float64) bool {
	if expected == 0 {
		return true
	}
	return math.Abs(expected-actual) <= expected*t.Rate+t.Absolute
}

// WeightMatches uses the default tolerance of 10% + 50g.
func WeightMatches(expected, actual float64) bool {
	return DefaultWeightTolerance().Matches(expected, actual)
}

// VerificationSession is one gate agent's working state for one customer.
// It is owned by whoever holds it and is not safe for concurrent use.
type VerificationSession struct {
	ID               string               `json:"id"`
	Order            *model.Order         `json:"order"`
	VerifiedItemKeys map[string]bool      `json:"verified_item_keys"`
	MeasuredWeight   *float64             `json:"measured_weight,omitempty"`
	Risk             RiskAssessment       `json:"risk"`
	PaymentPending   bool                 `json:"payment_pending"`
	ExtraScans       []string             `json:"extra_scans,omitempty"`
	Flags            []ReconciliationFlag `json:"flags,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

func NewVerificationSession(id string, order *model.Order, risk RiskAssessment, paymentPending bool, now time.Time) *VerificationSession {
	return &VerificationSession{
		ID:               id,
		Order:            order,
		VerifiedItemKeys: make(map[string]bool),
		Risk:             risk,
		PaymentPending:   paymentPending,
		CreatedAt:        now,
	}
}

// MarkItemByScan verifies the first not-yet-verified line whose barcode, id
// or product id equals code. A code that matches no unverified line leaves the
// verified set untouched and reports an extra item; a repeat of a verified
// line names it, since it usually means a second unit on the trolley.
func (s *VerificationSession) MarkItemByScan(code string) ScanResult {
	s.ensureKeys()
	if code == "" {
		return s.extra(code)
	}

	var repeated *model.OrderItem
	for _, item := range s.Order.Items {
		if !itemAnswersTo(item, code) {
			continue
		}
		key := item.Key()
		if s.VerifiedItemKeys[key] {
			if repeated == nil {
				repeated = &item
			}
			continue
		}
		s.VerifiedItemKeys[key] = true
		return ScanResult{Result: ScanMatched, Code: code, ItemKey: key, ItemName: item.Name}
	}

	if repeated != nil {
		result := s.extra(code)
		result.ItemKey = repeated.Key()
		result.ItemName = repeated.Name
		result.Warning = repeated.Name + " was already verified; check for an extra unit"
		return result
	}
	return s.extra(code)
}

func (s *VerificationSession) extra(code string) ScanResult {
	s.ExtraScans = append(s.ExtraScans, code)
	return ScanResult{
		Result:  ScanExtraItem,
		Code:    code,
		Warning: "Scanned item is not on this bill",
	}
}

func itemAnswersTo(item model.OrderItem, code string) bool {
	return (item.Barcode != "" && item.Barcode == code) ||
		(item.ID != "" && item.ID == code) ||
		(item.ProductID != "" && item.ProductID == code)
}

// QuickVerifyAll is the LOW risk fast path.
func (s *VerificationSession) QuickVerifyAll() {
	s.markAll()
}

// WeightVerifyAll is the weight-match fast path.
func (s *VerificationSession) WeightVerifyAll() {
	s.markAll()
}

// RecordWeight stores the measured weight and, if it is within tolerance of
// the expected weight, marks every item verified. It reports the match.
func (s *VerificationSession) RecordWeight(actual float64, tolerance WeightTolerance) bool {
	s.MeasuredWeight = &actual
	if !tolerance.Matches(s.Order.TotalExpectedWeight(), actual) {
		return false
	}
	s.WeightVerifyAll()
	return true
}

func (s *VerificationSession) markAll() {
	s.ensureKeys()
	for _, item := range s.Order.Items {
		s.VerifiedItemKeys[item.Key()] = true
	}
}

// Progress is the verified share of distinct items, 0-100. It is for
// display only.
func (s *VerificationSession) Progress() float64 {
	total := s.Order.DistinctItemCount()
	if total == 0 {
		return 100
	}
	verified := 0
	seen := make(map[string]bool, total)
	for _, item := range s.Order.Items {
		key := item.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		if s.VerifiedItemKeys[key] {
			verified++
		}
	}
	return float64(verified) / float64(total) * 100
}

func (s *VerificationSession) ensureKeys() {
	if s.VerifiedItemKeys == nil {
		s.VerifiedItemKeys = make(map[string]bool)
	}
}

// AuditReport is what the gate keeps once the customer has left.
type AuditReport struct {
	SessionID      string               `json:"session_id"`
	OrderID        string               `json:"order_id"`
	ReadableID     string               `json:"readable_id"`
	RiskLevel      RiskLevel            `json:"risk_level"`
	Progress       float64              `json:"progress"`
	VerifiedItems  []string             `json:"verified_items"`
	UnverifiedKeys []string             `json:"unverified_items"`
	ExtraScans     []string             `json:"extra_scans,omitempty"`
	Flags          []ReconciliationFlag `json:"flags,omitempty"`
	ExpectedWeight float64              `json:"expected_weight"`
	MeasuredWeight *float64             `json:"measured_weight,omitempty"`
	WeightMatched  *bool                `json:"weight_matched,omitempty"`
	Duration       time.Duration        `json:"duration_ns"`
}

func (s *VerificationSession) Report(tolerance WeightTolerance, now time.Time) AuditReport {
	report := AuditReport{
		SessionID:      s.ID,
		OrderID:        s.Order.ID.String(),
		ReadableID:     s.Order.ReadableID,
		RiskLevel:      s.Risk.Level,
		Progress:       s.Progress(),
		ExtraScans:     s.ExtraScans,
		Flags:          s.Flags,
		ExpectedWeight: s.Order.TotalExpectedWeight(),
		MeasuredWeight: s.MeasuredWeight,
		Duration:       now.Sub(s.CreatedAt),
	}
	seen := make(map[string]bool)
	for _, item := range s.Order.Items {
		key := item.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		if s.VerifiedItemKeys[key] {
			report.VerifiedItems = append(report.VerifiedItems, key)
		} else {
			report.UnverifiedKeys = append(report.UnverifiedKeys, key)
		}
	}
	if s.MeasuredWeight != nil {
		matched := tolerance.Matches(report.ExpectedWeight, *s.MeasuredWeight)
		report.WeightMatched = &matched
	}
	return report
}
