package service

import (
	"hash/fnv"

	"scannimart/internal/model"

	"github.com/shopspring/decimal"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskAssessment is advisory guidance for the gate agent. It never gates
// the status transition.
type RiskAssessment struct {
	Level         RiskLevel        `json:"level"`
	Advice        string           `json:"advice"`
	Reason        string           `json:"reason"`
	SpotCheckItem *model.OrderItem `json:"spot_check_item,omitempty"`
}

type RiskPolicy struct {
	HighAmount      decimal.Decimal // HIGH at or above
	MediumAmount    decimal.Decimal // MEDIUM strictly above
	MediumItemCount int             // MEDIUM when the order has more lines than this
	AuditSampleRate int             // percent of orders escalated to HIGH at random
}

func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		HighAmount:      decimal.NewFromInt(5000),
		MediumAmount:    decimal.NewFromInt(1000),
		MediumItemCount: 5,
		AuditSampleRate: 10,
	}
}

type RiskClassifier struct {
	policy RiskPolicy
}

func NewRiskClassifier(policy RiskPolicy) *RiskClassifier {
	return &RiskClassifier{policy: policy}
}

func (c *RiskClassifier) Classify(order *model.Order) RiskAssessment {
	switch {
	case order.TotalAmount.GreaterThanOrEqual(c.policy.HighAmount):
		return RiskAssessment{
			Level:  RiskHigh,
			Advice: "Scan every item before releasing the customer.",
			Reason: "high_value",
		}
	case AuditSampled(order.ID.String(), c.policy.AuditSampleRate):
		return RiskAssessment{
			Level:  RiskHigh,
			Advice: "Random audit: scan every item before releasing the customer.",
			Reason: "random_audit",
		}
	}

	byAmount := order.TotalAmount.GreaterThan(c.policy.MediumAmount)
	if byAmount || len(order.Items) > c.policy.MediumItemCount {
		reason := "item_count"
		if byAmount {
			reason = "medium_value"
		}
		assessment := RiskAssessment{
			Level:  RiskMedium,
			Advice: "Spot-check the highlighted item; the rest may pass once it is confirmed.",
			Reason: reason,
		}
		if item, ok := mostExpensiveItem(order.Items); ok {
			assessment.SpotCheckItem = &item
			assessment.Advice = "Spot-check " + item.Name + "; the rest may pass once it is confirmed."
		}
		return assessment
	}

	return RiskAssessment{
		Level:  RiskLow,
		Advice: "Confirm the item count visually, then quick-verify.",
		Reason: "low_value",
	}
}

// AuditSampled is a stable pseudo-random draw: the same key and rate always
// give the same answer.
func AuditSampled(key string, ratePercent int) bool {
	if ratePercent <= 0 {
		return false
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()%100) < ratePercent
}

// mostExpensiveItem returns the highest-priced line; the first one wins ties.
func mostExpensiveItem(items []model.OrderItem) (model.OrderItem, bool) {
	if len(items) == 0 {
		return model.OrderItem{}, false
	}
	best := items[0]
	for _, item := range items[1:] {
		if item.Price.GreaterThan(best.Price) {
			best = item
		}
	}
	return best, true
}
