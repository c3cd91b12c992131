package service

import "scannimart/internal/model"

type FlagType string

const (
	FlagMissingFromBill  FlagType = "MISSING_FROM_BILL"
	FlagQuantityMismatch FlagType = "QUANTITY_MISMATCH"
)

const SeverityHigh = "HIGH"

// DetectedItem is one entry of the vision model's answer.
type DetectedItem struct {
	Barcode    string  `json:"barcode"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

type ReconciliationFlag struct {
	Type     FlagType `json:"type"`
	Barcode  string   `json:"barcode"`
	Name     string   `json:"name"`
	Detected int      `json:"detected"`
	Billed   int      `json:"billed"`
	Severity string   `json:"severity"`
}

// ReconcileTrolley compares what the camera saw with what was billed, per
// barcode. Only surplus is flagged: an item seen but not billed, or seen
// more times than billed. Under-detection is treated as a vision miss.
func ReconcileTrolley(billed []model.OrderItem, detected []DetectedItem) []ReconciliationFlag {
	billedQty := make(map[string]int)
	for _, item := range billed {
		if item.Barcode == "" {
			continue
		}
		billedQty[item.Barcode] += item.Quantity
	}

	var order []string
	detectedQty := make(map[string]int)
	names := make(map[string]string)
	for _, d := range detected {
		if d.Barcode == "" {
			continue
		}
		if _, ok := detectedQty[d.Barcode]; !ok {
			order = append(order, d.Barcode)
			names[d.Barcode] = d.Name
		}
		detectedQty[d.Barcode] += d.Quantity
	}

	flags := []ReconciliationFlag{}
	for _, barcode := range order {
		seen := detectedQty[barcode]
		onBill := billedQty[barcode]
		switch {
		case onBill == 0 && seen > 0:
			flags = append(flags, ReconciliationFlag{
				Type: FlagMissingFromBill, Barcode: barcode, Name: names[barcode],
				Detected: seen, Billed: 0, Severity: SeverityHigh,
			})
		case seen > onBill:
			flags = append(flags, ReconciliationFlag{
				Type: FlagQuantityMismatch, Barcode: barcode, Name: names[barcode],
				Detected: seen, Billed: onBill, Severity: SeverityHigh,
			})
		}
	}
	return flags
}
