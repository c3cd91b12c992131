package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scannimart/internal/repository"
	"scannimart/pkg/logger"
	"scannimart/pkg/metrics"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ContentGenerator is the slice of *genai.GenerativeModel the assistant uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// NewGeminiModel opens a client for the configured model. The caller closes
// the client on shutdown.
func NewGeminiModel(ctx context.Context, apiKey, modelName string) (*genai.Client, *genai.GenerativeModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, nil, err
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	return client, model, nil
}

type AIService interface {
	DetectItems(ctx context.Context, image []byte, mimeType string) ([]DetectedItem, error)
	Chat(ctx context.Context, question string) (string, error)
}

type aiService struct {
	model       ContentGenerator
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	metrics     *metrics.Metrics
	log         *logger.Logger
}

// NewAIService accepts a nil model; every call then fails with ErrAIUnavailable.
func NewAIService(model ContentGenerator, productRepo repository.ProductRepository, saleRepo repository.SaleRepository, m *metrics.Metrics, log *logger.Logger) AIService {
	if log == nil {
		log = logger.Nop()
	}
	return &aiService{model: model, productRepo: productRepo, saleRepo: saleRepo, metrics: m, log: log}
}

type catalogEntry struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
}

func (s *aiService) DetectItems(ctx context.Context, image []byte, mimeType string) ([]DetectedItem, error) {
	if s.model == nil {
		return nil, ErrAIUnavailable
	}

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, storeErr("load catalog", err)
	}
	catalog := make([]catalogEntry, len(products))
	for i, p := range products {
		catalog[i] = catalogEntry{Barcode: p.Barcode, Name: p.Name}
	}
	catalogJSON, _ := json.Marshal(catalog)

	prompt := fmt.Sprintf(`You are auditing a shopping trolley photo at a store exit.
Catalog (barcode and name of every product we sell): %s

Identify every catalog product visible in the photo and count how many units you see.
Reply with ONLY a JSON array, no prose, in this shape:
[{"barcode": "...", "name": "...", "quantity": 1, "confidence": 0.9}]
Use the catalog barcode. Omit anything you cannot match to the catalog.`, catalogJSON)

	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" {
		format = "jpeg"
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt), genai.ImageData(format, image))
	if err != nil {
		s.log.Error(ctx, "trolley detection request failed", err)
		return nil, fmt.Errorf("trolley detection: %w: %w", ErrAIRequestFailed, err)
	}

	items, err := ParseDetections(responseText(resp))
	if err != nil {
		s.metrics.AIParseFailure()
		s.log.Error(ctx, "trolley detection response unusable", err)
		return nil, err
	}
	return items, nil
}

func (s *aiService) Chat(ctx context.Context, question string) (string, error) {
	if s.model == nil {
		return "", ErrAIUnavailable
	}

	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return "", storeErr("load catalog", err)
	}
	end := time.Now()
	start := end.AddDate(0, 0, -30)
	summary, err := s.saleRepo.Summary(ctx, start, end)
	if err != nil {
		return "", storeErr("load sales summary", err)
	}
	top, err := s.saleRepo.TopItems(ctx, start, end, 5)
	if err != nil {
		return "", storeErr("load top items", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SYSTEM: Today is %s. You are the Scannimart store assistant. Answer briefly.\n", end.Format("2006-01-02"))
	b.WriteString("CATALOG (name, price, stock):\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s, %s, %d\n", p.Name, p.Price.StringFixed(2), p.Stock)
	}
	fmt.Fprintf(&b, "SALES LAST 30 DAYS: revenue %s, profit %s, units %d\n",
		summary.Revenue.StringFixed(2), summary.Profit.StringFixed(2), summary.Units)
	b.WriteString("TOP ITEMS:\n")
	for _, item := range top {
		fmt.Fprintf(&b, "- %s sold %d\n", item.ItemName, item.Sold)
	}
	fmt.Fprintf(&b, "USER: %s", question)

	resp, err := s.model.GenerateContent(ctx, genai.Text(b.String()))
	if err != nil {
		s.log.Error(ctx, "chat request failed", err)
		return "", fmt.Errorf("chat: %w: %w", ErrAIRequestFailed, err)
	}
	answer := strings.TrimSpace(responseText(resp))
	if answer == "" {
		s.metrics.AIParseFailure()
		return "", ErrAIParsingFailed
	}
	return answer, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	return b.String()
}

// ParseDetections reads the model's JSON array, tolerating markdown fences
// and stray prose around it. Anything else is ErrAIParsingFailed.
func ParseDetections(text string) ([]DetectedItem, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in response", ErrAIParsingFailed)
	}

	var raw []struct {
		Barcode    string  `json:"barcode"`
		Name       string  `json:"name"`
		Quantity   *int    `json:"quantity"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIParsingFailed, err)
	}

	// A missing count means one unit; zero or less means the model saw nothing.
	items := make([]DetectedItem, 0, len(raw))
	for _, r := range raw {
		qty := 1
		if r.Quantity != nil {
			qty = *r.Quantity
		}
		if qty <= 0 {
			continue
		}
		items = append(items, DetectedItem{Barcode: r.Barcode, Name: r.Name, Quantity: qty, Confidence: r.Confidence})
	}
	return items, nil
}
