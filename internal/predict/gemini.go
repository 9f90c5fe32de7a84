package predict

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nossas-despesas/expense-import/internal/currencyutils"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

var categoryIDPattern = regexp.MustCompile(`(?i)category(?:_id)?\s*:\s*(\d+)|(\d+)`)

// contentGenerator is the subset of *genai.GenerativeModel used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiPredictor asks a Gemini model to pick a category from the catalog.
type GeminiPredictor struct {
	client     *genai.Client
	model      contentGenerator
	categories []models.Category
	known      map[int]bool
	limiter    *rate.Limiter
	logger     logging.Logger
}

// NewGeminiPredictor creates a GeminiPredictor. The catalog must not be empty:
// answers are only accepted when they name one of its ids.
func NewGeminiPredictor(ctx context.Context, apiKey, modelName string, categories []models.Category, requestsPerMinute int, logger logging.Logger) (*GeminiPredictor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p, err := newGeminiPredictor(client.GenerativeModel(modelName), categories, requestsPerMinute, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	p.client = client
	return p, nil
}

func newGeminiPredictor(model contentGenerator, categories []models.Category, requestsPerMinute int, logger logging.Logger) (*GeminiPredictor, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("gemini prediction needs a category catalog")
	}
	known := make(map[int]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	return &GeminiPredictor{
		model:      model,
		categories: categories,
		known:      known,
		limiter:    newLimiter(requestsPerMinute),
		logger:     logging.OrDefault(logger),
	}, nil
}

// PredictCategory implements Predictor.
func (p *GeminiPredictor) PredictCategory(ctx context.Context, name string, amountCents int64) (int, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("prediction rate limit: %w", err)
	}

	resp, err := p.model.GenerateContent(ctx, genai.Text(p.prompt(name, amountCents)))
	if err != nil {
		return 0, fmt.Errorf("gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return 0, ErrNoPrediction
	}

	answer := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	id, ok := parseCategoryID(answer)
	if !ok || !p.known[id] {
		p.logger.Debug("Unusable Gemini answer",
			logging.Field{Key: logging.FieldReason, Value: answer})
		return 0, ErrNoPrediction
	}
	return id, nil
}

func (p *GeminiPredictor) prompt(name string, amountCents int64) string {
	var catalog strings.Builder
	for _, c := range p.categories {
		fmt.Fprintf(&catalog, "%d: %s\n", c.ID, c.Name)
	}
	return fmt.Sprintf(`Categorize the following household expense:
Description: %s
Amount: %s

Pick exactly one of these categories (id: name):
%s
Respond in this format:
Category: [id]`, name, currencyutils.FormatCents(amountCents), catalog.String())
}

// parseCategoryID prefers an explicit "Category: n" answer and falls back
// to the first number in the text.
func parseCategoryID(answer string) (int, bool) {
	var fallback string
	for _, m := range categoryIDPattern.FindAllStringSubmatch(answer, -1) {
		if m[1] != "" {
			id, err := strconv.Atoi(m[1])
			return id, err == nil
		}
		if fallback == "" {
			fallback = m[2]
		}
	}
	if fallback == "" {
		return 0, false
	}
	id, err := strconv.Atoi(fallback)
	return id, err == nil
}

// Close releases the Gemini client.
func (p *GeminiPredictor) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}
