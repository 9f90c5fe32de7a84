package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nossas-despesas/expense-import/internal/logging"

	"golang.org/x/time/rate"
)

// DefaultPath is the prediction endpoint below the base URL.
const DefaultPath = "/predict"

// HTTPConfig configures HTTPPredictor.
type HTTPConfig struct {
	BaseURL           string
	Path              string
	Token             string
	Timeout           time.Duration
	RequestsPerMinute int
}

// HTTPPredictor calls a remote prediction service.
type HTTPPredictor struct {
	url     string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  logging.Logger
}

type predictRequest struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
}

type predictPayload struct {
	CategoryID *int `json:"category_id"`
}

type predictResponse struct {
	Data *predictPayload `json:"data"`
	predictPayload
}

// NewHTTPPredictor creates an HTTPPredictor.
func NewHTTPPredictor(cfg HTTPConfig, logger logging.Logger) (*HTTPPredictor, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("prediction base url is required")
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPPredictor{
		url:     strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.Path, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: newLimiter(cfg.RequestsPerMinute),
		logger:  logging.OrDefault(logger),
	}, nil
}

// PredictCategory implements Predictor. The service may answer with
// {"data": {"category_id": n}} or a bare {"category_id": n}.
func (p *HTTPPredictor) PredictCategory(ctx context.Context, name string, amountCents int64) (int, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("prediction rate limit: %w", err)
	}

	payload, err := json.Marshal(predictRequest{Name: name, AmountCents: amountCents})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call predict endpoint: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			p.logger.WithError(err).Warn("Failed to close predict response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read predict response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("predict endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded predictResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, fmt.Errorf("failed to unmarshal predict response: %w", err)
	}

	switch {
	case decoded.Data != nil && decoded.Data.CategoryID != nil:
		return *decoded.Data.CategoryID, nil
	case decoded.CategoryID != nil:
		return *decoded.CategoryID, nil
	default:
		return 0, ErrNoPrediction
	}
}
