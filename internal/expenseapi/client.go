// Package expenseapi is a client for the expense persistence API.
package expenseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
)

// Known API error codes.
const (
	CodePayerIncomeNotFound    = "payer income not found"
	CodeReceiverIncomeNotFound = "receiver income not found"
)

// MsgUnexpectedSave is recorded when a save fails without an API message.
const MsgUnexpectedSave = "Erro inesperado ao salvar esta despesa. Tente novamente mais tarde."

var userMessages = map[string]string{
	CodePayerIncomeNotFound:    "O pagador não possui receita cadastrada para dividir proporcionalmente",
	CodeReceiverIncomeNotFound: "O recebedor não possui receita cadastrada para dividir proporcionalmente",
}

// Persister stores one expense.
type Persister interface {
	CreateExpense(ctx context.Context, expense models.ExpenseRecord) error
}

// APIError is a non-2xx response of the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("expense api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("expense api returned status %d: %s", e.StatusCode, e.Message)
}

// UserMessage translates known API error codes. Other API errors keep
// their raw message; errors without one get a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return MsgUnexpectedSave
	}
	if msg, ok := userMessages[strings.TrimSpace(apiErr.Message)]; ok {
		return msg
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgUnexpectedSave
}

// Config configures Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the persistence API over HTTP.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  logging.Logger
}

// NewClient creates a Client.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("expense api base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logging.OrDefault(logger),
	}, nil
}

// CreateExpense posts expense to {base}/expenses.
func (c *Client) CreateExpense(ctx context.Context, expense models.ExpenseRecord) error {
	body, err := json.Marshal(expense)
	if err != nil {
		return fmt.Errorf("failed to encode expense: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/expenses", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send expense: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Debug("Expense created", logging.Field{Key: logging.FieldStatus, Value: resp.StatusCode})
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Message
	}
	c.logger.Warn("Expense api rejected expense",
		logging.Field{Key: logging.FieldStatus, Value: resp.StatusCode},
		logging.Field{Key: logging.FieldReason, Value: apiErr.Message})
	return apiErr
}
