package parser

import (
	"context"
	"fmt"
	"sync"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parsererror"
)

// Registry keeps parsers in registration order. The first parser whose
// CanParse returns true handles the file; there is no scoring and no retry
// with later parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers []ExpenseParser
	logger  logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{logger: logging.OrDefault(logger)}
}

// Register appends p. Earlier registrations take priority.
func (r *Registry) Register(p ExpenseParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = append(r.parsers, p)
}

// Parsers returns the registered parsers in priority order.
func (r *Registry) Parsers() []ExpenseParser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ExpenseParser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// FindParser returns the first parser claiming info, or nil.
func (r *Registry) FindParser(info models.FileInfo) ExpenseParser {
	for _, p := range r.Parsers() {
		if r.claims(p, info) {
			return p
		}
	}
	return nil
}

// claims guards against a panicking fingerprint check.
func (r *Registry) claims(p ExpenseParser, info models.FileInfo) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("Parser detection panicked",
				logging.Field{Key: logging.FieldParser, Value: p.Name()},
				logging.Field{Key: logging.FieldReason, Value: fmt.Sprint(rec)})
			ok = false
		}
	}()
	return p.CanParse(info)
}

// Parse dispatches info to the first claiming parser. Failures never escape
// as panics: when no parser claims the file the result carries the
// no-compatible-parser message and the error wraps ErrNoCompatibleParser;
// when the parser fails or panics the result carries a generic message.
func (r *Registry) Parse(ctx context.Context, info models.FileInfo) (models.ParseResult, error) {
	logger := r.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: info.Filename},
		logging.Field{Key: logging.FieldMimeType, Value: info.MimeType})

	p := r.FindParser(info)
	if p == nil {
		logger.Info("No compatible parser found")
		return models.FailedResult(parsererror.MsgNoCompatibleParser),
			fmt.Errorf("%s: %w", info.Filename, parsererror.ErrNoCompatibleParser)
	}

	logger = logger.WithField(logging.FieldParser, p.Name())
	logger.Debug("Parser claimed file")

	result, err := r.safeParse(ctx, p, info)
	if err != nil {
		logger.WithError(err).Warn("Parser failed")
		return models.FailedResult(parsererror.MsgUnexpected), err
	}
	if result.Expenses == nil {
		result.Expenses = []models.ImportedExpenseDraft{}
	}

	logger.Info("Parsed file", logging.Field{Key: logging.FieldCount, Value: len(result.Expenses)})
	return result, nil
}

func (r *Registry) safeParse(ctx context.Context, p ExpenseParser, info models.FileInfo) (result models.ParseResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s: %w: %v", p.Name(), parsererror.ErrParserPanic, rec)
		}
	}()
	return p.Parse(ctx, info)
}
