// Package importer ties the parsers, the draft engine and the persistence
// API into an import session.
package importer

import (
	"context"
	"errors"
	"fmt"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parser"
	"nossas-despesas/expense-import/internal/parsererror"
	"nossas-despesas/expense-import/internal/pdfparser"
)

// ErrNoExtractor is wrapped in the ExtractionError returned for binary PDFs
// when no extractor is wired.
var ErrNoExtractor = errors.New("no pdf extractor configured")

// Service turns an uploaded statement into expense drafts.
type Service struct {
	registry  *parser.Registry
	extractor pdfparser.Extractor
	logger    logging.Logger
}

// NewService creates a Service.
func NewService(registry *parser.Registry, extractor pdfparser.Extractor, logger logging.Logger) *Service {
	return &Service{
		registry:  registry,
		extractor: extractor,
		logger:    logging.OrDefault(logger),
	}
}

// Accepts reports whether info is a CSV or PDF by MIME type or extension.
func Accepts(info models.FileInfo) bool {
	return info.IsCSV() || info.IsPDF()
}

// ParseFile validates, extracts and parses info. Errors are typed so that
// parsererror.UserMessage yields the message to show.
func (s *Service) ParseFile(ctx context.Context, info models.FileInfo) ([]models.ImportedExpenseDraft, error) {
	logger := s.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: info.Filename},
		logging.Field{Key: logging.FieldMimeType, Value: info.MimeType})

	if !Accepts(info) {
		logger.Info("Rejected unsupported file")
		return nil, &parsererror.UnsupportedFileError{Filename: info.Filename, MimeType: info.MimeType}
	}

	if !info.IsText() && !info.IsPDF() {
		info = models.NewTextFile(string(info.Data), info.Filename, info.MimeType)
	}

	if !info.IsText() && s.extractor == nil {
		return nil, &parsererror.ExtractionError{Filename: info.Filename, Err: ErrNoExtractor}
	}

	text, err := pdfparser.ExtractFileInfo(ctx, s.extractor, info)
	if err != nil {
		logger.WithError(err).Warn("PDF extraction failed")
		return nil, err
	}

	result, err := s.registry.Parse(ctx, text)
	if len(result.Expenses) == 0 {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", parsererror.ErrNoExpenses, err)
		}
		logger.Info("No expenses extracted")
		return nil, fmt.Errorf("%s: %w", info.Filename, parsererror.ErrNoExpenses)
	}
	return result.Expenses, nil
}
