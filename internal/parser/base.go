package parser

import (
	"time"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"

	"github.com/google/uuid"
)

// BaseParser provides the state shared by every parser implementation.
// Parsers embed it:
//
//	type MyParser struct {
//		parser.BaseParser
//		// parser-specific fields
//	}
type BaseParser struct {
	name      string
	formats   []string
	splitType models.SplitType
	newID     func() string
	logger    logging.Logger
}

// NewBaseParser creates a BaseParser. A nil logger falls back to the default.
func NewBaseParser(name string, formats []string, logger logging.Logger) BaseParser {
	return BaseParser{
		name:      name,
		formats:   formats,
		splitType: models.DefaultSplitType,
		newID:     func() string { return uuid.New().String() },
		logger:    logging.OrDefault(logger),
	}
}

// Name implements ExpenseParser.
func (b *BaseParser) Name() string {
	return b.name
}

// SupportedFormats implements ExpenseParser.
func (b *BaseParser) SupportedFormats() []string {
	out := make([]string, len(b.formats))
	copy(out, b.formats)
	return out
}

// SetLogger implements LoggerConfigurable.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// GetLogger returns the parser logger.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// SetSplitType changes the split type attached to new drafts.
func (b *BaseParser) SetSplitType(split models.SplitType) {
	if split != "" {
		b.splitType = split
	}
}

// SetIDGenerator replaces the draft id source, mostly for deterministic tests.
func (b *BaseParser) SetIDGenerator(newID func() string) {
	if newID != nil {
		b.newID = newID
	}
}

// NewDraft builds a draft for an outflow of cents (sign is dropped).
func (b *BaseParser) NewDraft(description string, cents int64, date *time.Time, raw string) (models.ImportedExpenseDraft, error) {
	return models.NewDraftBuilder().
		WithID(b.newID()).
		WithDescription(description).
		WithAmountCents(cents).
		WithDatePtr(date).
		WithRaw(raw).
		WithSplitType(b.splitType).
		Build()
}
