// Package pdfparser reads the text of Inter credit card invoices.
package pdfparser

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"nossas-despesas/expense-import/internal/currencyutils"
	"nossas-despesas/expense-import/internal/dateutils"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parser"
	"nossas-despesas/expense-import/internal/parsererror"
	"nossas-despesas/expense-import/internal/textutils"
)

const (
	// Name identifies the parser.
	Name = "Inter Credit Card PDF Parser"

	// DefaultSectionMarker opens the transaction list of an Inter invoice.
	DefaultSectionMarker = "Despesas da fatura"

	// DefaultDescriptionSeparator ends the description inside a transaction
	// line laid out as "Description - Counterparty - Value".
	DefaultDescriptionSeparator = " - "
)

var (
	linePattern  = regexp.MustCompile(`^(\d{1,2})\s+de\s+(\w{3})\.\s+(\d{4})\s+(.+)`)
	valuePattern = regexp.MustCompile(`([+-]?\s*R\$\s*[\d.,]+)\s*$`)

	months = map[string]time.Month{
		"jan": time.January,
		"fev": time.February,
		"mar": time.March,
		"abr": time.April,
		"mai": time.May,
		"jun": time.June,
		"jul": time.July,
		"ago": time.August,
		"set": time.September,
		"out": time.October,
		"nov": time.November,
		"dez": time.December,
	}
)

// Config tunes the invoice layout heuristics. Empty fields take the defaults.
type Config struct {
	SectionMarker        string
	DescriptionSeparator string
}

// InterCreditCardParser implements parser.ExpenseParser for the extracted
// text of Inter credit card invoices.
type InterCreditCardParser struct {
	parser.BaseParser
	marker    string
	separator string
}

// NewInterCreditCardParser creates the parser.
func NewInterCreditCardParser(cfg Config, logger logging.Logger) *InterCreditCardParser {
	if cfg.SectionMarker == "" {
		cfg.SectionMarker = DefaultSectionMarker
	}
	if cfg.DescriptionSeparator == "" {
		cfg.DescriptionSeparator = DefaultDescriptionSeparator
	}
	return &InterCreditCardParser{
		BaseParser: parser.NewBaseParser(Name, []string{models.MimePDF, "pdf"}, logger),
		marker:     cfg.SectionMarker,
		separator:  cfg.DescriptionSeparator,
	}
}

// CanParse claims extracted PDF text containing the section marker.
func (p *InterCreditCardParser) CanParse(info models.FileInfo) bool {
	return info.IsText() && info.IsPDF() && strings.Contains(info.Text, p.marker)
}

// Parse scans the lines after the section marker. Lines without the
// "07 de nov. 2025" prefix are headers, footers or totals and are skipped.
func (p *InterCreditCardParser) Parse(ctx context.Context, info models.FileInfo) (models.ParseResult, error) {
	if !info.IsText() {
		return models.FailedResult("Content must be text for PDF parsing"), nil
	}

	logger := p.GetLogger().WithField(logging.FieldParser, p.Name())
	lines := info.Lines()

	start := -1
	for i, line := range lines {
		if strings.Contains(line, p.marker) {
			start = i
			break
		}
	}
	if start < 0 {
		return models.ParseResult{Expenses: []models.ImportedExpenseDraft{}}, nil
	}

	expenses := []models.ImportedExpenseDraft{}
	for i := start + 1; i < len(lines); i++ {
		if err := ctx.Err(); err != nil {
			return models.ParseResult{}, err
		}

		line := strings.TrimSpace(lines[i])
		draft, err := p.parseLine(line, logger)
		if errors.Is(err, errNoTransaction) {
			continue
		}
		if err != nil {
			logger.WithError(err).Debug("Skipping line", logging.Field{Key: logging.FieldLine, Value: line})
			continue
		}
		expenses = append(expenses, draft)
	}

	logger.Info("Parsed credit card invoice", logging.Field{Key: logging.FieldCount, Value: len(expenses)})
	return models.ParseResult{Expenses: expenses}, nil
}

// errNoTransaction marks lines without a leading date, such as page headers.
var errNoTransaction = errors.New("not a transaction line")

func (p *InterCreditCardParser) parseLine(line string, logger logging.Logger) (models.ImportedExpenseDraft, error) {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		return models.ImportedExpenseDraft{}, errNoTransaction
	}
	dayText, monthText, yearText, rest := m[1], m[2], m[3], m[4]

	month, ok := months[strings.ToLower(monthText)]
	if !ok {
		return models.ImportedExpenseDraft{}, &parsererror.ParseError{
			Parser: Name, Field: "month", Value: monthText, Err: parsererror.ErrInvalidDate,
		}
	}

	value := valuePattern.FindStringSubmatch(rest)
	if value == nil {
		return models.ImportedExpenseDraft{}, &parsererror.DataExtractionError{
			Parser: Name, FieldName: "value", RawDataSnippet: line, Reason: "no R$ value on line",
		}
	}
	cents, ok := currencyutils.ParseAmountToCents(value[1])
	if !ok {
		return models.ImportedExpenseDraft{}, &parsererror.ParseError{
			Parser: Name, Field: "value", Value: value[1], Err: parsererror.ErrInvalidAmount,
		}
	}
	if !currencyutils.IsOutflow(cents) {
		return models.ImportedExpenseDraft{}, parsererror.ErrNotAnExpense
	}

	cut := strings.LastIndex(rest, p.separator)
	if cut < 0 {
		return models.ImportedExpenseDraft{}, &parsererror.DataExtractionError{
			Parser: Name, FieldName: "description", RawDataSnippet: line, Reason: "missing separator",
		}
	}
	description := textutils.RemoveInstallment(strings.TrimSpace(rest[:cut]))
	if description == "" {
		return models.ImportedExpenseDraft{}, &parsererror.DataExtractionError{
			Parser: Name, FieldName: "description", RawDataSnippet: line, Reason: "empty description",
		}
	}

	var date *time.Time
	day, _ := strconv.Atoi(dayText)
	year, _ := strconv.Atoi(yearText)
	if d, ok := dateutils.Date(year, int(month), day); ok {
		date = &d
	} else {
		logger.Debug("Keeping draft without date", logging.Field{Key: logging.FieldLine, Value: line})
	}

	return p.NewDraft(description, cents, date, line)
}
