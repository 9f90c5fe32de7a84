// Package interparser reads generic bank CSV statements, shaped after the
// Banco Inter account export. It claims any CSV text, so it must be
// registered after the fingerprinted CSV parsers.
package interparser

import (
	"context"
	"regexp"
	"strings"
	"time"

	"nossas-despesas/expense-import/internal/csvutils"
	"nossas-despesas/expense-import/internal/currencyutils"
	"nossas-despesas/expense-import/internal/dateutils"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parser"
	"nossas-despesas/expense-import/internal/parsererror"
	"nossas-despesas/expense-import/internal/textutils"
)

// Name identifies the parser.
const Name = "Inter CSV Parser"

// DefaultHeaderKeyword marks the header row, together with a semicolon.
const DefaultHeaderKeyword = "valor"

var (
	descriptionColumn = regexp.MustCompile(`(?i)descr`)
	historicoColumn   = regexp.MustCompile(`(?i)hist[oó]rico`)
	dateColumn        = regexp.MustCompile(`(?i)(data|date)`)
)

// InterParser implements parser.ExpenseParser for generic CSV statements.
type InterParser struct {
	parser.BaseParser
	dates         dateutils.DateParser
	headerPattern *regexp.Regexp
	amountColumn  *regexp.Regexp
}

// NewInterParser creates the parser. An empty headerKeyword selects
// DefaultHeaderKeyword. The keyword also names the amount column.
func NewInterParser(headerKeyword string, dates dateutils.DateParser, logger logging.Logger) *InterParser {
	if headerKeyword == "" {
		headerKeyword = DefaultHeaderKeyword
	}
	keyword := regexp.QuoteMeta(headerKeyword)
	return &InterParser{
		BaseParser:    parser.NewBaseParser(Name, []string{models.MimeCSV, "csv"}, logger),
		dates:         dates,
		headerPattern: regexp.MustCompile(`(?i)\b` + keyword + `\b`),
		amountColumn:  regexp.MustCompile(`(?i)(valor|amount|` + keyword + `)`),
	}
}

// CanParse claims any CSV text.
func (p *InterParser) CanParse(info models.FileInfo) bool {
	return info.IsText() && info.IsCSV()
}

type columns struct {
	description, historico, amount, date int
}

// headerIndex returns the first row holding the keyword and a semicolon, or -1.
func (p *InterParser) headerIndex(rows []string) int {
	for i, row := range rows {
		if p.headerPattern.MatchString(row) && strings.Contains(row, ";") {
			return i
		}
	}
	return -1
}

// Parse keeps only outflow rows. Banner lines above the header are skipped;
// without a recognisable header the first row is used.
func (p *InterParser) Parse(ctx context.Context, info models.FileInfo) (models.ParseResult, error) {
	if !info.IsText() {
		return models.FailedResult("Content must be text for CSV parsing"), nil
	}

	logger := p.GetLogger().WithFields(
		logging.Field{Key: logging.FieldParser, Value: p.Name()},
		logging.Field{Key: logging.FieldFile, Value: info.Filename})

	rows := textutils.NonBlankLines(info.Text)
	if len(rows) == 0 {
		return models.ParseResult{Expenses: []models.ImportedExpenseDraft{}}, nil
	}

	headerAt := p.headerIndex(rows)
	dataStart := headerAt + 1
	if headerAt < 0 {
		headerAt, dataStart = 0, 1
		logger.Debug("No header row found, using first row")
	}

	delimiter := csvutils.DetectDelimiter(rows[headerAt])
	headers := csvutils.SplitRow(rows[headerAt], delimiter)
	for i, h := range headers {
		headers[i] = strings.ToLower(h)
	}
	cols := columns{
		description: csvutils.FindColumn(headers, descriptionColumn),
		historico:   csvutils.FindColumn(headers, historicoColumn),
		amount:      csvutils.FindColumn(headers, p.amountColumn),
		date:        csvutils.FindColumn(headers, dateColumn),
	}

	expenses := []models.ImportedExpenseDraft{}
	for _, row := range rows[dataStart:] {
		if err := ctx.Err(); err != nil {
			return models.ParseResult{}, err
		}

		cells := csvutils.SplitRow(row, delimiter)
		if csvutils.IsBlank(cells) {
			continue
		}

		draft, err := p.parseRow(row, cells, cols)
		if err != nil {
			logger.WithError(err).Debug("Skipping row", logging.Field{Key: logging.FieldLine, Value: row})
			continue
		}
		expenses = append(expenses, draft)
	}

	logger.Info("Parsed CSV statement",
		logging.Field{Key: logging.FieldCount, Value: len(expenses)},
		logging.Field{Key: logging.FieldDelimiter, Value: string(delimiter)})
	return models.ParseResult{Expenses: expenses}, nil
}

func (p *InterParser) parseRow(row string, cells []string, cols columns) (models.ImportedExpenseDraft, error) {
	description := csvutils.PickDescription(cells, cols.description, cols.historico)
	if description == "" {
		return models.ImportedExpenseDraft{}, &parsererror.DataExtractionError{
			Parser: p.Name(), FieldName: "description", RawDataSnippet: row, Reason: "empty description",
		}
	}
	amount := csvutils.PickAmount(cells, cols.amount)
	cents, ok := currencyutils.ParseAmountToCents(amount)
	if !ok {
		return models.ImportedExpenseDraft{}, &parsererror.ParseError{
			Parser: p.Name(), Field: "valor", Value: amount, Err: parsererror.ErrInvalidAmount,
		}
	}
	if !currencyutils.IsOutflow(cents) {
		return models.ImportedExpenseDraft{}, parsererror.ErrNotAnExpense
	}

	var date *time.Time
	if d, ok := p.dates.Parse(csvutils.PickDate(cells, cols.date)); ok {
		date = &d
	}

	return p.NewDraft(description, cents, date, row)
}
