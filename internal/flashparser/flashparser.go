// Package flashparser reads CSV statements exported by the Flash benefits app.
// Expected columns: Data, Hora, Movimentação, Valor, Meio de Pagamento, Saldo.
package flashparser

import (
	"context"
	"regexp"
	"strconv"
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
const Name = "Flash CSV Parser"

// MsgNotFlash is reported when the header does not carry the Flash fingerprint.
const MsgNotFlash = "Formato de CSV não reconhecido como extrato Flash"

// HeaderTokens must all appear in the normalised header line.
var HeaderTokens = []string{"data", "hora", "movimentacao", "valor", "meio de pagamento"}

var nonDigits = regexp.MustCompile(`\D`)

// FlashParser implements parser.ExpenseParser for Flash CSV exports.
type FlashParser struct {
	parser.BaseParser
	dates dateutils.DateParser
}

// NewFlashParser creates the parser.
func NewFlashParser(dates dateutils.DateParser, logger logging.Logger) *FlashParser {
	return &FlashParser{
		BaseParser: parser.NewBaseParser(Name, []string{models.MimeCSV, "csv"}, logger),
		dates:      dates,
	}
}

// IsFlashHeader reports whether line carries every Flash header token,
// ignoring case, accents and column order.
func IsFlashHeader(line string) bool {
	if line == "" {
		return false
	}
	return textutils.ContainsAll(textutils.NormalizeHeader(line), HeaderTokens...)
}

// CanParse claims CSV text whose first non-blank line is a Flash header.
func (p *FlashParser) CanParse(info models.FileInfo) bool {
	if !info.IsText() || !info.IsCSV() {
		return false
	}
	lines := textutils.NonBlankLines(info.Text)
	return len(lines) > 0 && IsFlashHeader(lines[0])
}

type columns struct {
	date, time, description, amount int
}

// Parse keeps only outflow rows. Date and time cells are merged into one
// UTC instant when the time cell has a numeric hour.
func (p *FlashParser) Parse(ctx context.Context, info models.FileInfo) (models.ParseResult, error) {
	if !info.IsText() {
		return models.FailedResult("Content must be text for CSV parsing"), nil
	}

	logger := p.GetLogger().WithFields(
		logging.Field{Key: logging.FieldParser, Value: p.Name()},
		logging.Field{Key: logging.FieldFile, Value: info.Filename})

	rows := textutils.NonBlankLines(info.Text)
	if len(rows) <= 1 {
		return models.ParseResult{Expenses: []models.ImportedExpenseDraft{}}, nil
	}

	header := rows[0]
	if !IsFlashHeader(header) {
		logger.WithError(&parsererror.InvalidFormatError{
			Parser:               p.Name(),
			ExpectedFormat:       "Flash statement header",
			ActualContentSnippet: header,
			Msg:                  MsgNotFlash,
		}).Warn("Rejecting CSV without Flash header")
		return models.FailedResult(MsgNotFlash), nil
	}

	delimiter := csvutils.DetectDelimiter(header)
	headers := csvutils.SplitRow(header, delimiter)
	for i, h := range headers {
		headers[i] = textutils.NormalizeHeader(h)
	}
	cols := columns{
		date:        csvutils.IndexOf(headers, "data"),
		time:        csvutils.IndexOf(headers, "hora"),
		description: csvutils.IndexOf(headers, "movimentacao"),
		amount:      csvutils.IndexOf(headers, "valor"),
	}
	logger.Debug("Resolved Flash columns", logging.Field{Key: logging.FieldDelimiter, Value: string(delimiter)})

	expenses := []models.ImportedExpenseDraft{}
	for _, row := range rows[1:] {
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

	logger.Info("Parsed Flash statement", logging.Field{Key: logging.FieldCount, Value: len(expenses)})
	return models.ParseResult{Expenses: expenses}, nil
}

func (p *FlashParser) parseRow(row string, cells []string, cols columns) (models.ImportedExpenseDraft, error) {
	description := strings.TrimSpace(csvutils.Cell(cells, cols.description))
	if description == "" {
		return models.ImportedExpenseDraft{}, &parsererror.DataExtractionError{
			Parser: p.Name(), FieldName: "description", RawDataSnippet: row, Reason: "empty description",
		}
	}
	amount := csvutils.Cell(cells, cols.amount)
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
	if d, ok := p.dates.Parse(csvutils.Cell(cells, cols.date)); ok {
		if hour, minute, ok := parseClock(csvutils.Cell(cells, cols.time)); ok {
			d = dateutils.WithTime(d, hour, minute)
		}
		date = &d
	}

	return p.NewDraft(description, cents, date, row)
}

// parseClock reads "HH:MM". A missing or non-numeric hour fails; a missing
// minute counts as zero.
func parseClock(value string) (int, int, bool) {
	if value == "" {
		return 0, 0, false
	}
	hourText, rest, _ := strings.Cut(value, ":")
	minuteText, _, _ := strings.Cut(rest, ":")

	hour, err := strconv.Atoi(nonDigits.ReplaceAllString(hourText, ""))
	if err != nil || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(nonDigits.ReplaceAllString(minuteText, ""))
	if err != nil || minute > 59 {
		minute = 0
	}
	return hour, minute, true
}
