// Package parsererror defines the error taxonomy of the import pipeline and
// the user-facing messages attached to each category.
package parsererror

import (
	"errors"
	"fmt"
)

// User-facing messages returned to whoever uploaded the file.
const (
	MsgNoCompatibleParser = "No compatible parser found for this file type"
	MsgUnsupportedFile    = "Tipo de arquivo não suportado. Envie um arquivo CSV ou PDF."
	MsgInvalidFile        = "Arquivo inválido"
	MsgPDFExtraction      = "Não foi possível processar o arquivo PDF. Por favor, tente converter para CSV ou entre em contato com o suporte."
	MsgNoExpenses         = "Não foi possível extrair despesas do arquivo. Verifique se o formato está correto."
	MsgUnexpected         = "Não foi possível processar o arquivo enviado."
)

var (
	// ErrNoCompatibleParser is returned when no registered parser claims a file.
	ErrNoCompatibleParser = errors.New("no compatible parser found")

	// ErrNoExpenses is returned when a parser claimed a file but produced no drafts.
	ErrNoExpenses = errors.New("no expenses extracted")

	// ErrParserPanic marks a parser that panicked during Parse.
	ErrParserPanic = errors.New("parser panicked")

	// ErrInvalidAmount is wrapped by a ParseError for an unreadable amount cell.
	ErrInvalidAmount = errors.New("not a monetary value")

	// ErrInvalidDate is wrapped by a ParseError for an unreadable date part.
	ErrInvalidDate = errors.New("not a valid date")

	// ErrNotAnExpense marks a row skipped because its amount is not an outflow.
	ErrNotAnExpense = errors.New("amount is not an outflow")
)

// ParseError represents an error during parsing of a single field.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidFormatError means the content does not match the layout the parser
// expects, even though the parser was selected for it.
type InvalidFormatError struct {
	Parser               string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("%s: invalid format: %s. Expected: %s. Content snippet: '%s'",
			e.Parser, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("%s: invalid format: %s. Expected: %s",
		e.Parser, e.Msg, e.ExpectedFormat)
}

// DataExtractionError means a specific field could not be extracted from an
// otherwise well-formed file.
type DataExtractionError struct {
	Parser         string
	FieldName      string
	RawDataSnippet string
	Reason         string
}

func (e *DataExtractionError) Error() string {
	if e.RawDataSnippet != "" {
		return fmt.Sprintf("%s: data extraction failed for field '%s': %s. Raw data snippet: '%s'",
			e.Parser, e.FieldName, e.Reason, e.RawDataSnippet)
	}
	return fmt.Sprintf("%s: data extraction failed for field '%s': %s",
		e.Parser, e.FieldName, e.Reason)
}

// UnsupportedFileError rejects a file at the input boundary, before any parser runs.
type UnsupportedFileError struct {
	Filename string
	MimeType string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file type (name=%q, mime=%q): only CSV and PDF are accepted",
		e.Filename, e.MimeType)
}

// ExtractionError wraps a failure of the external PDF text extractor.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text from %q: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// UserMessage maps an import error to the message shown to the user.
func UserMessage(err error) string {
	var unsupported *UnsupportedFileError
	var extraction *ExtractionError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &unsupported):
		return MsgUnsupportedFile
	case errors.As(err, &extraction):
		return MsgPDFExtraction
	case errors.Is(err, ErrNoCompatibleParser), errors.Is(err, ErrNoExpenses):
		return MsgNoExpenses
	default:
		return MsgUnexpected
	}
}
