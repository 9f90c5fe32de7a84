// Package parser defines the statement parser abstraction and the ordered
// registry that dispatches a file to the first parser claiming it.
package parser

import (
	"context"

	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
)

// ExpenseParser turns one statement format into expense drafts.
type ExpenseParser interface {
	// Name identifies the parser in logs and CLI output.
	Name() string

	// SupportedFormats lists the MIME types and extensions the parser handles.
	SupportedFormats() []string

	// CanParse is a cheap, side-effect free fingerprint check.
	CanParse(info models.FileInfo) bool

	// Parse extracts drafts. Implementations re-check their preconditions and
	// report unusable files through ParseResult.Errors rather than an error;
	// the error return is reserved for failures of the parser itself.
	Parse(ctx context.Context, info models.FileInfo) (models.ParseResult, error)
}

// LoggerConfigurable is implemented by parsers whose logger can be replaced
// after construction.
type LoggerConfigurable interface {
	SetLogger(logger logging.Logger)
}
