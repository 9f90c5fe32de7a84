// Package factory builds the statement parsers and the default registry.
package factory

import (
	"fmt"

	"nossas-despesas/expense-import/internal/dateutils"
	"nossas-despesas/expense-import/internal/flashparser"
	"nossas-despesas/expense-import/internal/interparser"
	"nossas-despesas/expense-import/internal/logging"
	"nossas-despesas/expense-import/internal/models"
	"nossas-despesas/expense-import/internal/parser"
	"nossas-despesas/expense-import/internal/pdfparser"
)

// ParserType defines the types of parsers available.
type ParserType string

const (
	PDF   ParserType = "pdf"
	Flash ParserType = "flash"
	Inter ParserType = "inter"
)

// DefaultOrder is the detection priority of the default registry:
// fingerprinted formats first, the permissive CSV parser last.
var DefaultOrder = []ParserType{PDF, Flash, Inter}

// Options carries the per-parser settings read from configuration.
// The zero value yields the built-in defaults.
type Options struct {
	PDF                pdfparser.Config
	InterHeaderKeyword string
	Dates              dateutils.DateParser
	SplitType          models.SplitType
}

// splitTyped is implemented by parsers embedding parser.BaseParser.
type splitTyped interface {
	SetSplitType(models.SplitType)
}

// GetParserWithLogger returns a new parser of the given type.
func GetParserWithLogger(parserType ParserType, opts Options, logger logging.Logger) (parser.ExpenseParser, error) {
	var p parser.ExpenseParser
	switch parserType {
	case PDF:
		p = pdfparser.NewInterCreditCardParser(opts.PDF, logger)
	case Flash:
		p = flashparser.NewFlashParser(opts.Dates, logger)
	case Inter:
		p = interparser.NewInterParser(opts.InterHeaderKeyword, opts.Dates, logger)
	default:
		return nil, fmt.Errorf("unknown parser type: %s", parserType)
	}

	if st, ok := p.(splitTyped); ok {
		st.SetSplitType(opts.SplitType)
	}
	return p, nil
}

// NewDefaultRegistry registers the PDF, Flash and Inter parsers, in that order.
func NewDefaultRegistry(opts Options, logger logging.Logger) *parser.Registry {
	registry := parser.NewRegistry(logger)
	for _, parserType := range DefaultOrder {
		p, err := GetParserWithLogger(parserType, opts, logger)
		if err != nil {
			// DefaultOrder only lists known types.
			panic(err)
		}
		registry.Register(p)
	}
	return registry
}
