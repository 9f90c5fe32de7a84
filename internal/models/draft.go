package models

import (
	"fmt"
	"strconv"
	"time"
)

// SplitType tells the persistence API how an expense is divided between payer and receiver.
type SplitType string

const (
	SplitEqual        SplitType = "equal"
	SplitProportional SplitType = "proportional"
	SplitTransfer     SplitType = "transfer"
)

// DefaultSplitType is attached to every draft produced by a parser.
const DefaultSplitType = SplitProportional

// ImportedExpenseDraft is one extracted transaction candidate. AmountInCents
// always holds the unsigned magnitude of an outflow as decimal digits.
type ImportedExpenseDraft struct {
	ID            string    `json:"id" csv:"id"`
	Description   string    `json:"description" csv:"description"`
	AmountInCents string    `json:"amountInCents" csv:"amount_in_cents"`
	Date          string    `json:"date,omitempty" csv:"date"`
	Raw           string    `json:"raw" csv:"raw"`
	SplitType     SplitType `json:"splitType" csv:"split_type"`
}

// Cents returns AmountInCents as an integer.
func (d ImportedExpenseDraft) Cents() (int64, error) {
	cents, err := strconv.ParseInt(d.AmountInCents, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount in cents %q: %w", d.AmountInCents, err)
	}
	return cents, nil
}

// Time returns the parsed draft date, or false when the draft has none.
func (d ImportedExpenseDraft) Time() (time.Time, bool) {
	if d.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, d.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseResult is what a parser, or the registry, returns for one file.
// Empty Expenses with Errors means the file was recognised but unusable;
// empty Expenses without Errors means no transactions were found.
type ParseResult struct {
	Expenses []ImportedExpenseDraft `json:"expenses"`
	Errors   []string               `json:"errors,omitempty"`
}

// HasErrors reports whether the result carries error messages.
func (r ParseResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// FailedResult builds a result with no expenses and the given messages.
func FailedResult(messages ...string) ParseResult {
	return ParseResult{Expenses: []ImportedExpenseDraft{}, Errors: messages}
}
