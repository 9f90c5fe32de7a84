package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ISOLayout is the millisecond-precision UTC layout used for draft dates.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// DraftBuilder provides a fluent API for constructing drafts. The first
// failing step is remembered and returned by Build.
type DraftBuilder struct {
	draft ImportedExpenseDraft
	err   error
}

// NewDraftBuilder creates a DraftBuilder with the default split type.
func NewDraftBuilder() *DraftBuilder {
	return &DraftBuilder{
		draft: ImportedExpenseDraft{SplitType: DefaultSplitType},
	}
}

// WithID sets the draft id. Build generates one when unset.
func (b *DraftBuilder) WithID(id string) *DraftBuilder {
	if b.err != nil {
		return b
	}
	b.draft.ID = id
	return b
}

// WithDescription sets the trimmed description.
func (b *DraftBuilder) WithDescription(description string) *DraftBuilder {
	if b.err != nil {
		return b
	}
	b.draft.Description = strings.TrimSpace(description)
	return b
}

// WithAmountCents sets the amount from a signed cent value; only the
// magnitude is kept.
func (b *DraftBuilder) WithAmountCents(cents int64) *DraftBuilder {
	if b.err != nil {
		return b
	}
	if cents < 0 {
		cents = -cents
	}
	b.draft.AmountInCents = strconv.FormatInt(cents, 10)
	return b
}

// WithDate sets the draft date. A zero time leaves the date unset.
func (b *DraftBuilder) WithDate(date time.Time) *DraftBuilder {
	if b.err != nil {
		return b
	}
	if date.IsZero() {
		b.draft.Date = ""
		return b
	}
	b.draft.Date = date.UTC().Format(ISOLayout)
	return b
}

// WithDatePtr sets the draft date when date is non-nil.
func (b *DraftBuilder) WithDatePtr(date *time.Time) *DraftBuilder {
	if date == nil {
		return b
	}
	return b.WithDate(*date)
}

// WithRaw keeps the source text the draft was extracted from.
func (b *DraftBuilder) WithRaw(raw string) *DraftBuilder {
	if b.err != nil {
		return b
	}
	b.draft.Raw = raw
	return b
}

// WithSplitType overrides the split type.
func (b *DraftBuilder) WithSplitType(split SplitType) *DraftBuilder {
	if b.err != nil {
		return b
	}
	switch split {
	case SplitEqual, SplitProportional, SplitTransfer:
		b.draft.SplitType = split
	default:
		b.err = fmt.Errorf("invalid split type %q", split)
	}
	return b
}

// Build validates and returns the draft.
func (b *DraftBuilder) Build() (ImportedExpenseDraft, error) {
	if b.err != nil {
		return ImportedExpenseDraft{}, b.err
	}
	if b.draft.Description == "" {
		return ImportedExpenseDraft{}, errors.New("description cannot be empty")
	}
	if !isDigits(b.draft.AmountInCents) {
		return ImportedExpenseDraft{}, fmt.Errorf("amount in cents must be a non-negative integer, got %q", b.draft.AmountInCents)
	}
	if b.draft.ID == "" {
		b.draft.ID = uuid.New().String()
	}
	return b.draft, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
