package models

// DraftStatus is the persistence state of a draft row.
type DraftStatus string

const (
	StatusIdle    DraftStatus = "idle"
	StatusSaving  DraftStatus = "saving"
	StatusSuccess DraftStatus = "success"
	StatusError   DraftStatus = "error"
)

// IsTerminal reports whether the status is the outcome of a persistence attempt.
func (s DraftStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusError
}

// ExpenseDraftRow is a draft plus the mutable review state of an import session.
type ExpenseDraftRow struct {
	ImportedExpenseDraft
	Include      bool        `json:"include"`
	CategoryID   int         `json:"categoryId"`
	PayerID      int         `json:"payerId,omitempty"`
	Status       DraftStatus `json:"status"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
}

// DraftUpdate is a partial update of a row. Nil fields are left untouched.
type DraftUpdate struct {
	Description   *string
	AmountInCents *string
	Date          *string
	SplitType     *SplitType
	Include       *bool
	CategoryID    *int
	PayerID       *int
	Status        *DraftStatus
	ErrorMessage  *string
}

// StatusUpdate builds an explicit status change with an error message
// (empty clears it).
func StatusUpdate(status DraftStatus, message string) DraftUpdate {
	return DraftUpdate{Status: &status, ErrorMessage: &message}
}

// Apply merges the non-nil fields of u into row.
func (u DraftUpdate) Apply(row *ExpenseDraftRow) {
	if u.Description != nil {
		row.Description = *u.Description
	}
	if u.AmountInCents != nil {
		row.AmountInCents = *u.AmountInCents
	}
	if u.Date != nil {
		row.Date = *u.Date
	}
	if u.SplitType != nil {
		row.SplitType = *u.SplitType
	}
	if u.Include != nil {
		row.Include = *u.Include
	}
	if u.CategoryID != nil {
		row.CategoryID = *u.CategoryID
	}
	if u.PayerID != nil {
		row.PayerID = *u.PayerID
	}
	if u.Status != nil {
		row.Status = *u.Status
	}
	if u.ErrorMessage != nil {
		row.ErrorMessage = *u.ErrorMessage
	}
}
