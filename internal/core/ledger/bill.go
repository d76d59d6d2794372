// Package ledger holds the client-side bill ledger: confirmed bills
// fetched from the server, locally entered bills that are still
// waiting for confirmation, and the merged view combining both.
package ledger

import (
	"time"

	"github.com/jlzm/MoneyNotes/pkg/date"
	"github.com/jlzm/MoneyNotes/pkg/money"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"
)

// Direction distinguishes income from expense bills.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Bill is a server-confirmed bill. Its ID is assigned by the server
// and is stable within a ledger. Confirmed bills are immutable here;
// updates and deletes go through the remote API.
type Bill struct {
	ID         string       `json:"id"`
	Type       Direction    `json:"type"`
	Amount     money.Amount `json:"amount"`
	CategoryID string       `json:"categoryId"`
	Note       string       `json:"note,omitempty"`
	BillDate   date.Date    `json:"billDate"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// PendingBill is a bill entered locally that has not been confirmed
// by the server yet. Its LocalID is generated by the store and is
// never reused; Synced is always false while the bill is pending.
// A pending bill is never edited in place: it is destroyed by
// reconciliation or by an explicit discard.
type PendingBill struct {
	LocalID    string       `json:"localId"`
	Type       Direction    `json:"type"`
	Amount     money.Amount `json:"amount"`
	CategoryID string       `json:"categoryId"`
	Note       string       `json:"note,omitempty"`
	BillDate   date.Date    `json:"billDate"`
	CreatedAt  time.Time    `json:"createdAt"`
	Synced     bool         `json:"synced"`
}

// BillSpec describes a bill to be created. Validation of the spec is
// the API layer's responsibility; the store accepts whatever it is
// given.
type BillSpec struct {
	Type       Direction    `json:"type"`
	Amount     money.Amount `json:"amount"`
	CategoryID string       `json:"categoryId"`
	Note       string       `json:"note,omitempty"`
	BillDate   date.Date    `json:"billDate"`
}

// Validate checks the spec shape. Called by the transport layer
// before handing the spec to the store.
func (s BillSpec) Validate() error {
	if !s.Type.Valid() {
		return apperrors.Validation("type must be income or expense")
	}
	if s.Amount.IsNegative() {
		return apperrors.Validation("amount must not be negative")
	}
	if s.CategoryID == "" {
		return apperrors.Validation("categoryId is required")
	}
	if s.BillDate.IsZero() {
		return apperrors.Validation("billDate is required")
	}
	return nil
}

// Entry is one row of the merged view. It is either a confirmed bill
// (Synced true, ID is the server ID) or a pending bill (Synced false,
// ID is the temporary local ID).
type Entry struct {
	ID         string       `json:"id"`
	Type       Direction    `json:"type"`
	Amount     money.Amount `json:"amount"`
	CategoryID string       `json:"categoryId"`
	Note       string       `json:"note,omitempty"`
	BillDate   date.Date    `json:"billDate"`
	CreatedAt  time.Time    `json:"createdAt"`
	Synced     bool         `json:"synced"`
}

// EntryFilter narrows a merged view to a date range, direction or
// category. Zero-valued fields match everything.
type EntryFilter struct {
	Start      date.Date
	End        date.Date
	Type       Direction
	CategoryID string
}

// Matches reports whether e passes the filter.
func (f EntryFilter) Matches(e Entry) bool {
	if !f.Start.IsZero() && e.BillDate.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && e.BillDate.After(f.End) {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.CategoryID != "" && e.CategoryID != f.CategoryID {
		return false
	}
	return true
}

// FilterEntries returns the entries passing the filter, preserving
// order.
func FilterEntries(entries []Entry, f EntryFilter) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
