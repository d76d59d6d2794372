package remote

import (
	"encoding/json"
	"time"

	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/pkg/date"
	"github.com/jlzm/MoneyNotes/pkg/money"
)

// envelope is the uniform response wrapper of the MoneyNotes API.
// Code 0 means success; 10002 and 20003 signal an expired or invalid
// token and require a refresh.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

const (
	codeOK             = 0
	codeTokenExpired   = 10002
	codeRefreshExpired = 20003
)

// wireCategory is the nested category object the API embeds in every
// bill instead of a bare ID.
type wireCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// wireUser identifies the bill's author within a shared ledger.
type wireUser struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname,omitempty"`
}

// wireBill is a bill as the server represents it.
type wireBill struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Amount    money.Amount `json:"amount"`
	Category  wireCategory `json:"category"`
	Note      string       `json:"note,omitempty"`
	BillDate  date.Date    `json:"billDate"`
	User      wireUser     `json:"user"`
	CreatedAt time.Time    `json:"createdAt"`
}

// toBill flattens the wire representation into the ledger's confirmed
// bill shape. The nested category collapses to its ID; names and
// icons are resolved locally at display time.
func (w wireBill) toBill() ledger.Bill {
	return ledger.Bill{
		ID:         w.ID,
		Type:       ledger.Direction(w.Type),
		Amount:     w.Amount,
		CategoryID: w.Category.ID,
		Note:       w.Note,
		BillDate:   w.BillDate,
		CreatedAt:  w.CreatedAt,
	}
}

// createBillRequest is the POST /bills payload.
type createBillRequest struct {
	LedgerID   string       `json:"ledgerId"`
	CategoryID string       `json:"categoryId"`
	Type       string       `json:"type"`
	Amount     money.Amount `json:"amount"`
	Note       string       `json:"note,omitempty"`
	BillDate   date.Date    `json:"billDate"`
}

// UpdateBillRequest carries the mutable fields of a confirmed bill.
// Nil fields are omitted and left unchanged by the server.
type UpdateBillRequest struct {
	CategoryID *string       `json:"categoryId,omitempty"`
	Type       *string       `json:"type,omitempty"`
	Amount     *money.Amount `json:"amount,omitempty"`
	Note       *string       `json:"note,omitempty"`
	BillDate   *date.Date    `json:"billDate,omitempty"`
}

// Pagination describes one page of a paginated listing.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// billListResponse is the GET /bills payload.
type billListResponse struct {
	Items      []wireBill `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// BillQuery narrows a server-side bill listing.
type BillQuery struct {
	LedgerID   string
	StartDate  date.Date
	EndDate    date.Date
	Type       ledger.Direction
	CategoryID string
	Page       int
	PageSize   int
}

// Ledger is a server-side ledger the user participates in.
type Ledger struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

// ledgerListResponse is the GET /ledgers payload.
type ledgerListResponse struct {
	Items []Ledger `json:"items"`
}

// User is the account profile returned by auth endpoints.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname,omitempty"`
}

// AuthResponse is the POST /auth/login payload.
type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RefreshResponse is the POST /auth/refresh payload.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}
