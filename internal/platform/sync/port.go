package sync

import (
	"context"
	"time"

	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/internal/remote"
)

// BillAPI is the slice of the remote client the sync service uses.
type BillAPI interface {
	SubmitBill(ctx context.Context, ledgerID string, p ledger.PendingBill) (ledger.Bill, error)
	FetchAllBills(ctx context.Context, ledgerID string) ([]ledger.Bill, error)
	Refresh(ctx context.Context, refreshToken string) (remote.RefreshResponse, error)
}

// SessionStore exposes the session state the sync service needs to
// decide whether and on whose behalf to sync.
type SessionStore interface {
	Authenticated() bool
	CurrentLedgerID() string
	ExpiresWithin(d time.Duration) bool
	RefreshToken() string
	SetTokens(ctx context.Context, access, refresh string) error
}

// BillStore is the local ledger store the service pushes from and
// pulls into.
type BillStore interface {
	FlushPending(ctx context.Context) error
	Pending() []ledger.PendingBill
	Reconcile(ctx context.Context, localID string, confirmed ledger.Bill) error
	SetConfirmed(bills []ledger.Bill)
}
