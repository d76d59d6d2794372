package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jlzm/MoneyNotes/internal/infra/kv"
	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

// pendingBlobVersion tags the persisted pending-bills blob so future
// field additions can be migrated on read.
const pendingBlobVersion = 1

// pendingBlob is the serialized form of the pending sequence.
type pendingBlob struct {
	Version int           `json:"version"`
	Items   []PendingBill `json:"items"`
}

// Store owns the confirmed and pending bill collections and produces
// the merged view. Pending bills are mutated only through the store's
// own operations, which serializes reconcile against add/discard for
// the same temporary ID.
type Store struct {
	store  kv.Store
	logger *logger.Logger

	mu        sync.Mutex
	confirmed []Bill
	pending   []PendingBill
	dirty     bool // pending blob failed to persist and needs a retry

	now func() time.Time
}

// NewStore creates a ledger store persisting through kv.
func NewStore(store kv.Store, log *logger.Logger) *Store {
	return &Store{
		store:  store,
		logger: log.WithField("component", "ledger"),
		now:    time.Now,
	}
}

// Load restores the pending sequence from the persisted blob. An
// absent blob means a fresh store; a corrupt blob is an error so the
// caller can decide instead of silently dropping the user's bills.
func (s *Store) Load(ctx context.Context) error {
	raw, found, err := s.store.Read(ctx, kv.KeyPendingBills)
	if err != nil {
		return apperrors.Persistence("could not load pending bills", err)
	}
	if !found {
		return nil
	}

	var blob pendingBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return apperrors.Persistence("pending bills blob is corrupt", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = blob.Items
	return nil
}

// SetConfirmed replaces the confirmed set after a fetch. Pending
// entries are not touched.
func (s *Store) SetConfirmed(bills []Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.confirmed = make([]Bill, len(bills))
	copy(s.confirmed, bills)
}

// AddPending constructs a PendingBill with a fresh temporary ID and
// appends it. The entry is kept in memory even when the persistence
// write fails (the UI must keep showing it); the store is then marked
// dirty and FlushPending retries the write. The returned PendingBill
// is valid in both cases.
func (s *Store) AddPending(ctx context.Context, spec BillSpec) (PendingBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := PendingBill{
		LocalID:    s.newLocalID(),
		Type:       spec.Type,
		Amount:     spec.Amount,
		CategoryID: spec.CategoryID,
		Note:       spec.Note,
		BillDate:   spec.BillDate,
		CreatedAt:  s.now(),
		Synced:     false,
	}
	s.pending = append(s.pending, p)

	if err := s.persistPendingLocked(ctx); err != nil {
		s.dirty = true
		s.logger.WithError(err).Warn("pending bill kept in memory, persistence failed",
			"local_id", p.LocalID)
		return p, apperrors.Persistence("could not save bill locally", err)
	}
	return p, nil
}

// Reconcile removes the pending bill with the given temporary ID and
// inserts the server-confirmed bill into the confirmed set, so the
// merged view never momentarily drops the bill between confirmation
// and the next fetch. Reconciling an unknown or already-reconciled ID
// is a logged no-op: duplicate confirmations from retried submissions
// must be tolerated.
func (s *Store) Reconcile(ctx context.Context, localID string, confirmed Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfPendingLocked(localID)
	if idx < 0 {
		s.logger.Debug("reconcile for unknown pending bill ignored",
			"local_id", localID, "bill_id", confirmed.ID)
		return nil
	}

	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)

	// Deduplicate by server ID in case a fetch already delivered it.
	exists := false
	for _, b := range s.confirmed {
		if b.ID == confirmed.ID {
			exists = true
			break
		}
	}
	if !exists {
		s.confirmed = append(s.confirmed, confirmed)
	}

	if err := s.persistPendingLocked(ctx); err != nil {
		s.dirty = true
		return apperrors.Persistence("could not persist reconciled state", err)
	}
	return nil
}

// DiscardPending removes a pending bill without reconciliation, for
// user-cancelled entries.
func (s *Store) DiscardPending(ctx context.Context, localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfPendingLocked(localID)
	if idx < 0 {
		return apperrors.NotFound("pending bill")
	}

	s.pending = append(s.pending[:idx], s.pending[idx+1:]...)

	if err := s.persistPendingLocked(ctx); err != nil {
		s.dirty = true
		return apperrors.Persistence("could not persist discarded state", err)
	}
	return nil
}

// RemoveConfirmed drops a confirmed bill from the local set after a
// successful remote delete.
func (s *Store) RemoveConfirmed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.confirmed {
		if b.ID == id {
			s.confirmed = append(s.confirmed[:i], s.confirmed[i+1:]...)
			return
		}
	}
}

// UpsertConfirmed replaces a confirmed bill with the server's latest
// view of it, or appends it when unseen.
func (s *Store) UpsertConfirmed(bill Bill) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, b := range s.confirmed {
		if b.ID == bill.ID {
			s.confirmed[i] = bill
			return
		}
	}
	s.confirmed = append(s.confirmed, bill)
}

// MergedView returns the single date-ordered sequence combining
// confirmed and pending bills: transaction date descending, entries
// sharing a date keep each source's relative order. Pure read; safe
// to call arbitrarily often.
func (s *Store) MergedView() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.confirmed)+len(s.pending))
	for _, b := range s.confirmed {
		entries = append(entries, Entry{
			ID:         b.ID,
			Type:       b.Type,
			Amount:     b.Amount,
			CategoryID: b.CategoryID,
			Note:       b.Note,
			BillDate:   b.BillDate,
			CreatedAt:  b.CreatedAt,
			Synced:     true,
		})
	}
	for _, p := range s.pending {
		entries = append(entries, Entry{
			ID:         p.LocalID,
			Type:       p.Type,
			Amount:     p.Amount,
			CategoryID: p.CategoryID,
			Note:       p.Note,
			BillDate:   p.BillDate,
			CreatedAt:  p.CreatedAt,
			Synced:     false,
		})
	}

	// Stable sort keeps per-source insertion order for equal dates.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].BillDate.After(entries[j].BillDate)
	})
	return entries
}

// Pending returns a copy of the pending sequence, oldest first.
func (s *Store) Pending() []PendingBill {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingBill, len(s.pending))
	copy(out, s.pending)
	return out
}

// FlushPending retries the pending blob write if an earlier write
// failed. No-op when the store is clean.
func (s *Store) FlushPending(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := s.persistPendingLocked(ctx); err != nil {
		return apperrors.Persistence("could not flush pending bills", err)
	}
	s.dirty = false
	return nil
}

// persistPendingLocked serializes the pending sequence and writes the
// blob. Caller must hold s.mu.
func (s *Store) persistPendingLocked(ctx context.Context) error {
	blob := pendingBlob{Version: pendingBlobVersion, Items: s.pending}
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to marshal pending bills: %w", err)
	}
	return s.store.Write(ctx, kv.KeyPendingBills, string(data))
}

// indexOfPendingLocked returns the index of the pending bill with the
// given temporary ID, or -1. Caller must hold s.mu.
func (s *Store) indexOfPendingLocked(localID string) int {
	for i, p := range s.pending {
		if p.LocalID == localID {
			return i
		}
	}
	return -1
}

// newLocalID builds a temporary bill ID from the current clock plus a
// random suffix. IDs are unique for the lifetime of the store and are
// never reused.
func (s *Store) newLocalID() string {
	return fmt.Sprintf("local_%d_%s", s.now().UnixNano(), uuid.NewString()[:8])
}
