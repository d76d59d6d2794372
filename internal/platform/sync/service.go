// Package sync runs the background reconciliation loop: pending bills
// are pushed to the server oldest-first, confirmed identities replace
// temporary ones, and the confirmed set is refreshed from the server.
package sync

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"

	"github.com/jlzm/MoneyNotes/pkg/logger"
)

// Service handles background bill synchronization
type Service struct {
	config  *Config
	api     BillAPI
	store   BillStore
	session SessionStore
	logger  *logger.Logger
	stopCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewService creates a new sync service
func NewService(config *Config, api BillAPI, store BillStore, session SessionStore, log *logger.Logger) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	_ = config.Validate()

	return &Service{
		config:  config,
		api:     api,
		store:   store,
		session: session,
		logger:  log.WithField("service", "sync"),
		stopCh:  make(chan struct{}),
	}
}

// Run starts the background sync loop. It blocks until the context is
// cancelled or Stop is called, syncing once immediately and then on
// every tick.
func (s *Service) Run(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info("sync service is disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting sync service", "poll_interval", s.config.PollInterval)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.SyncOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync service stopping (context done)")
			return
		case <-s.stopCh:
			s.logger.Info("sync service stopping (stop signal)")
			return
		case <-ticker.C:
			s.SyncOnce(ctx)
		}
	}
}

// Stop stops the sync service
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// SyncOnce runs a single sync cycle. Each step degrades
// independently: a failed submission leaves that pending bill (and
// the ones behind it) for the next cycle, and a failed pull keeps the
// previous confirmed set.
func (s *Service) SyncOnce(ctx context.Context) {
	if !s.session.Authenticated() {
		s.logger.Debug("skipping sync, not authenticated")
		return
	}
	ledgerID := s.session.CurrentLedgerID()
	if ledgerID == "" {
		s.logger.Debug("skipping sync, no ledger selected")
		return
	}

	if s.session.ExpiresWithin(s.config.RefreshLeeway) {
		if err := s.refreshToken(ctx); err != nil {
			s.logger.Warn("token refresh failed", "error", err)
			return
		}
	}

	// Writes that failed to reach disk earlier get another chance
	// before we talk to the network.
	if err := s.store.FlushPending(ctx); err != nil {
		s.logger.Warn("failed to flush pending bills", "error", err)
	}

	s.pushPending(ctx, ledgerID)
	s.pullConfirmed(ctx, ledgerID)
}

// pushPending submits pending bills oldest-first and reconciles each
// confirmed identity. Submission stops at the first failure so bills
// reach the server in entry order.
func (s *Service) pushPending(ctx context.Context, ledgerID string) {
	pending := s.store.Pending()
	if len(pending) == 0 {
		return
	}

	start := time.Now()
	submitted := 0
	for _, p := range pending {
		confirmed, err := s.api.SubmitBill(ctx, ledgerID, p)
		if err != nil {
			if apperrors.IsUnauthorized(err) {
				if err := s.refreshToken(ctx); err != nil {
					s.logger.Warn("token refresh failed", "error", err)
					return
				}
				confirmed, err = s.api.SubmitBill(ctx, ledgerID, p)
			}
			if err != nil {
				s.logger.Warn("bill submission failed, will retry next cycle",
					"local_id", p.LocalID, "error", err)
				return
			}
		}
		if err := s.store.Reconcile(ctx, p.LocalID, confirmed); err != nil {
			s.logger.Error("reconciliation failed",
				"local_id", p.LocalID, "server_id", confirmed.ID, "error", err)
			return
		}
		submitted++
	}

	s.logger.Info("pending bills submitted",
		"count", submitted, "duration_ms", time.Since(start).Milliseconds())
}

// pullConfirmed replaces the confirmed set with the server's view.
func (s *Service) pullConfirmed(ctx context.Context, ledgerID string) {
	bills, err := s.api.FetchAllBills(ctx, ledgerID)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			if err := s.refreshToken(ctx); err != nil {
				s.logger.Warn("token refresh failed", "error", err)
				return
			}
			bills, err = s.api.FetchAllBills(ctx, ledgerID)
		}
		if err != nil {
			s.logger.Warn("failed to fetch confirmed bills", "error", err)
			return
		}
	}
	s.store.SetConfirmed(bills)
	s.logger.Debug("confirmed set refreshed", "count", len(bills))
}

func (s *Service) refreshToken(ctx context.Context) error {
	refreshed, err := s.api.Refresh(ctx, s.session.RefreshToken())
	if err != nil {
		return err
	}
	return s.session.SetTokens(ctx, refreshed.AccessToken, "")
}
