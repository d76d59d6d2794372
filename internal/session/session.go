// Package session persists the authenticated session: access and
// refresh tokens plus the currently selected ledger. Tokens live in
// the KV store so a restart continues where the last run stopped.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"

	"github.com/jlzm/MoneyNotes/internal/infra/kv"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

// tokenBlob is the persisted session payload.
type tokenBlob struct {
	Version      int    `json:"version"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

const blobVersion = 1

// Session holds the tokens in memory and mirrors every change to the
// KV store. Safe for concurrent use.
type Session struct {
	store  kv.Store
	logger *logger.Logger

	mu       sync.RWMutex
	access   string
	refresh  string
	ledgerID string
}

// New creates an empty session backed by the store.
func New(store kv.Store, log *logger.Logger) *Session {
	return &Session{
		store:  store,
		logger: log.WithField("component", "session"),
	}
}

// Load restores the persisted tokens and ledger selection. A missing
// blob leaves the session logged out; a corrupt blob is an error.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.store.Read(ctx, kv.KeySession)
	if err != nil {
		return apperrors.Persistence("failed to read session", err)
	}
	if ok {
		var blob tokenBlob
		if err := json.Unmarshal([]byte(raw), &blob); err != nil {
			return apperrors.Persistence("corrupt session blob", err)
		}
		s.access = blob.AccessToken
		s.refresh = blob.RefreshToken
	}

	ledgerID, ok, err := s.store.Read(ctx, kv.KeyCurrentLedgerID)
	if err != nil {
		return apperrors.Persistence("failed to read current ledger", err)
	}
	if ok {
		s.ledgerID = ledgerID
	}
	return nil
}

// SetTokens stores a new token pair, persisting before updating the
// in-memory copy. An empty refresh token keeps the previous one, as
// the refresh endpoint only rotates the access token.
func (s *Session) SetTokens(ctx context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if refresh == "" {
		refresh = s.refresh
	}

	blob := tokenBlob{Version: blobVersion, AccessToken: access, RefreshToken: refresh}
	encoded, err := json.Marshal(blob)
	if err != nil {
		return apperrors.Internal("failed to encode session", err)
	}
	if err := s.store.Write(ctx, kv.KeySession, string(encoded)); err != nil {
		return apperrors.Persistence("failed to persist session", err)
	}

	s.access = access
	s.refresh = refresh
	return nil
}

// Clear logs out: tokens are removed from memory and the store. The
// ledger selection survives a logout.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, kv.KeySession); err != nil {
		return apperrors.Persistence("failed to clear session", err)
	}
	s.access = ""
	s.refresh = ""
	return nil
}

// AccessToken returns the current access token, empty when logged
// out. Satisfies the remote client's token source.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access, nil
}

// RefreshToken returns the stored refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// Authenticated reports whether an access token is present. It says
// nothing about the token still being valid server-side.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access != ""
}

// ExpiresWithin reports whether the access token's exp claim falls
// within d from now. The token is decoded without signature
// verification: the client holds no signing key, and a forged exp
// only affects when we ask for a refresh. Tokens without a readable
// exp claim are treated as expiring, which forces a refresh attempt.
func (s *Session) ExpiresWithin(d time.Duration) bool {
	s.mu.RLock()
	token := s.access
	s.mu.RUnlock()

	if token == "" {
		return true
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		s.logger.Debug("failed to peek token claims", "error", err)
		return true
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Until(exp.Time) < d
}

// CurrentLedgerID returns the selected ledger, empty when none is
// selected yet.
func (s *Session) CurrentLedgerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledgerID
}

// SetCurrentLedgerID persists the ledger selection.
func (s *Session) SetCurrentLedgerID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Write(ctx, kv.KeyCurrentLedgerID, id); err != nil {
		return apperrors.Persistence("failed to persist ledger selection", err)
	}
	s.ledgerID = id
	return nil
}
