package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"

	"github.com/jlzm/MoneyNotes/internal/remote"
	"github.com/jlzm/MoneyNotes/internal/session"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

// AuthHandler proxies authentication to the server and keeps the
// resulting tokens in the local session, plus the ledger selection
// the rest of the app scopes to.
type AuthHandler struct {
	remote  *remote.Client
	session *session.Session
	logger  *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(client *remote.Client, sess *session.Session, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		remote:  client,
		session: sess,
		logger:  log.WithField("handler", "auth"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, apperrors.Validation("email and password are required"))
		return
	}

	auth, err := h.remote.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.session.SetTokens(r.Context(), auth.AccessToken, auth.RefreshToken); err != nil {
		respondError(w, err)
		return
	}

	h.logger.Info("logged in", "user_id", auth.User.ID)
	respondData(w, http.StatusOK, auth.User)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Clear(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}

// ListLedgers handles GET /ledgers
func (h *AuthHandler) ListLedgers(w http.ResponseWriter, r *http.Request) {
	ledgers, err := h.remote.ListLedgers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, ledgers)
}

type selectLedgerRequest struct {
	LedgerID string `json:"ledgerId"`
}

// SelectLedger handles PUT /ledgers/current
func (h *AuthHandler) SelectLedger(w http.ResponseWriter, r *http.Request) {
	var req selectLedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperrors.BadRequest("invalid request body"))
		return
	}
	if req.LedgerID == "" {
		respondError(w, apperrors.Validation("ledgerId is required"))
		return
	}

	if err := h.session.SetCurrentLedgerID(r.Context(), req.LedgerID); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"ledgerId": req.LedgerID})
}

// GetCurrentLedger handles GET /ledgers/current
func (h *AuthHandler) GetCurrentLedger(w http.ResponseWriter, r *http.Request) {
	id := h.session.CurrentLedgerID()
	if id == "" {
		respondError(w, apperrors.NotFound("current ledger"))
		return
	}
	respondData(w, http.StatusOK, map[string]string{"ledgerId": id})
}
