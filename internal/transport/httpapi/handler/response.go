package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jlzm/MoneyNotes/internal/shared/errors"
)

// Responses use the same {code, message, data} envelope as the
// MoneyNotes server, so the UI consumes both interchangeably.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Business codes mirrored onto HTTP statuses.
const (
	codeOK           = 0
	codeBadRequest   = 40000
	codeUnauthorized = 40100
	codeNotFound     = 40400
	codeConflict     = 40900
	codeInternal     = 50000
	codeUpstream     = 50200
)

// respondData sends a success envelope
func respondData(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope{Code: codeOK, Message: "success", Data: data})
}

// respondError maps an application error onto the envelope and an
// HTTP status
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := codeInternal
	message := "internal error"

	if appErr := apperrors.GetAppError(err); appErr != nil {
		message = appErr.Message
		switch appErr.Code {
		case apperrors.ErrCodeValidation, apperrors.ErrCodeBadRequest:
			status, code = http.StatusBadRequest, codeBadRequest
		case apperrors.ErrCodeUnauthorized:
			status, code = http.StatusUnauthorized, codeUnauthorized
		case apperrors.ErrCodeNotFound:
			status, code = http.StatusNotFound, codeNotFound
		case apperrors.ErrCodeConflict:
			status, code = http.StatusConflict, codeConflict
		case apperrors.ErrCodeNetwork:
			status, code = http.StatusBadGateway, codeUpstream
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Code: code, Message: message})
}
