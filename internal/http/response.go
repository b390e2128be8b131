package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"neuropulse/internal/onboarding"
	"neuropulse/internal/repo"
	"neuropulse/internal/reward"
	"neuropulse/internal/service"
	"neuropulse/internal/tracker"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid payload")
		return false
	}
	return true
}

// writeFailure maps domain errors to status codes. Anything unrecognised is
// logged and reported as an internal error with the given message.
func (a *API) writeFailure(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, tracker.ErrValidation),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, reward.ErrUnknownTier),
		errors.Is(err, reward.ErrInvalidThreshold),
		errors.Is(err, onboarding.ErrStepOutOfRange),
		errors.Is(err, onboarding.ErrTooManyCategory),
		errors.Is(err, onboarding.ErrInvalidCategory),
		errors.Is(err, onboarding.ErrEmptySuggestion):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, onboarding.ErrStepIncomplete), errors.Is(err, onboarding.ErrNotFinished):
		writeError(w, http.StatusConflict, "STEP_INCOMPLETE", err.Error())
	case errors.Is(err, reward.ErrNotAchieved):
		writeError(w, http.StatusConflict, "NOT_ACHIEVED", err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials")
	case errors.Is(err, service.ErrResetTokenInvalid):
		writeError(w, http.StatusBadRequest, "INVALID_TOKEN", "Reset token is invalid or expired")
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
	default:
		a.Log.Error(message, zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", message)
	}
}
