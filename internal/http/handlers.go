package http

import (
	"context"
	"net/http"

	"neuropulse/internal/auth"
	"neuropulse/internal/models"
	"neuropulse/internal/service"
)

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	DisplayName     string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type suggestionRequest struct {
	Category string `json:"category"`
	Action   string `json:"action"`
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := a.Service.Register(r.Context(), req.Email, req.Password, req.PasswordConfirm, req.DisplayName)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	tokens, err := a.Service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to sign in")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (a *API) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.Service.ResetPassword(r.Context(), req.Email); err != nil {
		a.writeFailure(w, r, err, "Failed to request password reset")
		return
	}
	writeJSON(w, http.StatusAccepted, statusResponse{Status: "sent"})
}

func (a *API) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := a.Service.ConfirmPasswordReset(r.Context(), req.Token, req.Password, req.PasswordConfirm); err != nil {
		a.writeFailure(w, r, err, "Failed to reset password")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing user")
	}
	return userID, ok
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	user, err := a.Service.Repo.GetUserByID(r.Context(), userID)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// withTotals fills the counters the profile mirrors from the user's state.
func (a *API) withTotals(ctx context.Context, p models.UserProfile) models.UserProfile {
	state := a.Tracker.State(ctx, p.UID)
	p.TotalRedirections = state.TotalRedirections
	p.TotalImpulses = len(state.Redirections)
	return p
}

func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	profile, err := a.Service.GetUserProfile(r.Context(), userID)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, a.withTotals(r.Context(), profile))
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var patch service.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	profile, err := a.Service.UpdateUserProfile(r.Context(), userID, patch)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to update profile")
		return
	}
	if patch.RewardSettings != nil {
		if _, err := a.Tracker.SetThresholds(r.Context(), userID, profile.RewardSettings); err != nil {
			a.writeFailure(w, r, err, "Failed to update rewards")
			return
		}
	}
	writeJSON(w, http.StatusOK, a.withTotals(r.Context(), profile))
}

func (a *API) handleAddProfileSuggestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req suggestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	suggestion, err := a.Service.AddPersonalSuggestion(r.Context(), userID, category, req.Action)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to add suggestion")
		return
	}
	writeJSON(w, http.StatusCreated, suggestion)
}
