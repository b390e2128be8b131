package http

import (
	"net/http"
	"strings"

	"neuropulse/internal/models"
	"neuropulse/internal/reward"
	"neuropulse/internal/service"
	"neuropulse/internal/suggestions"
	"neuropulse/internal/tracker"

	"github.com/go-chi/chi/v5"
)

type impulseRequest struct {
	Name       string `json:"name"`
	Strength   int    `json:"strength"`
	Result     string `json:"result"`
	Category   string `json:"category"`
	Redirected bool   `json:"redirected"`
}

// impulseUpdateRequest carries the editable fields only. Redirected is fixed
// when the impulse is logged and is ignored if sent.
type impulseUpdateRequest struct {
	Name      *string `json:"name"`
	Result    *string `json:"result"`
	Completed *bool   `json:"completed"`
}

type impulsesResponse struct {
	Impulses          []models.ImpulseRecord `json:"impulses"`
	TodaysCount       int                    `json:"todaysCount"`
	TotalRedirections int                    `json:"totalRedirections"`
}

type categoryRequest struct {
	Category string `json:"category"`
}

type rewardsResponse struct {
	TotalRedirections int                     `json:"totalRedirections"`
	Settings          models.RewardThresholds `json:"settings"`
	Tiers             []reward.TierStatus     `json:"tiers"`
}

type suggestionsResponse struct {
	Presets  []suggestions.Match     `json:"presets"`
	Personal []models.UserSuggestion `json:"personal"`
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.State(r.Context(), userID))
}

func (a *API) handleListImpulses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state := a.Tracker.State(r.Context(), userID)
	writeJSON(w, http.StatusOK, impulsesResponse{
		Impulses:          state.Redirections,
		TodaysCount:       tracker.TodaysCount(state, a.Tracker.Today()),
		TotalRedirections: state.TotalRedirections,
	})
}

func (a *API) handleCreateImpulse(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req impulseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	rec, err := a.Tracker.Log(r.Context(), userID, tracker.Draft{
		Name:       req.Name,
		Strength:   req.Strength,
		Result:     req.Result,
		Category:   category,
		Redirected: req.Redirected,
	})
	if err != nil {
		a.writeFailure(w, r, err, "Failed to log impulse")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) handleUpdateImpulse(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	var req impulseUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var current *models.ImpulseRecord
	for _, rec := range a.Tracker.State(r.Context(), userID).Redirections {
		if rec.ID == id {
			rec := rec
			current = &rec
			break
		}
	}
	if current == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Impulse not found")
		return
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name required")
			return
		}
		current.Name = strings.TrimSpace(*req.Name)
	}
	if req.Result != nil {
		current.Result = strings.TrimSpace(*req.Result)
	}
	if req.Completed != nil {
		current.Completed = *req.Completed
	}
	for _, rec := range a.Tracker.UpdateImpulse(r.Context(), userID, *current) {
		if rec.ID == id {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Impulse not found")
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.Tracker.Summary(r.Context(), userID))
}

func (a *API) handleSelectCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if err := a.Tracker.SelectCategory(r.Context(), userID, category); err != nil {
		a.writeFailure(w, r, err, "Failed to select category")
		return
	}
	writeJSON(w, http.StatusOK, categoryRequest{Category: string(category)})
}

func (a *API) rewards(r *http.Request, userID string) rewardsResponse {
	state := a.Tracker.State(r.Context(), userID)
	return rewardsResponse{
		TotalRedirections: state.TotalRedirections,
		Settings:          state.RewardSettings,
		Tiers:             reward.Evaluate(state.TotalRedirections, state.RewardSettings),
	}
}

func (a *API) handleListRewards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a.rewards(r, userID))
}

// handleUpdateRewards validates the thresholds, stores them on the profile and
// then on the state document. Claims read the state copy, so it is written
// last and only once the profile accepted the change.
func (a *API) handleUpdateRewards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var settings models.RewardThresholds
	if !decodeJSON(w, r, &settings) {
		return
	}
	if err := reward.Validate(settings); err != nil {
		a.writeFailure(w, r, err, "Failed to update rewards")
		return
	}
	if _, err := a.Service.UpdateUserProfile(r.Context(), userID, service.ProfilePatch{RewardSettings: &settings}); err != nil {
		a.writeFailure(w, r, err, "Failed to update profile")
		return
	}
	if _, err := a.Tracker.SetThresholds(r.Context(), userID, settings); err != nil {
		a.writeFailure(w, r, err, "Failed to update rewards")
		return
	}
	writeJSON(w, http.StatusOK, a.rewards(r, userID))
}

func (a *API) handleClaimReward(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	tier, err := reward.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		a.writeFailure(w, r, err, "Failed to claim reward")
		return
	}
	result, err := a.Tracker.Claim(r.Context(), userID, tier)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to claim reward")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var category models.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		c, err := models.ParseCategory(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		category = c
	}
	query := r.URL.Query().Get("q")

	resp := suggestionsResponse{
		Presets:  suggestions.Search(category, query),
		Personal: []models.UserSuggestion{},
	}
	if resp.Presets == nil {
		resp.Presets = []suggestions.Match{}
	}
	profile, err := a.Service.GetUserProfile(r.Context(), userID)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to load profile")
		return
	}
	q := strings.ToLower(strings.TrimSpace(query))
	for _, s := range profile.PersonalSuggestions {
		if category != "" && s.Category != category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(s.Action), q) {
			continue
		}
		resp.Personal = append(resp.Personal, s)
	}
	writeJSON(w, http.StatusOK, resp)
}
