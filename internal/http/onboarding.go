package http

import (
	"net/http"
	"strconv"

	"neuropulse/internal/models"
	"neuropulse/internal/onboarding"
	"neuropulse/internal/suggestions"

	"github.com/go-chi/chi/v5"
)

type onboardingResponse struct {
	onboarding.Wizard
	Presets map[models.Category][]string `json:"presets"`
}

type stepRequest struct {
	Completed bool `json:"completed"`
}

func wizardResponse(w onboarding.Wizard) onboardingResponse {
	presets := map[models.Category][]string{}
	for _, c := range w.SelectedCategories {
		presets[c] = suggestions.Presets[c]
	}
	return onboardingResponse{Wizard: w, Presets: presets}
}

// withWizard runs fn on the caller's wizard and writes the resulting snapshot.
func (a *API) withWizard(w http.ResponseWriter, r *http.Request, fn func(wz *onboarding.Wizard) error) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	snapshot, err := a.Onboarding.Do(userID, fn)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to update onboarding")
		return
	}
	writeJSON(w, http.StatusOK, wizardResponse(snapshot))
}

func (a *API) handleGetOnboarding(w http.ResponseWriter, r *http.Request) {
	a.withWizard(w, r, nil)
}

func (a *API) handleOnboardingNext(w http.ResponseWriter, r *http.Request) {
	a.withWizard(w, r, (*onboarding.Wizard).NextStep)
}

func (a *API) handleOnboardingPrevious(w http.ResponseWriter, r *http.Request) {
	a.withWizard(w, r, func(wz *onboarding.Wizard) error {
		wz.PreviousStep()
		return nil
	})
}

func (a *API) handleOnboardingReset(w http.ResponseWriter, r *http.Request) {
	a.withWizard(w, r, func(wz *onboarding.Wizard) error {
		wz.Reset()
		return nil
	})
}

func (a *API) handleOnboardingStep(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Step index must be a number")
		return
	}
	var req stepRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a.withWizard(w, r, func(wz *onboarding.Wizard) error {
		return wz.SetStepCompleted(index, req.Completed)
	})
}

func (a *API) handleOnboardingAddCategory(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	a.withWizard(w, r, func(wz *onboarding.Wizard) error {
		return wz.AddCategory(category)
	})
}

func (a *API) handleOnboardingRemoveCategory(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	a.withWizard(w, r, func(wz *onboarding.Wizard) error {
		wz.RemoveCategory(category)
		return nil
	})
}

func (a *API) handleOnboardingAddSuggestion(w http.ResponseWriter, r *http.Request) {
	var req suggestionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	a.withWizard(w, r, func(wz *onboarding.Wizard) error {
		_, err := wz.AddSuggestion(models.UserSuggestion{Category: category, Action: req.Action})
		return err
	})
}

func (a *API) handleOnboardingRemoveSuggestion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.withWizard(w, r, func(wz *onboarding.Wizard) error {
		wz.RemoveSuggestion(id)
		return nil
	})
}

// handleOnboardingComplete finishes the wizard, copies it into the profile and
// drops the in-memory progress.
func (a *API) handleOnboardingComplete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	snapshot, err := a.Onboarding.Do(userID, (*onboarding.Wizard).Complete)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to complete onboarding")
		return
	}
	profile, err := a.Service.CompleteOnboarding(r.Context(), userID, snapshot)
	if err != nil {
		a.writeFailure(w, r, err, "Failed to save onboarding")
		return
	}
	a.Onboarding.Forget(userID)
	writeJSON(w, http.StatusOK, a.withTotals(r.Context(), profile))
}
