package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neuropulse/internal/auth"
	"neuropulse/internal/models"
	"neuropulse/internal/repo"
	"neuropulse/internal/service"
	"neuropulse/internal/storage"
	"neuropulse/internal/storage/memory"
	"neuropulse/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type resetCapture struct {
	token string
}

func (c *resetCapture) PasswordReset(_ context.Context, _, token string, _ time.Time) {
	c.token = token
}

func newTestAPI(t *testing.T) *API {
	t.Helper()
	log := zap.NewNop()
	adapter := storage.NewAdapter(memory.New(), log, models.ProfileThresholds())
	svc := service.New(repo.NewMemory(), auth.NewManager("test-secret"), log)
	return &API{
		Tracker:       tracker.New(adapter),
		Service:       svc,
		Auth:          svc.Auth,
		Log:           log,
		AuthRateLimit: 100,
	}
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[errorResponse](t, rec).Error.Code
}

func signUp(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/auth/register", "", registerRequest{
		Email: email, Password: "secret1", PasswordConfirm: "secret1", DisplayName: "Tester",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = call(t, h, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[service.Tokens](t, rec).AccessToken
}

func logImpulse(t *testing.T, h http.Handler, token string, redirected bool) models.ImpulseRecord {
	t.Helper()
	rec := call(t, h, http.MethodPost, "/impulses", token, impulseRequest{
		Name: "Scrolling", Strength: 6, Category: "explorer", Redirected: redirected,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.ImpulseRecord](t, rec)
}

func TestHealth(t *testing.T) {
	h := newTestAPI(t).Router()
	rec := call(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newTestAPI(t).Router()
	for _, path := range []string{"/me", "/state", "/impulses", "/rewards", "/onboarding"} {
		rec := call(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := call(t, h, http.MethodGet, "/me", "garbage", nil)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

func TestRegisterAndLogin(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")

	rec := call(t, h, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.com", decode[models.User](t, rec).Email)

	rec = call(t, h, http.MethodPost, "/auth/register", "", registerRequest{Email: "a@b.com", Password: "secret1", PasswordConfirm: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, rec))

	rec = call(t, h, http.MethodPost, "/auth/register", "", registerRequest{Email: "c@d.com", Password: "secret1", PasswordConfirm: "secret2"})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = call(t, h, http.MethodPost, "/auth/login", "", loginRequest{Email: "a@b.com", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
}

func TestImpulsesAndRewardClaim(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")

	for i := 0; i < 5; i++ {
		rec := logImpulse(t, h, token, true)
		assert.Equal(t, i+1, rec.RedirectionCount)
	}
	logImpulse(t, h, token, false)

	rec := call(t, h, http.MethodGet, "/impulses", token, nil)
	list := decode[impulsesResponse](t, rec)
	assert.Len(t, list.Impulses, 6)
	assert.Equal(t, 6, list.TodaysCount)
	assert.Equal(t, 5, list.TotalRedirections)

	rec = call(t, h, http.MethodGet, "/rewards", token, nil)
	rewards := decode[rewardsResponse](t, rec)
	require.Len(t, rewards.Tiers, 3)
	assert.True(t, rewards.Tiers[0].Achieved)
	assert.False(t, rewards.Tiers[1].Achieved)

	rec = call(t, h, http.MethodPost, "/rewards/small/claim", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, decode[tracker.ClaimResult](t, rec).TotalRedirections)

	rec = call(t, h, http.MethodPost, "/rewards/small/claim", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NOT_ACHIEVED", errorCode(t, rec))

	rec = call(t, h, http.MethodPost, "/rewards/huge/claim", token, nil)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = call(t, h, http.MethodGet, "/stats", token, nil)
	stats := decode[tracker.Summary](t, rec)
	assert.Equal(t, 6, stats.TotalImpulses)
	assert.Equal(t, 83, stats.SuccessRate)
}

func TestCreateImpulseValidation(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")

	rec := call(t, h, http.MethodPost, "/impulses", token, impulseRequest{Name: "x", Strength: 11, Category: "lover"})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
	rec = call(t, h, http.MethodPost, "/impulses", token, impulseRequest{Name: "x", Strength: 3, Category: "pirate"})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = call(t, h, http.MethodGet, "/state", token, nil)
	assert.Empty(t, decode[models.AppState](t, rec).Redirections)
}

func TestUpdateImpulse(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")
	created := logImpulse(t, h, token, true)

	done := true
	name := "  Late snacking "
	rec := call(t, h, http.MethodPut, "/impulses/"+created.ID, token, impulseUpdateRequest{Name: &name, Completed: &done})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.ImpulseRecord](t, rec)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Late snacking", updated.Name)
	assert.Equal(t, created.Date, updated.Date)
	assert.Equal(t, created.Strength, updated.Strength)

	blank := " "
	rec = call(t, h, http.MethodPut, "/impulses/"+created.ID, token, impulseUpdateRequest{Name: &blank})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = call(t, h, http.MethodPut, "/impulses/missing", token, impulseUpdateRequest{Completed: &done})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateIgnoresRedirectedFlag(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")
	created := logImpulse(t, h, token, true)

	rec := call(t, h, http.MethodPut, "/impulses/"+created.ID, token, map[string]any{"redirected": false, "completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.ImpulseRecord](t, rec)
	assert.True(t, updated.Redirected)
	assert.True(t, updated.Completed)

	rec = call(t, h, http.MethodGet, "/state", token, nil)
	assert.Equal(t, 1, decode[models.AppState](t, rec).TotalRedirections)
}

func TestImpulseListKeys(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")
	logImpulse(t, h, token, true)

	for _, path := range []string{"/impulses", "/rewards"} {
		rec := call(t, h, http.MethodGet, path, token, nil)
		body := decode[map[string]json.RawMessage](t, rec)
		assert.Contains(t, body, "totalRedirections", path)
		assert.NotContains(t, body, "total_redirections", path)
	}
}

func TestStateIsPerUser(t *testing.T) {
	h := newTestAPI(t).Router()
	alice := signUp(t, h, "alice@b.com")
	bob := signUp(t, h, "bob@b.com")

	logImpulse(t, h, alice, true)

	rec := call(t, h, http.MethodGet, "/state", bob, nil)
	assert.Empty(t, decode[models.AppState](t, rec).Redirections)
}

func TestUpdateRewardsSyncsProfile(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")

	settings := models.ProfileThresholds()
	settings.Small.Threshold = 2
	rec := call(t, h, http.MethodPut, "/rewards", token, settings)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[rewardsResponse](t, rec).Settings.Small.Threshold)

	rec = call(t, h, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, 2, decode[models.UserProfile](t, rec).RewardSettings.Small.Threshold)

	settings.Small.Threshold = 0
	rec = call(t, h, http.MethodPut, "/rewards", token, settings)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = call(t, h, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, 2, decode[models.UserProfile](t, rec).RewardSettings.Small.Threshold)
	rec = call(t, h, http.MethodGet, "/rewards", token, nil)
	assert.Equal(t, 2, decode[rewardsResponse](t, rec).Settings.Small.Threshold)
}

func TestProfileTotalsFollowState(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")
	logImpulse(t, h, token, true)
	logImpulse(t, h, token, false)

	rec := call(t, h, http.MethodGet, "/profile", token, nil)
	p := decode[models.UserProfile](t, rec)
	assert.Equal(t, 2, p.TotalImpulses)
	assert.Equal(t, 1, p.TotalRedirections)
	assert.Equal(t, "Tester", p.DisplayName)
}

func TestSuggestions(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")

	rec := call(t, h, http.MethodPost, "/profile/suggestions", token, suggestionRequest{Category: "achiever", Action: "Juggle three oranges"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/suggestions?category=achiever&q=juggle", token, nil)
	resp := decode[suggestionsResponse](t, rec)
	require.Len(t, resp.Personal, 1)
	assert.Empty(t, resp.Presets)

	rec = call(t, h, http.MethodGet, "/suggestions?category=lover", token, nil)
	resp = decode[suggestionsResponse](t, rec)
	assert.Empty(t, resp.Personal)
	assert.NotEmpty(t, resp.Presets)
	for _, m := range resp.Presets {
		assert.Equal(t, models.CategoryLover, m.Category)
	}

	rec = call(t, h, http.MethodGet, "/suggestions?category=pirate", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOnboardingFlow(t *testing.T) {
	h := newTestAPI(t).Router()
	token := signUp(t, h, "a@b.com")

	rec := call(t, h, http.MethodPost, "/onboarding/next", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "STEP_INCOMPLETE", errorCode(t, rec))

	rec = call(t, h, http.MethodPut, "/onboarding/steps/0", token, stepRequest{Completed: true})
	assert.Equal(t, "STEP_INCOMPLETE", errorCode(t, rec))

	rec = call(t, h, http.MethodPost, "/onboarding/categories/lover", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	wz := decode[onboardingResponse](t, rec)
	assert.Equal(t, []models.Category{models.CategoryLover}, wz.SelectedCategories)
	assert.NotEmpty(t, wz.Presets[models.CategoryLover])

	rec = call(t, h, http.MethodPost, "/onboarding/suggestions", token, suggestionRequest{Category: "lover", Action: "Call mum"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, "/onboarding/complete", token, nil)
	assert.Equal(t, "STEP_INCOMPLETE", errorCode(t, rec))

	for i := 0; i < 3; i++ {
		rec = call(t, h, http.MethodPut, "/onboarding/steps/"+string(rune('0'+i)), token, stepRequest{Completed: true})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = call(t, h, http.MethodPost, "/onboarding/next", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	assert.Equal(t, 2, decode[onboardingResponse](t, rec).CurrentStep)

	rec = call(t, h, http.MethodPut, "/onboarding/steps/7", token, stepRequest{Completed: true})
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))

	rec = call(t, h, http.MethodPost, "/onboarding/complete", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[models.UserProfile](t, rec)
	assert.True(t, p.OnboardingCompleted)
	assert.Equal(t, []models.Category{models.CategoryLover}, p.SelectedCategories)
	require.Len(t, p.PersonalSuggestions, 1)

	rec = call(t, h, http.MethodGet, "/onboarding", token, nil)
	assert.Equal(t, 0, decode[onboardingResponse](t, rec).CurrentStep)
}

func TestPasswordResetRoutes(t *testing.T) {
	api := newTestAPI(t)
	capture := &resetCapture{}
	api.Service.Notifier = capture
	h := api.Router()
	signUp(t, h, "a@b.com")

	rec := call(t, h, http.MethodPost, "/auth/password-reset", "", resetRequest{Email: "a@b.com"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, capture.token)

	rec = call(t, h, http.MethodPost, "/auth/password-reset/confirm", "", resetConfirmRequest{Token: capture.token, Password: "fresh1", PasswordConfirm: "fresh1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, "/auth/password-reset/confirm", "", resetConfirmRequest{Token: capture.token, Password: "fresh1", PasswordConfirm: "fresh1"})
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))

	rec = call(t, h, http.MethodPost, "/auth/login", "", loginRequest{Email: "a@b.com", Password: "fresh1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	api := newTestAPI(t)
	api.AuthRateLimit = 1
	h := api.Router()

	codes := map[int]int{}
	for i := 0; i < 5; i++ {
		rec := call(t, h, http.MethodPost, "/auth/login", "", loginRequest{Email: "a@b.com", Password: "secret1"})
		codes[rec.Code]++
	}
	assert.Equal(t, 2, codes[http.StatusUnauthorized])
	assert.Equal(t, 3, codes[http.StatusTooManyRequests])
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)
	api.Origins = []string{"https://app.example.com"}
	h := api.Router()

	req := httptest.NewRequest(http.MethodOptions, "/impulses", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
