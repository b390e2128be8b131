package http

import (
	"net/http"
	"time"

	"neuropulse/internal/auth"
	"neuropulse/internal/onboarding"
	"neuropulse/internal/service"
	"neuropulse/internal/tracker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// API serves one state document per user; the user id is the storage scope.
type API struct {
	Tracker       *tracker.Store
	Service       *service.Service
	Auth          *auth.Manager
	Onboarding    *onboarding.Registry
	Log           *zap.Logger
	Origins       []string
	AuthRateLimit float64
}

func (a *API) Router() http.Handler {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	if a.Onboarding == nil {
		a.Onboarding = onboarding.NewRegistry()
	}
	limit := a.AuthRateLimit
	if limit <= 0 {
		limit = 5
	}
	authLimiter := newRateLimiter(limit, int(2*limit))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(a.loggingMiddleware)
	r.Use(a.corsMiddleware)

	r.Get("/health", a.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter.middleware)
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
		r.Post("/password-reset", a.handlePasswordReset)
		r.Post("/password-reset/confirm", a.handlePasswordResetConfirm)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.authMiddleware)
		r.Get("/me", a.handleMe)
		r.Get("/profile", a.handleGetProfile)
		r.Put("/profile", a.handleUpdateProfile)
		r.Post("/profile/suggestions", a.handleAddProfileSuggestion)

		r.Get("/state", a.handleState)
		r.Get("/impulses", a.handleListImpulses)
		r.Post("/impulses", a.handleCreateImpulse)
		r.Put("/impulses/{id}", a.handleUpdateImpulse)
		r.Get("/stats", a.handleStats)
		r.Put("/category", a.handleSelectCategory)

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", a.handleListRewards)
			r.Put("/", a.handleUpdateRewards)
			r.Post("/{tier}/claim", a.handleClaimReward)
		})
		r.Get("/suggestions", a.handleSuggestions)

		r.Route("/onboarding", func(r chi.Router) {
			r.Get("/", a.handleGetOnboarding)
			r.Post("/next", a.handleOnboardingNext)
			r.Post("/previous", a.handleOnboardingPrevious)
			r.Post("/reset", a.handleOnboardingReset)
			r.Post("/complete", a.handleOnboardingComplete)
			r.Put("/steps/{index}", a.handleOnboardingStep)
			r.Post("/categories/{category}", a.handleOnboardingAddCategory)
			r.Delete("/categories/{category}", a.handleOnboardingRemoveCategory)
			r.Post("/suggestions", a.handleOnboardingAddSuggestion)
			r.Delete("/suggestions/{id}", a.handleOnboardingRemoveSuggestion)
		})
	})

	return r
}
