package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"neuropulse/internal/auth"
	"neuropulse/internal/models"
	"neuropulse/internal/onboarding"
	"neuropulse/internal/repo"
	"neuropulse/internal/reward"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLen = 6

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrResetTokenInvalid  = errors.New("reset token invalid")
)

// UserRepo is satisfied by *repo.Repo and *repo.Memory.
type UserRepo interface {
	CreateUser(ctx context.Context, email, displayName, passwordHash string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error
	CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error
	ConsumePasswordReset(ctx context.Context, token string) (string, error)
	GetProfile(ctx context.Context, userID string) (models.UserProfile, error)
	PutProfile(ctx context.Context, p models.UserProfile) error
}

// Notifier delivers password reset tokens.
type Notifier interface {
	PasswordReset(ctx context.Context, email, token string, expiresAt time.Time)
}

// LogNotifier writes reset tokens to the log instead of sending mail.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) PasswordReset(_ context.Context, email, token string, expiresAt time.Time) {
	n.Log.Info("password reset requested",
		zap.String("email", email),
		zap.String("token", token),
		zap.Time("expires_at", expiresAt))
}

type Service struct {
	Repo       UserRepo
	Auth       *auth.Manager
	Notifier   Notifier
	Log        *zap.Logger
	Thresholds models.RewardThresholds
	TokenTTL   time.Duration
	RefreshTTL time.Duration
	ResetTTL   time.Duration
	now        func() time.Time
}

func New(r UserRepo, authManager *auth.Manager, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		Repo:       r,
		Auth:       authManager,
		Notifier:   LogNotifier{Log: log},
		Log:        log,
		Thresholds: models.ProfileThresholds(),
		TokenTTL:   time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
		ResetTTL:   time.Hour,
		now:        time.Now,
	}
}

type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

func validateNewPassword(password, confirm string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	return nil
}

// Register creates the account and its profile document.
func (s *Service) Register(ctx context.Context, email, password, confirm, displayName string) (models.UserProfile, error) {
	if err := validateCredentials(email, password); err != nil {
		return models.UserProfile{}, err
	}
	if err := validateNewPassword(password, confirm); err != nil {
		return models.UserProfile{}, err
	}
	hash, err := s.Auth.HashPassword(password)
	if err != nil {
		return models.UserProfile{}, err
	}
	displayName = strings.TrimSpace(displayName)
	userID, err := s.Repo.CreateUser(ctx, email, displayName, hash)
	if errors.Is(err, repo.ErrEmailTaken) {
		return models.UserProfile{}, ErrEmailTaken
	}
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("create user: %w", err)
	}
	now := s.now().UTC()
	profile := models.UserProfile{
		UID:                 userID,
		Email:               strings.ToLower(strings.TrimSpace(email)),
		DisplayName:         displayName,
		SelectedCategories:  []models.Category{},
		PersonalSuggestions: []models.UserSuggestion{},
		CreatedAt:           now,
		LastLogin:           now,
		RewardSettings:      s.Thresholds,
	}
	if err := s.Repo.PutProfile(ctx, profile); err != nil {
		return models.UserProfile{}, fmt.Errorf("create profile: %w", err)
	}
	s.Log.Info("user registered", zap.String("user_id", userID))
	return profile, nil
}

// SignIn checks the password, records lastLogin and issues tokens.
func (s *Service) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	if err := validateCredentials(email, password); err != nil {
		return Tokens{}, err
	}
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return Tokens{}, ErrInvalidCredentials
	}
	if err != nil {
		return Tokens{}, err
	}
	if err := s.Auth.ComparePassword(user.PasswordHash, password); err != nil {
		return Tokens{}, ErrInvalidCredentials
	}
	access, err := s.Auth.GenerateToken(user.ID, user.Email, s.TokenTTL)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := auth.OpaqueToken()
	if err != nil {
		return Tokens{}, err
	}
	if err := s.Repo.CreateSession(ctx, user.ID, refresh, s.now().Add(s.RefreshTTL)); err != nil {
		return Tokens{}, fmt.Errorf("create session: %w", err)
	}

	profile, err := s.loadProfile(ctx, user)
	if err != nil {
		return Tokens{}, err
	}
	profile.LastLogin = s.now().UTC()
	if err := s.Repo.PutProfile(ctx, profile); err != nil {
		s.Log.Warn("update last login failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// ResetPassword issues a single-use token. Unknown emails succeed silently.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		s.Log.Debug("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}
	token, err := auth.OpaqueToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.ResetTTL)
	if err := s.Repo.CreatePasswordReset(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("create reset: %w", err)
	}
	s.Notifier.PasswordReset(ctx, user.Email, token, expiresAt)
	return nil
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password, confirm string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}
	if err := validateNewPassword(password, confirm); err != nil {
		return err
	}
	hash, err := s.Auth.HashPassword(password)
	if err != nil {
		return err
	}
	userID, err := s.Repo.ConsumePasswordReset(ctx, token)
	switch {
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, repo.ErrResetUsed), errors.Is(err, repo.ErrResetExpired):
		return fmt.Errorf("%w: %v", ErrResetTokenInvalid, err)
	case err != nil:
		return err
	}
	if err := s.Repo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.Log.Info("password reset", zap.String("user_id", userID))
	return nil
}

// loadProfile returns the stored profile, recreating it for accounts
// that predate profile documents.
func (s *Service) loadProfile(ctx context.Context, user models.User) (models.UserProfile, error) {
	profile, err := s.Repo.GetProfile(ctx, user.ID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return models.UserProfile{}, err
	}
	return models.UserProfile{
		UID:                 user.ID,
		Email:               user.Email,
		DisplayName:         user.DisplayName,
		SelectedCategories:  []models.Category{},
		PersonalSuggestions: []models.UserSuggestion{},
		CreatedAt:           user.CreatedAt,
		RewardSettings:      s.Thresholds,
	}, nil
}

func (s *Service) GetUserProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	return s.loadProfile(ctx, user)
}

// ProfilePatch carries the editable profile fields; nil means unchanged.
type ProfilePatch struct {
	DisplayName         *string                  `json:"displayName"`
	SelectedCategories  []models.Category        `json:"selectedCategories"`
	RewardSettings      *models.RewardThresholds `json:"rewardSettings"`
	OnboardingCompleted *bool                    `json:"onboardingCompleted"`
}

func (s *Service) UpdateUserProfile(ctx context.Context, userID string, patch ProfilePatch) (models.UserProfile, error) {
	profile, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	if patch.DisplayName != nil {
		profile.DisplayName = strings.TrimSpace(*patch.DisplayName)
	}
	if patch.SelectedCategories != nil {
		cats, err := normalizeCategories(patch.SelectedCategories)
		if err != nil {
			return models.UserProfile{}, err
		}
		profile.SelectedCategories = cats
	}
	if patch.RewardSettings != nil {
		if err := reward.Validate(*patch.RewardSettings); err != nil {
			return models.UserProfile{}, err
		}
		profile.RewardSettings = *patch.RewardSettings
	}
	if patch.OnboardingCompleted != nil {
		profile.OnboardingCompleted = *patch.OnboardingCompleted
	}
	if err := s.Repo.PutProfile(ctx, profile); err != nil {
		return models.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

func normalizeCategories(in []models.Category) ([]models.Category, error) {
	out := make([]models.Category, 0, len(in))
	seen := map[models.Category]bool{}
	for _, c := range in {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, c)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) > onboarding.MaxCategories {
		return nil, fmt.Errorf("%w: at most %d categories", ErrValidation, onboarding.MaxCategories)
	}
	return out, nil
}

func (s *Service) AddPersonalSuggestion(ctx context.Context, userID string, category models.Category, action string) (models.UserSuggestion, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return models.UserSuggestion{}, fmt.Errorf("%w: action is required", ErrValidation)
	}
	if !category.Valid() {
		return models.UserSuggestion{}, fmt.Errorf("%w: unknown category %q", ErrValidation, category)
	}
	profile, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return models.UserSuggestion{}, err
	}
	suggestion := models.UserSuggestion{ID: uuid.NewString(), Category: category, Action: action}
	profile.PersonalSuggestions = append(profile.PersonalSuggestions, suggestion)
	if err := s.Repo.PutProfile(ctx, profile); err != nil {
		return models.UserSuggestion{}, fmt.Errorf("save profile: %w", err)
	}
	return suggestion, nil
}

// CompleteOnboarding copies a finished wizard into the profile.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string, w onboarding.Wizard) (models.UserProfile, error) {
	if !w.Completed {
		return models.UserProfile{}, onboarding.ErrNotFinished
	}
	profile, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return models.UserProfile{}, err
	}
	profile.SelectedCategories = append([]models.Category{}, w.SelectedCategories...)
	profile.PersonalSuggestions = append(profile.PersonalSuggestions, w.PersonalSuggestions...)
	profile.OnboardingCompleted = true
	if err := s.Repo.PutProfile(ctx, profile); err != nil {
		return models.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}
	s.Log.Info("onboarding completed", zap.String("user_id", userID))
	return profile, nil
}
