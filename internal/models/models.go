package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SchemaVersion is the version stamped on every saved AppState.
const SchemaVersion = 3

// DefaultScope is the scope key used by the single-user local store.
const DefaultScope = "default"

// DateLayout is the calendar-day format used for ImpulseRecord.Date.
const DateLayout = "2006-01-02"

type Category string

const (
	CategoryExplorer Category = "explorer"
	CategoryLover    Category = "lover"
	CategoryAchiever Category = "achiever"
)

var Categories = []Category{CategoryExplorer, CategoryLover, CategoryAchiever}

var categoryAliases = map[string]Category{
	"explorer":    CategoryExplorer,
	"lover":       CategoryLover,
	"achiever":    CategoryAchiever,
	"conqueror":   CategoryAchiever,
	"poszukiwacz": CategoryExplorer,
	"kochanek":    CategoryLover,
	"zdobywca":    CategoryAchiever,
}

// ParseCategory accepts the canonical names as well as the display and
// legacy names older clients stored.
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func (c Category) Valid() bool {
	switch c {
	case CategoryExplorer, CategoryLover, CategoryAchiever:
		return true
	}
	return false
}

// Label is the display name.
func (c Category) Label() string {
	switch c {
	case CategoryExplorer:
		return "Explorer"
	case CategoryLover:
		return "Lover"
	case CategoryAchiever:
		return "Achiever"
	}
	return string(c)
}

func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*c = ""
		return nil
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

type ImpulseRecord struct {
	ID               string   `json:"id"`
	Date             string   `json:"date"`
	Name             string   `json:"name"`
	Strength         int      `json:"strength"`
	RedirectionCount int      `json:"redirectionCount"`
	Result           string   `json:"result"`
	Category         Category `json:"category"`
	Completed        bool     `json:"completed"`
	Redirected       bool     `json:"redirected"`
}

type RewardTier string

const (
	TierSmall  RewardTier = "small"
	TierMedium RewardTier = "medium"
	TierLarge  RewardTier = "large"
)

var Tiers = []RewardTier{TierSmall, TierMedium, TierLarge}

type Reward struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Threshold   int    `json:"threshold"`
}

type RewardThresholds struct {
	Small  Reward `json:"small"`
	Medium Reward `json:"medium"`
	Large  Reward `json:"large"`
}

// Get returns the reward configured for tier.
func (t RewardThresholds) Get(tier RewardTier) (Reward, bool) {
	switch tier {
	case TierSmall:
		return t.Small, true
	case TierMedium:
		return t.Medium, true
	case TierLarge:
		return t.Large, true
	}
	return Reward{}, false
}

// With returns a copy of t with tier replaced.
func (t RewardThresholds) With(tier RewardTier, r Reward) RewardThresholds {
	switch tier {
	case TierSmall:
		t.Small = r
	case TierMedium:
		t.Medium = r
	case TierLarge:
		t.Large = r
	}
	return t
}

// DefaultThresholds are used by the local store.
func DefaultThresholds() RewardThresholds {
	return RewardThresholds{
		Small:  Reward{Title: "Small reward", Description: "A short coffee or tea break", Threshold: 5},
		Medium: Reward{Title: "Medium reward", Description: "Watch an episode of your favourite show", Threshold: 25},
		Large:  Reward{Title: "Large reward", Description: "A trip to the cinema or a restaurant", Threshold: 100},
	}
}

// ProfileThresholds are used when a new account profile is created.
func ProfileThresholds() RewardThresholds {
	t := DefaultThresholds()
	t.Medium.Threshold = 15
	t.Large.Threshold = 30
	return t
}

type AppState struct {
	SchemaVersion     int              `json:"schemaVersion"`
	Redirections      []ImpulseRecord  `json:"redirections"`
	TotalRedirections int              `json:"totalRedirections"`
	SelectedCategory  Category         `json:"selectedCategory"`
	RewardSettings    RewardThresholds `json:"rewardSettings"`
}

// NewAppState returns the empty state with the given thresholds.
func NewAppState(thresholds RewardThresholds) AppState {
	return AppState{
		SchemaVersion:    SchemaVersion,
		Redirections:     []ImpulseRecord{},
		SelectedCategory: CategoryExplorer,
		RewardSettings:   thresholds,
	}
}

type UserSuggestion struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Action   string   `json:"action"`
	IsPreset bool     `json:"isPreset"`
}

type UserProfile struct {
	UID                 string           `json:"uid"`
	Email               string           `json:"email"`
	DisplayName         string           `json:"displayName"`
	SelectedCategories  []Category       `json:"selectedCategories"`
	PersonalSuggestions []UserSuggestion `json:"personalSuggestions"`
	CreatedAt           time.Time        `json:"createdAt"`
	LastLogin           time.Time        `json:"lastLogin"`
	TotalRedirections   int              `json:"totalRedirections"`
	TotalImpulses       int              `json:"totalImpulses"`
	RewardSettings      RewardThresholds `json:"rewardSettings"`
	OnboardingCompleted bool             `json:"onboardingCompleted"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type PasswordReset struct {
	Token     string     `json:"token"`
	UserID    string     `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}
