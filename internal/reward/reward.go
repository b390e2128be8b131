// Package reward evaluates the redirection counter against the three reward
// tiers. Everything here is a pure function of (total, thresholds).
package reward

import (
	"errors"
	"fmt"

	"neuropulse/internal/models"
)

var (
	ErrUnknownTier      = errors.New("unknown reward tier")
	ErrNotAchieved      = errors.New("reward not achieved")
	ErrInvalidThreshold = errors.New("invalid reward threshold")
)

var messages = map[models.RewardTier]string{
	models.TierSmall:  "Congratulations! You earned a small reward. Enjoy a short break!",
	models.TierMedium: "Great job! You earned a medium reward. Treat yourself!",
	models.TierLarge:  "Amazing! You earned a large reward. Time to celebrate!",
}

type TierStatus struct {
	Tier        models.RewardTier `json:"tier"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Threshold   int               `json:"threshold"`
	Progress    float64           `json:"progress"`
	Achieved    bool              `json:"achieved"`
}

func ParseTier(s string) (models.RewardTier, error) {
	switch tier := models.RewardTier(s); tier {
	case models.TierSmall, models.TierMedium, models.TierLarge:
		return tier, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Progress is the percentage of the tier threshold reached, clamped to [0,100].
func Progress(total int, thresholds models.RewardThresholds, tier models.RewardTier) float64 {
	r, ok := thresholds.Get(tier)
	if !ok || r.Threshold <= 0 {
		return 0
	}
	p := 100 * float64(total) / float64(r.Threshold)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

func Achieved(total int, thresholds models.RewardThresholds, tier models.RewardTier) bool {
	r, ok := thresholds.Get(tier)
	if !ok || r.Threshold <= 0 {
		return false
	}
	return total >= r.Threshold
}

// Claim consumes the tier threshold from total. The total is floored at zero
// and left untouched when the tier has not been reached.
func Claim(total int, thresholds models.RewardThresholds, tier models.RewardTier) (int, string, error) {
	r, ok := thresholds.Get(tier)
	if !ok {
		return total, "", fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	if !Achieved(total, thresholds, tier) {
		return total, "", ErrNotAchieved
	}
	next := total - r.Threshold
	if next < 0 {
		next = 0
	}
	return next, Message(tier), nil
}

func Message(tier models.RewardTier) string {
	return messages[tier]
}

func Evaluate(total int, thresholds models.RewardThresholds) []TierStatus {
	out := make([]TierStatus, 0, len(models.Tiers))
	for _, tier := range models.Tiers {
		r, _ := thresholds.Get(tier)
		out = append(out, TierStatus{
			Tier:        tier,
			Title:       r.Title,
			Description: r.Description,
			Threshold:   r.Threshold,
			Progress:    Progress(total, thresholds, tier),
			Achieved:    Achieved(total, thresholds, tier),
		})
	}
	return out
}

// Validate checks every tier has a positive threshold and a title.
func Validate(thresholds models.RewardThresholds) error {
	for _, tier := range models.Tiers {
		r, _ := thresholds.Get(tier)
		if r.Threshold < 1 {
			return fmt.Errorf("%w: %s threshold must be at least 1", ErrInvalidThreshold, tier)
		}
		if r.Title == "" {
			return fmt.Errorf("%w: %s title required", ErrInvalidThreshold, tier)
		}
	}
	return nil
}
