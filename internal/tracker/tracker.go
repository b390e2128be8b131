// Package tracker owns the impulse list and the redirection counter of a
// scope. Every mutation loads the current state, applies the change and
// writes the whole state back.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"neuropulse/internal/models"
	"neuropulse/internal/reward"

	"github.com/google/uuid"
)

var ErrValidation = errors.New("validation failed")

// Persistence is satisfied by *storage.Adapter.
type Persistence interface {
	Load(ctx context.Context, scope string) models.AppState
	Save(ctx context.Context, scope string, state models.AppState)
}

type Store struct {
	persist Persistence
	now     func() time.Time
}

func New(persist Persistence) *Store {
	return &Store{persist: persist, now: time.Now}
}

// WithClock overrides the time source used for record dates.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Today() string {
	return s.now().Format(models.DateLayout)
}

func (s *Store) State(ctx context.Context, scope string) models.AppState {
	return s.persist.Load(ctx, scope)
}

// Draft is the user input for a new impulse.
type Draft struct {
	Name       string          `json:"name"`
	Strength   int             `json:"strength"`
	Result     string          `json:"result"`
	Category   models.Category `json:"category"`
	Redirected bool            `json:"redirected"`
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name required", ErrValidation)
	}
	if d.Strength < 1 || d.Strength > 10 {
		return fmt.Errorf("%w: strength must be between 1 and 10", ErrValidation)
	}
	if !d.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, d.Category)
	}
	return nil
}

// TodaysCount counts the records logged on today.
func TodaysCount(state models.AppState, today string) int {
	n := 0
	for _, r := range state.Redirections {
		if r.Date == today {
			n++
		}
	}
	return n
}

// NewImpulse builds a record from d. RedirectionCount is taken from the
// records already logged today; it is not recomputed later.
func NewImpulse(state models.AppState, d Draft, now time.Time) (models.ImpulseRecord, error) {
	if err := d.Validate(); err != nil {
		return models.ImpulseRecord{}, err
	}
	today := now.Format(models.DateLayout)
	return models.ImpulseRecord{
		ID:               uuid.NewString(),
		Date:             today,
		Name:             strings.TrimSpace(d.Name),
		Strength:         d.Strength,
		RedirectionCount: TodaysCount(state, today) + 1,
		Result:           strings.TrimSpace(d.Result),
		Category:         d.Category,
		Redirected:       d.Redirected,
	}, nil
}

// Log validates d, builds the record against the current state and appends it.
func (s *Store) Log(ctx context.Context, scope string, d Draft) (models.ImpulseRecord, error) {
	rec, err := NewImpulse(s.persist.Load(ctx, scope), d, s.now())
	if err != nil {
		return models.ImpulseRecord{}, err
	}
	s.AddImpulse(ctx, scope, rec)
	return rec, nil
}

func (s *Store) AddImpulse(ctx context.Context, scope string, rec models.ImpulseRecord) []models.ImpulseRecord {
	state := s.persist.Load(ctx, scope)
	state.Redirections = append(state.Redirections, rec)
	if rec.Redirected {
		state.TotalRedirections++
	}
	s.persist.Save(ctx, scope, state)
	return state.Redirections
}

// UpdateImpulse replaces the editable fields (name, result, completed) of the
// record with rec.ID. Redirected is fixed at creation so the counter is never
// touched here. A blank name keeps the current one. Unknown ids are ignored.
func (s *Store) UpdateImpulse(ctx context.Context, scope string, rec models.ImpulseRecord) []models.ImpulseRecord {
	state := s.persist.Load(ctx, scope)
	for i, cur := range state.Redirections {
		if cur.ID != rec.ID {
			continue
		}
		if name := strings.TrimSpace(rec.Name); name != "" {
			cur.Name = name
		}
		cur.Result = strings.TrimSpace(rec.Result)
		cur.Completed = rec.Completed
		state.Redirections[i] = cur
		s.persist.Save(ctx, scope, state)
		return state.Redirections
	}
	return state.Redirections
}

// SetCompleted flips the completed flag of one record.
func (s *Store) SetCompleted(ctx context.Context, scope, id string, completed bool) (models.ImpulseRecord, bool) {
	state := s.persist.Load(ctx, scope)
	for _, cur := range state.Redirections {
		if cur.ID == id {
			cur.Completed = completed
			s.UpdateImpulse(ctx, scope, cur)
			return cur, true
		}
	}
	return models.ImpulseRecord{}, false
}

type ClaimResult struct {
	Tier              models.RewardTier `json:"tier"`
	Message           string            `json:"message"`
	TotalRedirections int               `json:"totalRedirections"`
}

// Claim redeems a reached tier. Nothing is written when the tier is not reached.
func (s *Store) Claim(ctx context.Context, scope string, tier models.RewardTier) (ClaimResult, error) {
	state := s.persist.Load(ctx, scope)
	total, msg, err := reward.Claim(state.TotalRedirections, state.RewardSettings, tier)
	if err != nil {
		return ClaimResult{Tier: tier, TotalRedirections: state.TotalRedirections}, err
	}
	state.TotalRedirections = total
	s.persist.Save(ctx, scope, state)
	return ClaimResult{Tier: tier, Message: msg, TotalRedirections: total}, nil
}

func (s *Store) SetThresholds(ctx context.Context, scope string, thresholds models.RewardThresholds) (models.RewardThresholds, error) {
	if err := reward.Validate(thresholds); err != nil {
		return models.RewardThresholds{}, err
	}
	state := s.persist.Load(ctx, scope)
	state.RewardSettings = thresholds
	s.persist.Save(ctx, scope, state)
	return thresholds, nil
}

func (s *Store) SelectCategory(ctx context.Context, scope string, c models.Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, c)
	}
	state := s.persist.Load(ctx, scope)
	state.SelectedCategory = c
	s.persist.Save(ctx, scope, state)
	return nil
}

type Summary struct {
	TotalImpulses     int                     `json:"totalImpulses"`
	RedirectedCount   int                     `json:"redirectedCount"`
	SuccessRate       int                     `json:"successRate"`
	TodaysCount       int                     `json:"todaysCount"`
	TotalRedirections int                     `json:"totalRedirections"`
	ByCategory        map[models.Category]int `json:"byCategory"`
	Rewards           []reward.TierStatus     `json:"rewards"`
}

func Summarize(state models.AppState, today string) Summary {
	sum := Summary{
		TotalImpulses:     len(state.Redirections),
		TodaysCount:       TodaysCount(state, today),
		TotalRedirections: state.TotalRedirections,
		ByCategory:        map[models.Category]int{},
		Rewards:           reward.Evaluate(state.TotalRedirections, state.RewardSettings),
	}
	for _, c := range models.Categories {
		sum.ByCategory[c] = 0
	}
	for _, r := range state.Redirections {
		if r.Redirected {
			sum.RedirectedCount++
		}
		sum.ByCategory[r.Category]++
	}
	if sum.TotalImpulses > 0 {
		sum.SuccessRate = int(math.Round(100 * float64(sum.RedirectedCount) / float64(sum.TotalImpulses)))
	}
	return sum
}

func (s *Store) Summary(ctx context.Context, scope string) Summary {
	return Summarize(s.persist.Load(ctx, scope), s.Today())
}
