// Package onboarding holds the three-step first-run wizard.
package onboarding

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"neuropulse/internal/models"

	"github.com/google/uuid"
)

const MaxCategories = 3

const (
	stepCategories = iota
	stepSuggestions
)

var (
	ErrStepIncomplete  = errors.New("current step is not completed")
	ErrStepOutOfRange  = errors.New("step index out of range")
	ErrTooManyCategory = errors.New("too many categories selected")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptySuggestion = errors.New("suggestion action required")
	ErrNotFinished     = errors.New("onboarding steps are not finished")
)

type Step struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type Wizard struct {
	CurrentStep         int                     `json:"currentStep"`
	Steps               []Step                  `json:"steps"`
	SelectedCategories  []models.Category       `json:"selectedCategories"`
	PersonalSuggestions []models.UserSuggestion `json:"personalSuggestions"`
	Completed           bool                    `json:"completed"`
}

func New() *Wizard {
	return &Wizard{
		Steps: []Step{
			{Title: "Choose categories", Description: "Pick up to 3 categories that match your needs best"},
			{Title: "Add your own suggestions", Description: "Add your own ideas for redirecting impulses in the chosen categories"},
			{Title: "Review preset suggestions", Description: "Go through the preset suggestions and pick the ones that help"},
		},
		SelectedCategories:  []models.Category{},
		PersonalSuggestions: []models.UserSuggestion{},
	}
}

// NextStep advances only when the current step is marked completed. It is a
// no-op on the last step.
func (w *Wizard) NextStep() error {
	if !w.Steps[w.CurrentStep].Completed {
		return ErrStepIncomplete
	}
	if w.CurrentStep < len(w.Steps)-1 {
		w.CurrentStep++
	}
	return nil
}

func (w *Wizard) PreviousStep() {
	if w.CurrentStep > 0 {
		w.CurrentStep--
	}
}

// SetStepCompleted marks a step. The categories step needs at least one
// selected category and the suggestions step at least one suggestion.
func (w *Wizard) SetStepCompleted(index int, completed bool) error {
	if index < 0 || index >= len(w.Steps) {
		return fmt.Errorf("%w: %d", ErrStepOutOfRange, index)
	}
	if completed {
		if err := w.requirement(index); err != nil {
			return err
		}
	}
	w.Steps[index].Completed = completed
	return nil
}

func (w *Wizard) requirement(index int) error {
	switch index {
	case stepCategories:
		if len(w.SelectedCategories) == 0 {
			return fmt.Errorf("%w: select at least one category", ErrStepIncomplete)
		}
	case stepSuggestions:
		if len(w.PersonalSuggestions) == 0 {
			return fmt.Errorf("%w: add at least one suggestion", ErrStepIncomplete)
		}
	}
	return nil
}

func (w *Wizard) AddCategory(c models.Category) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, c)
	}
	for _, cur := range w.SelectedCategories {
		if cur == c {
			return nil
		}
	}
	if len(w.SelectedCategories) >= MaxCategories {
		return ErrTooManyCategory
	}
	w.SelectedCategories = append(w.SelectedCategories, c)
	return nil
}

func (w *Wizard) RemoveCategory(c models.Category) {
	out := w.SelectedCategories[:0]
	for _, cur := range w.SelectedCategories {
		if cur != c {
			out = append(out, cur)
		}
	}
	w.SelectedCategories = out
	if len(out) == 0 {
		w.Steps[stepCategories].Completed = false
	}
}

// AddSuggestion stores s, assigning an id when it has none.
func (w *Wizard) AddSuggestion(s models.UserSuggestion) (models.UserSuggestion, error) {
	if !s.Category.Valid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidCategory, s.Category)
	}
	s.Action = strings.TrimSpace(s.Action)
	if s.Action == "" {
		return s, ErrEmptySuggestion
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	w.PersonalSuggestions = append(w.PersonalSuggestions, s)
	return s, nil
}

func (w *Wizard) RemoveSuggestion(id string) {
	out := w.PersonalSuggestions[:0]
	for _, cur := range w.PersonalSuggestions {
		if cur.ID != id {
			out = append(out, cur)
		}
	}
	w.PersonalSuggestions = out
	if len(out) == 0 {
		w.Steps[stepSuggestions].Completed = false
	}
}

// Complete requires the last step to be reached and every step completed.
func (w *Wizard) Complete() error {
	if w.CurrentStep != len(w.Steps)-1 {
		return ErrNotFinished
	}
	for i, s := range w.Steps {
		if !s.Completed || w.requirement(i) != nil {
			return ErrNotFinished
		}
	}
	w.Completed = true
	return nil
}

func (w *Wizard) Reset() {
	*w = *New()
}

// Snapshot returns a deep copy safe to hand out of the registry lock.
func (w *Wizard) Snapshot() Wizard {
	cp := *w
	cp.Steps = append([]Step(nil), w.Steps...)
	cp.SelectedCategories = append([]models.Category{}, w.SelectedCategories...)
	cp.PersonalSuggestions = append([]models.UserSuggestion{}, w.PersonalSuggestions...)
	return cp
}

// Registry keeps one in-progress wizard per user. Progress is not persisted.
type Registry struct {
	mu      sync.Mutex
	wizards map[string]*Wizard
}

func NewRegistry() *Registry {
	return &Registry{wizards: map[string]*Wizard{}}
}

// Do runs fn against the user's wizard under the registry lock and returns
// a snapshot of the result.
func (r *Registry) Do(userID string, fn func(w *Wizard) error) (Wizard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wizards[userID]
	if !ok {
		w = New()
		r.wizards[userID] = w
	}
	var err error
	if fn != nil {
		err = fn(w)
	}
	return w.Snapshot(), err
}

func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.wizards, userID)
}
