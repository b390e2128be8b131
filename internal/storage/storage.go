// Package storage persists AppState documents under a scope key. The Adapter
// never reports failures to its callers: a broken or missing document loads
// as the default state and a failed write is logged and dropped.
package storage

import (
	"context"
	"encoding/json"
	"errors"

	"neuropulse/internal/models"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("not found")

// Backend is a byte-oriented key-value store. Get returns ErrNotFound for
// unknown keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

type Adapter struct {
	backend    Backend
	log        *zap.Logger
	thresholds models.RewardThresholds
}

// NewAdapter wires a backend. thresholds seed the default state returned for
// unseen scopes.
func NewAdapter(backend Backend, log *zap.Logger, thresholds models.RewardThresholds) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{backend: backend, log: log, thresholds: thresholds}
}

func (a *Adapter) Default() models.AppState {
	return models.NewAppState(a.thresholds)
}

func (a *Adapter) Load(ctx context.Context, scope string) models.AppState {
	raw, err := a.backend.Get(ctx, scope)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Error("load state failed", zap.String("scope", scope), zap.Error(err))
		}
		return a.Default()
	}
	state, report, err := Decode(raw, a.thresholds)
	if err != nil {
		a.log.Error("decode state failed", zap.String("scope", scope), zap.Error(err))
		return a.Default()
	}
	if report.FromVersion != models.SchemaVersion {
		a.log.Info("migrated state",
			zap.String("scope", scope),
			zap.Int("from", report.FromVersion),
			zap.Int("to", models.SchemaVersion))
	}
	for _, reason := range report.Dropped {
		a.log.Warn("dropped invalid record", zap.String("scope", scope), zap.String("reason", reason))
	}
	return state
}

func (a *Adapter) Save(ctx context.Context, scope string, state models.AppState) {
	data, err := Encode(state)
	if err != nil {
		a.log.Error("encode state failed", zap.String("scope", scope), zap.Error(err))
		return
	}
	if err := a.backend.Put(ctx, scope, data); err != nil {
		a.log.Error("save state failed", zap.String("scope", scope), zap.Error(err))
	}
}

// Encode stamps the current schema version and serializes state.
func Encode(state models.AppState) ([]byte, error) {
	state.SchemaVersion = models.SchemaVersion
	if state.Redirections == nil {
		state.Redirections = []models.ImpulseRecord{}
	}
	return json.Marshal(state)
}
