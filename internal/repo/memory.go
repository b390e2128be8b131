package repo

import (
	"context"
	"sync"
	"time"

	"neuropulse/internal/models"

	"github.com/google/uuid"
)

// Memory implements the same account operations as Repo without a database.
// It backs the "memory" storage driver and the service/http tests.
type Memory struct {
	mu       sync.Mutex
	users    map[string]models.User
	byEmail  map[string]string
	sessions []models.Session
	resets   map[string]models.PasswordReset
	profiles map[string]models.UserProfile
}

func NewMemory() *Memory {
	return &Memory{
		users:    map[string]models.User{},
		byEmail:  map[string]string{},
		resets:   map[string]models.PasswordReset{},
		profiles: map[string]models.UserProfile{},
	}
}

func (m *Memory) CreateUser(_ context.Context, email, displayName, passwordHash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = normalizeEmail(email)
	if _, ok := m.byEmail[email]; ok {
		return "", ErrEmailTaken
	}
	now := time.Now().UTC()
	u := models.User{ID: uuid.NewString(), Email: email, DisplayName: displayName, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	m.byEmail[email] = u.ID
	return u.ID, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[normalizeEmail(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) GetUserByID(_ context.Context, userID string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	m.users[userID] = u
	return nil
}

func (m *Memory) CreateSession(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, models.Session{ID: uuid.NewString(), UserID: userID, Token: token, ExpiresAt: expiresAt, CreatedAt: time.Now().UTC()})
	return nil
}

func (m *Memory) CreatePasswordReset(_ context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[token] = models.PasswordReset{Token: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (m *Memory) ConsumePasswordReset(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reset, ok := m.resets[token]
	switch {
	case !ok:
		return "", ErrNotFound
	case reset.UsedAt != nil:
		return "", ErrResetUsed
	case time.Now().After(reset.ExpiresAt):
		return "", ErrResetExpired
	}
	now := time.Now().UTC()
	reset.UsedAt = &now
	m.resets[token] = reset
	return reset.UserID, nil
}

func (m *Memory) GetProfile(_ context.Context, userID string) (models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return models.UserProfile{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) PutProfile(_ context.Context, p models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UID] = p
	return nil
}
