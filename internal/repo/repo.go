package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"neuropulse/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrResetExpired = errors.New("reset token expired")
	ErrResetUsed    = errors.New("reset token used")
)

type Repo struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{Pool: pool}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repo) CreateUser(ctx context.Context, email, displayName, passwordHash string) (string, error) {
	var id string
	err := r.Pool.QueryRow(ctx, `INSERT INTO users (email, display_name, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		normalizeEmail(email), displayName, passwordHash).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return "", ErrEmailTaken
	}
	return id, err
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.scanUser(r.Pool.QueryRow(ctx, `SELECT id, email, display_name, password_hash, created_at, updated_at FROM users WHERE email=$1`, normalizeEmail(email)))
}

func (r *Repo) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	return r.scanUser(r.Pool.QueryRow(ctx, `SELECT id, email, display_name, password_hash, created_at, updated_at FROM users WHERE id=$1`, userID))
}

func (r *Repo) scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (r *Repo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	cmd, err := r.Pool.Exec(ctx, `UPDATE users SET password_hash=$1, updated_at=now() WHERE id=$2`, passwordHash, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.Pool.Exec(ctx, `INSERT INTO sessions (user_id, token, expires_at) VALUES ($1, $2, $3)`, userID, token, expiresAt)
	return err
}

func (r *Repo) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.Pool.Exec(ctx, `INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1, $2, $3)`, token, userID, expiresAt)
	return err
}

// ConsumePasswordReset marks the token used and returns its user.
func (r *Repo) ConsumePasswordReset(ctx context.Context, token string) (string, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx, `UPDATE password_resets SET used_at=now()
		WHERE token=$1 AND used_at IS NULL AND expires_at > now()
		RETURNING user_id`, token).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		var expiresAt time.Time
		var usedAt *time.Time
		checkErr := tx.QueryRow(ctx, `SELECT expires_at, used_at FROM password_resets WHERE token=$1`, token).Scan(&expiresAt, &usedAt)
		if errors.Is(checkErr, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		if usedAt != nil {
			return "", ErrResetUsed
		}
		if time.Now().After(expiresAt) {
			return "", ErrResetExpired
		}
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return userID, nil
}

func (r *Repo) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	var doc []byte
	err := r.Pool.QueryRow(ctx, `SELECT document FROM profiles WHERE user_id=$1`, userID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.UserProfile{}, ErrNotFound
	}
	if err != nil {
		return models.UserProfile{}, err
	}
	var p models.UserProfile
	if err := json.Unmarshal(doc, &p); err != nil {
		return models.UserProfile{}, err
	}
	return p, nil
}

func (r *Repo) PutProfile(ctx context.Context, p models.UserProfile) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = r.Pool.Exec(ctx, `INSERT INTO profiles (user_id, document, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (user_id) DO UPDATE SET document=EXCLUDED.document, updated_at=now()`, p.UID, string(doc))
	return err
}
