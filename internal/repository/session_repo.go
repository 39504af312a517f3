package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/social-blog-api/internal/database"
	"github.com/social-blog-api/internal/models"
)

type sessionRepo struct {
	db *database.DB
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *database.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) Create(ctx context.Context, session *models.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		session.Token, session.UserID, session.CreatedAt, session.ExpiresAt,
	)
	return err
}

// GetValid returns the session if it exists and has not expired at now
func (r *sessionRepo) GetValid(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = $1 AND expires_at > $2`,
		token, now,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

// DeleteExpired removes every session that expired before now
func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
