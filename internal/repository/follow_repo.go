package repository

import (
	"context"

	"github.com/social-blog-api/internal/database"
	"github.com/social-blog-api/internal/models"
)

type followRepo struct {
	db *database.DB
}

// NewFollowRepo creates a new follow repository
func NewFollowRepo(db *database.DB) FollowRepository {
	return &followRepo{db: db}
}

// Create inserts a follow edge. The unique_follow constraint rejects a
// second identical edge with ErrDuplicate.
func (r *followRepo) Create(ctx context.Context, follow *models.Follow) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO follows (user_id, author_id) VALUES ($1, $2) RETURNING id`,
		follow.UserID, follow.AuthorID,
	).Scan(&follow.ID)
	return mapError(err)
}

func (r *followRepo) Delete(ctx context.Context, userID, authorID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = $1 AND author_id = $2`, userID, authorID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *followRepo) Exists(ctx context.Context, userID, authorID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE user_id = $1 AND author_id = $2)`, userID, authorID)
	return exists, err
}

// Count returns the total number of follow edges
func (r *followRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM follows")
	return count, err
}
