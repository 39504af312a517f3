package repository

import (
	"context"

	"github.com/social-blog-api/internal/database"
	"github.com/social-blog-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, u.username AS author_username, c.text, c.created
	FROM comments c
	JOIN users u ON u.id = c.author_id
`

// Create inserts a new comment and fills in its ID and timestamp
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (post_id, author_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created
	`
	return r.db.QueryRowxContext(ctx, query,
		comment.PostID, comment.AuthorID, comment.Text,
	).Scan(&comment.ID, &comment.Created)
}

// ListByPost returns a post's comments, newest first
func (r *commentRepo) ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.db.SelectContext(ctx, &comments,
		commentSelect+` WHERE c.post_id = $1 ORDER BY c.created DESC, c.id DESC`, postID)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// Count returns the total number of comments
func (r *commentRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM comments")
	return count, err
}

// StreamAll streams all comments for export
func (r *commentRepo) StreamAll(ctx context.Context, callback func(*models.Comment) error) error {
	rows, err := r.db.QueryxContext(ctx, commentSelect+` ORDER BY c.id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var comment models.Comment
		if err := rows.StructScan(&comment); err != nil {
			return err
		}
		if err := callback(&comment); err != nil {
			return err
		}
	}

	return rows.Err()
}
