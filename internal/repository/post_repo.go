package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/social-blog-api/internal/database"
	"github.com/social-blog-api/internal/models"
)

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

const postSelect = `
	SELECT p.id, p.text, p.pub_date, p.author_id, u.username AS author_username,
	       p.group_id, g.slug AS group_slug, g.title AS group_title, p.image
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN groups g ON g.id = p.group_id
`

// Newest first; id breaks ties between posts published in the same instant.
const postOrder = ` ORDER BY p.pub_date DESC, p.id DESC`

// buildPostWhere renders the filter as a WHERE clause with positional args
func buildPostWhere(filter PostFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.GroupID != nil {
		args = append(args, *filter.GroupID)
		conds = append(conds, fmt.Sprintf("p.group_id = $%d", len(args)))
	}
	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		conds = append(conds, fmt.Sprintf("p.author_id = $%d", len(args)))
	}
	if filter.FollowerID != nil {
		args = append(args, *filter.FollowerID)
		conds = append(conds, fmt.Sprintf("p.author_id IN (SELECT f.author_id FROM follows f WHERE f.user_id = $%d)", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Create inserts a new post and fills in its ID and publication date
func (r *postRepo) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (text, author_id, group_id, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id, pub_date
	`
	return r.db.QueryRowxContext(ctx, query,
		post.Text, post.AuthorID, post.GroupID, post.Image,
	).Scan(&post.ID, &post.PubDate)
}

// Update rewrites text, group and image. The previous image handle is read
// under a row lock so the caller can remove a replaced file.
func (r *postRepo) Update(ctx context.Context, post *models.Post) (*string, error) {
	var previous *string

	err := r.db.WithTx(ctx, "update post", func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &previous,
			`SELECT image FROM posts WHERE id = $1 FOR UPDATE`, post.ID,
		); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE posts SET text = $1, group_id = $2, image = $3 WHERE id = $4`,
			post.Text, post.GroupID, post.Image, post.ID,
		)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return previous, nil
}

// GetByID retrieves a post with its author and group
func (r *postRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, postSelect+` WHERE p.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post and returns its image handle. Comments go with it
// through the ON DELETE CASCADE foreign key.
func (r *postRepo) Delete(ctx context.Context, id int64) (*string, error) {
	var image *string
	err := r.db.GetContext(ctx, &image, `DELETE FROM posts WHERE id = $1 RETURNING image`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return image, err
}

// List returns one window of posts matching the filter, newest first
func (r *postRepo) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	where, args := buildPostWhere(filter)
	args = append(args, limit, offset)
	query := postSelect + where + postOrder +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	posts := []*models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, err
	}
	return posts, nil
}

// Count returns the number of posts matching the filter
func (r *postRepo) Count(ctx context.Context, filter PostFilter) (int, error) {
	where, args := buildPostWhere(filter)
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM posts p`+where, args...)
	return count, err
}

// StreamAll streams all posts for export, oldest first
func (r *postRepo) StreamAll(ctx context.Context, callback func(*models.Post) error) error {
	rows, err := r.db.QueryxContext(ctx, postSelect+` ORDER BY p.id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var post models.Post
		if err := rows.StructScan(&post); err != nil {
			return err
		}
		if err := callback(&post); err != nil {
			return err
		}
	}

	return rows.Err()
}
