package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/social-blog-api/internal/database"
	"github.com/social-blog-api/internal/models"
)

// groupRepo is the concrete implementation of GroupRepository
type groupRepo struct {
	db *database.DB
}

// NewGroupRepo creates a new group repository
func NewGroupRepo(db *database.DB) GroupRepository {
	return &groupRepo{db: db}
}

// Create inserts a group and sets its ID; a taken slug yields ErrDuplicate
func (r *groupRepo) Create(ctx context.Context, group *models.Group) error {
	query := `
		INSERT INTO groups (title, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.db.QueryRowxContext(ctx, query, group.Title, group.Slug, group.Description).Scan(&group.ID)
	return mapError(err)
}

func (r *groupRepo) get(ctx context.Context, where string, arg interface{}) (*models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT id, title, slug, description FROM groups WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByID retrieves a group by ID
func (r *groupRepo) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	return r.get(ctx, "id = $1", id)
}

// GetBySlug retrieves a group by slug
func (r *groupRepo) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return r.get(ctx, "slug = $1", slug)
}

// List returns all groups ordered by title
func (r *groupRepo) List(ctx context.Context) ([]*models.Group, error) {
	groups := []*models.Group{}
	err := r.db.SelectContext(ctx, &groups, `SELECT id, title, slug, description FROM groups ORDER BY title, id`)
	return groups, err
}

// Delete removes a group; posts referencing it are detached by the
// ON DELETE SET NULL foreign key.
func (r *groupRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	return err
}

// Count returns the total number of groups
func (r *groupRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM groups")
	return count, err
}

// StreamAll streams all groups for export
func (r *groupRepo) StreamAll(ctx context.Context, callback func(*models.Group) error) error {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, title, slug, description FROM groups ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var group models.Group
		if err := rows.StructScan(&group); err != nil {
			return err
		}
		if err := callback(&group); err != nil {
			return err
		}
	}

	return rows.Err()
}
