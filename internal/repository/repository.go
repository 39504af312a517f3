package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/social-blog-api/internal/database"
	"github.com/social-blog-api/internal/models"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (duplicate follow edge, group slug or username).
var ErrDuplicate = errors.New("duplicate record")

// PostgreSQL error codes the repositories translate
const (
	pqUniqueViolation = "23505"
)

// mapError converts driver errors into repository errors
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicate
	}
	return err
}

// PostFilter narrows a post listing; nil fields do not filter
type PostFilter struct {
	GroupID    *int64
	AuthorID   *string
	FollowerID *string // posts by authors this user follows
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	SetRole(ctx context.Context, id, role string) error
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the interface for login sessions
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetValid(ctx context.Context, token string, now time.Time) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id int64) (*models.Group, error)
	GetBySlug(ctx context.Context, slug string) (*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Group) error) error
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// Update replaces text, group and image and returns the previous image handle
	Update(ctx context.Context, post *models.Post) (*string, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	// Delete removes the post (comments cascade) and returns its image handle
	Delete(ctx context.Context, id int64) (*string, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Post) error) error
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Comment) error) error
}

// FollowRepository defines the interface for follow edges
type FollowRepository interface {
	// Create returns ErrDuplicate if the edge already exists
	Create(ctx context.Context, follow *models.Follow) error
	// Delete reports whether an edge was removed
	Delete(ctx context.Context, userID, authorID string) (bool, error)
	Exists(ctx context.Context, userID, authorID string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Session SessionRepository
	Group   GroupRepository
	Post    PostRepository
	Comment CommentRepository
	Follow  FollowRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepo(db),
		Session: NewSessionRepo(db),
		Group:   NewGroupRepo(db),
		Post:    NewPostRepo(db),
		Comment: NewCommentRepo(db),
		Follow:  NewFollowRepo(db),
	}
}
