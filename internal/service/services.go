package service

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/config"
	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
	"github.com/social-blog-api/internal/storage"
	"github.com/social-blog-api/internal/validation"
)

// SystemActor is the administrator identity used by the command line tools
var SystemActor = &models.User{Username: "system", Role: models.RoleAdmin}

// FeedKind selects which posts a feed contains
type FeedKind string

const (
	FeedAll      FeedKind = "all"
	FeedGroup    FeedKind = "group"
	FeedAuthor   FeedKind = "author"
	FeedFollowed FeedKind = "followed"
)

// FeedFilter describes one feed. GroupSlug is used by FeedGroup, Username
// by FeedAuthor and Viewer by FeedFollowed.
type FeedFilter struct {
	Kind      FeedKind
	GroupSlug string
	Username  string
	Viewer    *models.User
}

// FeedService assembles paginated post listings
type FeedService interface {
	Get(ctx context.Context, filter FeedFilter, page int) (*models.Page, error)
	Group(ctx context.Context, slug string, page int) (*models.GroupFeed, error)
	Profile(ctx context.Context, viewer *models.User, username string, page int) (*models.Profile, error)
}

// PostService manages posts and their attachments
type PostService interface {
	Create(ctx context.Context, actor *models.User, input *models.NewPostInput) (*models.Post, error)
	Get(ctx context.Context, username string, postID int64) (*models.PostView, error)
	// CheckOwner returns ErrForbidden unless actor wrote the post
	CheckOwner(ctx context.Context, actor *models.User, username string, postID int64) error
	Edit(ctx context.Context, actor *models.User, username string, postID int64, input *models.NewPostInput) (*models.Post, error)
	Delete(ctx context.Context, actor *models.User, username string, postID int64) error
}

// CommentService manages comment threads
type CommentService interface {
	Add(ctx context.Context, actor *models.User, username string, postID int64, input *models.CommentInput) (*models.Comment, error)
	List(ctx context.Context, postID int64) ([]*models.Comment, error)
}

// FollowService manages follow edges
type FollowService interface {
	Follow(ctx context.Context, actor *models.User, username string) error
	Unfollow(ctx context.Context, actor *models.User, username string) error
	IsFollowing(ctx context.Context, userID, authorID string) (bool, error)
}

// GroupService manages groups
type GroupService interface {
	Create(ctx context.Context, actor *models.User, input *models.GroupInput) (*models.Group, error)
	Get(ctx context.Context, slug string) (*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
	Delete(ctx context.Context, actor *models.User, slug string) error
}

// AuthService manages accounts and login sessions
type AuthService interface {
	Signup(ctx context.Context, input *models.SignupInput) (*models.User, error)
	Login(ctx context.Context, input *models.LoginInput) (*models.Session, *models.User, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a session token; guests yield a nil user
	Authenticate(ctx context.Context, token string) (*models.User, error)
	SetRole(ctx context.Context, username, role string) error
}

// ExportService streams full data dumps
type ExportService interface {
	Stream(ctx context.Context, w http.ResponseWriter, resource, format string) error
	Counts(ctx context.Context) (map[string]int, error)
}

// SessionJanitor periodically removes expired sessions
type SessionJanitor interface {
	// StartProcessor returns immediately; the sweep loop runs in the background
	StartProcessor(ctx context.Context)
	StopProcessor()
	Sweep(ctx context.Context) (int64, error)
}

// Services holds all service interfaces
type Services struct {
	Feed    FeedService
	Post    PostService
	Comment CommentService
	Follow  FollowService
	Group   GroupService
	Auth    AuthService
	Export  ExportService
	Janitor SessionJanitor
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, store storage.Store, cfg *config.Config, log zerolog.Logger) *Services {
	validator := validation.NewValidator(cfg.Storage.MaxUploadSize)

	return &Services{
		Feed:    newFeedService(repos, store, log),
		Post:    newPostService(repos, store, validator, log),
		Comment: newCommentService(repos, validator, log),
		Follow:  newFollowService(repos, log),
		Group:   newGroupService(repos, validator, log),
		Auth:    newAuthService(repos, validator, &cfg.Auth, log),
		Export:  newExportService(repos, store, log),
		Janitor: newSessionJanitor(repos.Session, cfg.Auth.CleanupInterval, log),
	}
}

// present fills the display fields derived from stored data
func present(store storage.Store, posts ...*models.Post) {
	for _, p := range posts {
		p.HTML = validation.RenderHTML(p.Text)
		if p.Image != nil && *p.Image != "" {
			p.ImageURL = store.URL(*p.Image)
		}
	}
}

func presentComments(comments ...*models.Comment) {
	for _, c := range comments {
		c.HTML = validation.RenderHTML(c.Text)
	}
}
