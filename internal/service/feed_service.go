package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/pagination"
	"github.com/social-blog-api/internal/repository"
	"github.com/social-blog-api/internal/storage"
)

// feedService is the concrete implementation of FeedService. Every call
// reads the current posts; nothing is cached.
type feedService struct {
	repos *repository.Repositories
	store storage.Store
	log   zerolog.Logger
}

func newFeedService(repos *repository.Repositories, store storage.Store, log zerolog.Logger) *feedService {
	return &feedService{
		repos: repos,
		store: store,
		log:   log.With().Str("service", "feed").Logger(),
	}
}

// Get returns one page of the feed described by filter
func (s *feedService) Get(ctx context.Context, filter FeedFilter, page int) (*models.Page, error) {
	var pf repository.PostFilter

	switch filter.Kind {
	case FeedAll, "":
	case FeedGroup:
		group, err := s.repos.Group.GetBySlug(ctx, filter.GroupSlug)
		if err != nil {
			return nil, fmt.Errorf("failed to get group: %w", err)
		}
		if group == nil {
			return nil, ErrNotFound
		}
		pf.GroupID = &group.ID
	case FeedAuthor:
		author, err := s.repos.User.GetByUsername(ctx, filter.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to get author: %w", err)
		}
		if author == nil {
			return nil, ErrNotFound
		}
		pf.AuthorID = &author.ID
	case FeedFollowed:
		if filter.Viewer == nil {
			return nil, ErrUnauthenticated
		}
		pf.FollowerID = &filter.Viewer.ID
	default:
		return nil, fmt.Errorf("unknown feed kind: %s", filter.Kind)
	}

	return s.page(ctx, pf, page)
}

func (s *feedService) page(ctx context.Context, pf repository.PostFilter, requested int) (*models.Page, error) {
	count, err := s.repos.Post.Count(ctx, pf)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	window := pagination.Resolve(requested, count, pagination.PerPage)

	items := []*models.Post{}
	if window.Limit > 0 {
		items, err = s.repos.Post.List(ctx, pf, window.Limit, window.Offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list posts: %w", err)
		}
	}
	present(s.store, items...)

	return &models.Page{
		Items:       items,
		Number:      window.Number,
		NumPages:    window.NumPages,
		Count:       window.Count,
		PerPage:     window.PerPage,
		HasNext:     window.HasNext,
		HasPrevious: window.HasPrevious,
	}, nil
}

// Group returns a group with one page of its posts
func (s *feedService) Group(ctx context.Context, slug string, page int) (*models.GroupFeed, error) {
	group, err := s.repos.Group.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, ErrNotFound
	}

	p, err := s.page(ctx, repository.PostFilter{GroupID: &group.ID}, page)
	if err != nil {
		return nil, err
	}
	return &models.GroupFeed{Group: group, Page: p}, nil
}

// Profile returns an author's posts together with whether viewer follows them
func (s *feedService) Profile(ctx context.Context, viewer *models.User, username string, page int) (*models.Profile, error) {
	author, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	if author == nil {
		return nil, ErrNotFound
	}

	p, err := s.page(ctx, repository.PostFilter{AuthorID: &author.ID}, page)
	if err != nil {
		return nil, err
	}

	following := false
	if viewer != nil && viewer.ID != author.ID {
		following, err = s.repos.Follow.Exists(ctx, viewer.ID, author.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check follow: %w", err)
		}
	}

	public := *author
	public.Email = ""

	return &models.Profile{
		Author:    &public,
		PostCount: p.Count,
		Following: following,
		Page:      p,
	}, nil
}
