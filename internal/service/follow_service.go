package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
)

type followService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newFollowService(repos *repository.Repositories, log zerolog.Logger) *followService {
	return &followService{
		repos: repos,
		log:   log.With().Str("service", "follow").Logger(),
	}
}

func (s *followService) author(ctx context.Context, username string) (*models.User, error) {
	author, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	if author == nil {
		return nil, ErrNotFound
	}
	return author, nil
}

// Follow subscribes actor to username's posts. Following yourself or an
// author you already follow changes nothing.
func (s *followService) Follow(ctx context.Context, actor *models.User, username string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	author, err := s.author(ctx, username)
	if err != nil {
		return err
	}
	if author.ID == actor.ID {
		return nil
	}

	exists, err := s.repos.Follow.Exists(ctx, actor.ID, author.ID)
	if err != nil {
		return fmt.Errorf("failed to check follow: %w", err)
	}
	if exists {
		return nil
	}

	err = s.repos.Follow.Create(ctx, &models.Follow{UserID: actor.ID, AuthorID: author.ID})
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a race with a concurrent follow of the same author
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}

	s.log.Info().Str("user", actor.Username).Str("author", author.Username).Msg("Followed")
	return nil
}

// Unfollow removes actor's edge to username, if any
func (s *followService) Unfollow(ctx context.Context, actor *models.User, username string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	author, err := s.author(ctx, username)
	if err != nil {
		return err
	}

	removed, err := s.repos.Follow.Delete(ctx, actor.ID, author.ID)
	if err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}
	if removed {
		s.log.Info().Str("user", actor.Username).Str("author", author.Username).Msg("Unfollowed")
	}
	return nil
}

func (s *followService) IsFollowing(ctx context.Context, userID, authorID string) (bool, error) {
	return s.repos.Follow.Exists(ctx, userID, authorID)
}
