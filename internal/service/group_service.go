package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
	"github.com/social-blog-api/internal/validation"
)

type groupService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	log       zerolog.Logger
}

func newGroupService(repos *repository.Repositories, validator *validation.Validator, log zerolog.Logger) *groupService {
	return &groupService{
		repos:     repos,
		validator: validator,
		log:       log.With().Str("service", "group").Logger(),
	}
}

// Create adds a group; only administrators may do so
func (s *groupService) Create(ctx context.Context, actor *models.User, input *models.GroupInput) (*models.Group, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := invalid(s.validator.ValidateGroup(input)); err != nil {
		return nil, err
	}

	group := &models.Group{
		Title:       input.Title,
		Slug:        input.Slug,
		Description: input.Description,
	}
	err := s.repos.Group.Create(ctx, group)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fieldError("slug", "group with this slug already exists", input.Slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.log.Info().Int64("group_id", group.ID).Str("slug", group.Slug).Msg("Group created")
	return group, nil
}

func (s *groupService) Get(ctx context.Context, slug string) (*models.Group, error) {
	group, err := s.repos.Group.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if group == nil {
		return nil, ErrNotFound
	}
	return group, nil
}

func (s *groupService) List(ctx context.Context) ([]*models.Group, error) {
	return s.repos.Group.List(ctx)
}

// Delete removes a group. Its posts remain, no longer in any group.
func (s *groupService) Delete(ctx context.Context, actor *models.User, slug string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	group, err := s.Get(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.repos.Group.Delete(ctx, group.ID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	s.log.Info().Int64("group_id", group.ID).Str("slug", group.Slug).Msg("Group deleted")
	return nil
}
