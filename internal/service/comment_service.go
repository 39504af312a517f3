package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
	"github.com/social-blog-api/internal/validation"
)

type commentService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	log       zerolog.Logger
}

func newCommentService(repos *repository.Repositories, validator *validation.Validator, log zerolog.Logger) *commentService {
	return &commentService{
		repos:     repos,
		validator: validator,
		log:       log.With().Str("service", "comment").Logger(),
	}
}

// Add attaches a comment by actor to username's post
func (s *commentService) Add(ctx context.Context, actor *models.User, username string, postID int64, input *models.CommentInput) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	post, err := s.repos.Post.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil || post.Author != username {
		return nil, ErrNotFound
	}

	if err := invalid(s.validator.ValidateComment(input)); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: actor.ID,
		Author:   actor.Username,
		Text:     input.Text,
	}
	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.log.Debug().
		Int64("post_id", post.ID).
		Int64("comment_id", comment.ID).
		Str("author", actor.Username).
		Msg("Comment added")

	presentComments(comment)
	return comment, nil
}

// List returns a post's comments, newest first
func (s *commentService) List(ctx context.Context, postID int64) ([]*models.Comment, error) {
	comments, err := s.repos.Comment.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	presentComments(comments...)
	return comments, nil
}
