package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
	"github.com/social-blog-api/internal/storage"
	"github.com/social-blog-api/internal/validation"
)

// postService is the concrete implementation of PostService
type postService struct {
	repos     *repository.Repositories
	store     storage.Store
	validator *validation.Validator
	log       zerolog.Logger
}

func newPostService(repos *repository.Repositories, store storage.Store, validator *validation.Validator, log zerolog.Logger) *postService {
	return &postService{
		repos:     repos,
		store:     store,
		validator: validator,
		log:       log.With().Str("service", "post").Logger(),
	}
}

// validate checks the form and that the chosen group exists
func (s *postService) validate(ctx context.Context, input *models.NewPostInput) error {
	errs := s.validator.ValidatePost(input)

	if input.GroupID != nil && *input.GroupID > 0 {
		group, err := s.repos.Group.GetByID(ctx, *input.GroupID)
		if err != nil {
			return fmt.Errorf("failed to get group: %w", err)
		}
		if group == nil {
			errs = append(errs, validation.ValidationError{
				Field:   "group",
				Message: "select a valid group",
				Value:   *input.GroupID,
			})
		}
	}

	return invalid(errs)
}

// saveImage stores an attached upload and returns its handle
func (s *postService) saveImage(ctx context.Context, upload *models.Upload) (*string, error) {
	handle := storage.NewHandle(validation.ImageExtension(upload))
	if err := s.store.Save(ctx, handle, upload.ContentType, upload.Body); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}
	return &handle, nil
}

func (s *postService) removeImage(ctx context.Context, handle *string) {
	if handle == nil || *handle == "" {
		return
	}
	if err := s.store.Delete(ctx, *handle); err != nil {
		s.log.Warn().Err(err).Str("handle", *handle).Msg("Failed to remove image")
	}
}

// Create publishes a new post by actor
func (s *postService) Create(ctx context.Context, actor *models.User, input *models.NewPostInput) (*models.Post, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     input.Text,
		AuthorID: actor.ID,
		Author:   actor.Username,
		GroupID:  input.GroupID,
	}

	if input.Image != nil {
		handle, err := s.saveImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		post.Image = handle
	}

	if err := s.repos.Post.Create(ctx, post); err != nil {
		s.removeImage(ctx, post.Image)
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.log.Info().
		Int64("post_id", post.ID).
		Str("author", actor.Username).
		Msg("Post created")

	created, err := s.repos.Post.GetByID(ctx, post.ID)
	if err != nil || created == nil {
		present(s.store, post)
		return post, nil
	}
	present(s.store, created)
	return created, nil
}

// lookup returns the post only when it is authored by username
func (s *postService) lookup(ctx context.Context, username string, postID int64) (*models.Post, error) {
	post, err := s.repos.Post.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil || post.Author != username {
		return nil, ErrNotFound
	}
	return post, nil
}

// Get returns a post with its comments, newest first
func (s *postService) Get(ctx context.Context, username string, postID int64) (*models.PostView, error) {
	post, err := s.lookup(ctx, username, postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.repos.Comment.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	present(s.store, post)
	presentComments(comments...)
	return &models.PostView{Post: post, Comments: comments}, nil
}

// CheckOwner reports whether actor may edit or delete the post
func (s *postService) CheckOwner(ctx context.Context, actor *models.User, username string, postID int64) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	post, err := s.lookup(ctx, username, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.ID {
		return ErrForbidden
	}
	return nil
}

// Edit rewrites a post. Only its author may edit it; a replaced or cleared
// image is removed from storage once the row is updated.
func (s *postService) Edit(ctx context.Context, actor *models.User, username string, postID int64, input *models.NewPostInput) (*models.Post, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	post, err := s.lookup(ctx, username, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, ErrForbidden
	}

	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	post.Text = input.Text
	post.GroupID = input.GroupID
	if input.ClearImage {
		post.Image = nil
	}
	var added *string
	if input.Image != nil {
		added, err = s.saveImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		post.Image = added
	}

	previous, err := s.repos.Post.Update(ctx, post)
	if err != nil {
		s.removeImage(ctx, added)
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if previous != nil && (post.Image == nil || *previous != *post.Image) {
		s.removeImage(ctx, previous)
	}

	s.log.Info().Int64("post_id", post.ID).Str("author", actor.Username).Msg("Post edited")

	updated, err := s.repos.Post.GetByID(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	present(s.store, updated)
	return updated, nil
}

// Delete removes a post with its comments and image
func (s *postService) Delete(ctx context.Context, actor *models.User, username string, postID int64) error {
	if actor == nil {
		return ErrUnauthenticated
	}

	post, err := s.lookup(ctx, username, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actor.ID {
		return ErrForbidden
	}

	image, err := s.repos.Post.Delete(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	s.removeImage(ctx, image)

	s.log.Info().Int64("post_id", post.ID).Str("author", actor.Username).Msg("Post deleted")
	return nil
}
