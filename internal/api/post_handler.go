package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/service"
	"github.com/social-blog-api/internal/validation"
)

// PostHandler handles post and comment endpoints
type PostHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(services *service.Services, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		services: services,
		log:      log.With().Str("handler", "post").Logger(),
	}
}

func postPath(username string, postID int64) string {
	return fmt.Sprintf("/v1/users/%s/posts/%d", username, postID)
}

func profilePath(username string) string {
	return fmt.Sprintf("/v1/users/%s/posts", username)
}

// postID parses the :post_id segment; anything unparseable cannot exist
func (h *PostHandler) postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}

// bindPostInput reads the post form from JSON or multipart form data. The
// returned closer releases an attached upload.
func bindPostInput(c *gin.Context) (*models.NewPostInput, io.Closer, error) {
	input := &models.NewPostInput{}

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(input); err != nil {
			return nil, nil, err
		}
		return input, nil, nil
	}

	input.Text = c.PostForm("text")
	input.ClearImage, _ = strconv.ParseBool(c.PostForm("clear_image"))

	if raw := strings.TrimSpace(c.PostForm("group")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return input, nil, &service.ValidationErrors{Errors: []validation.ValidationError{
				{Field: "group", Message: "select a valid group", Value: raw},
			}}
		}
		input.GroupID = &id
	}

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return input, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	file, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	input.Image = &models.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        file,
	}
	return input, file, nil
}

func (h *PostHandler) bindError(c *gin.Context, err error, input interface{}) {
	var verrs *service.ValidationErrors
	if errors.As(err, &verrs) {
		respondError(c, h.log, err, input)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

// Create handles POST /v1/posts
func (h *PostHandler) Create(c *gin.Context) {
	input, closer, err := bindPostInput(c)
	if err != nil {
		h.bindError(c, err, input)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	post, err := h.services.Post.Create(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondError(c, h.log, err, input)
		return
	}

	c.Header("Location", postPath(post.Author, post.ID))
	c.JSON(http.StatusCreated, post)
}

// View handles GET /v1/users/:username/posts/:post_id
func (h *PostHandler) View(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	view, err := h.services.Post.Get(c.Request.Context(), c.Param("username"), id)
	if err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Edit handles PUT /v1/users/:username/posts/:post_id. Anyone but the
// author is sent back to the read-only post view.
func (h *PostHandler) Edit(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	username := c.Param("username")

	// the body is not read until the actor is known to own the post
	if err := h.services.Post.CheckOwner(c.Request.Context(), currentUser(c), username, id); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.Redirect(http.StatusFound, postPath(username, id))
			return
		}
		respondError(c, h.log, err, nil)
		return
	}

	input, closer, err := bindPostInput(c)
	if err != nil {
		h.bindError(c, err, input)
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	post, err := h.services.Post.Edit(c.Request.Context(), currentUser(c), username, id, input)
	if errors.Is(err, service.ErrForbidden) {
		c.Redirect(http.StatusFound, postPath(username, id))
		return
	}
	if err != nil {
		respondError(c, h.log, err, input)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /v1/users/:username/posts/:post_id
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	username := c.Param("username")

	err := h.services.Post.Delete(c.Request.Context(), currentUser(c), username, id)
	if errors.Is(err, service.ErrForbidden) {
		c.Redirect(http.StatusFound, postPath(username, id))
		return
	}
	if err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddComment handles POST /v1/users/:username/posts/:post_id/comments
func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	var input models.CommentInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	comment, err := h.services.Comment.Add(c.Request.Context(), currentUser(c), c.Param("username"), id, &input)
	if err != nil {
		respondError(c, h.log, err, input)
		return
	}

	c.Header("Location", postPath(c.Param("username"), id))
	c.JSON(http.StatusCreated, comment)
}
