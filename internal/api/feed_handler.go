package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/pagination"
	"github.com/social-blog-api/internal/service"
)

// FeedHandler serves the paginated post listings
type FeedHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(services *service.Services, log zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		services: services,
		log:      log.With().Str("handler", "feed").Logger(),
	}
}

// Index handles GET /v1/posts?page=N
func (h *FeedHandler) Index(c *gin.Context) {
	h.feed(c, service.FeedFilter{Kind: service.FeedAll})
}

// Followed handles GET /v1/follow?page=N
func (h *FeedHandler) Followed(c *gin.Context) {
	h.feed(c, service.FeedFilter{Kind: service.FeedFollowed, Viewer: currentUser(c)})
}

func (h *FeedHandler) feed(c *gin.Context, filter service.FeedFilter) {
	page, err := h.services.Feed.Get(c.Request.Context(), filter, pagination.ParsePage(c.Query("page")))
	if err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Group handles GET /v1/groups/:slug/posts?page=N
func (h *FeedHandler) Group(c *gin.Context) {
	feed, err := h.services.Feed.Group(c.Request.Context(), c.Param("slug"), pagination.ParsePage(c.Query("page")))
	if err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// Profile handles GET /v1/users/:username/posts?page=N
func (h *FeedHandler) Profile(c *gin.Context) {
	profile, err := h.services.Feed.Profile(
		c.Request.Context(),
		currentUser(c),
		c.Param("username"),
		pagination.ParsePage(c.Query("page")),
	)
	if err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, profile)
}
