package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/service"
)

// FollowHandler handles follow and unfollow. Both redirect to the author's
// profile, whether or not an edge changed.
type FollowHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(services *service.Services, log zerolog.Logger) *FollowHandler {
	return &FollowHandler{
		services: services,
		log:      log.With().Str("handler", "follow").Logger(),
	}
}

// Follow handles POST /v1/users/:username/follow
func (h *FollowHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	if err := h.services.Follow.Follow(c.Request.Context(), currentUser(c), username); err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.Redirect(http.StatusFound, profilePath(username))
}

// Unfollow handles POST /v1/users/:username/unfollow
func (h *FollowHandler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if err := h.services.Follow.Unfollow(c.Request.Context(), currentUser(c), username); err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.Redirect(http.StatusFound, profilePath(username))
}
