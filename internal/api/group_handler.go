package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/service"
)

// GroupHandler handles group administration
type GroupHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(services *service.Services, log zerolog.Logger) *GroupHandler {
	return &GroupHandler{
		services: services,
		log:      log.With().Str("handler", "group").Logger(),
	}
}

// List handles GET /v1/groups
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.services.Group.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// Create handles POST /v1/groups (administrators only)
func (h *GroupHandler) Create(c *gin.Context) {
	var input models.GroupInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	group, err := h.services.Group.Create(c.Request.Context(), currentUser(c), &input)
	if err != nil {
		respondError(c, h.log, err, input)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// Delete handles DELETE /v1/groups/:slug (administrators only)
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.services.Group.Delete(c.Request.Context(), currentUser(c), c.Param("slug")); err != nil {
		respondError(c, h.log, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}
