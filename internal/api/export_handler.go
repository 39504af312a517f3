package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/service"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /v1/exports?resource=...&format=...
// Streams the export directly to the response. Administrators only.
func (h *ExportHandler) StreamExport(c *gin.Context) {
	if !currentUser(c).IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	resource := c.Query("resource")
	switch resource {
	case "posts", "comments", "groups":
	case "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource parameter is required (posts, comments, groups)"})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "resource must be one of: posts, comments, groups"})
		return
	}

	format := c.Query("format")
	if format == "" {
		format = "ndjson" // Default to NDJSON for streaming
	}
	if format != "ndjson" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: ndjson, json"})
		return
	}

	if err := h.services.Export.Stream(c.Request.Context(), c.Writer, resource, format); err != nil {
		h.log.Error().Err(err).Str("resource", resource).Msg("Export failed")
		// Can't return error JSON after streaming has started
		return
	}
}
