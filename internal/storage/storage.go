// Package storage keeps post image attachments. Images are addressed by an
// opaque handle ("posts/<uuid><ext>") stored on the post row.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/config"
)

// Store saves, removes and addresses image files
type Store interface {
	Save(ctx context.Context, handle, contentType string, body io.Reader) error
	// Delete removes the file; a missing file is not an error
	Delete(ctx context.Context, handle string) error
	URL(handle string) string
}

// NewHandle returns a fresh handle for an image with the given extension
func NewHandle(ext string) string {
	return "posts/" + uuid.NewString() + ext
}

// New builds the store selected by cfg.Backend
func New(cfg *config.StorageConfig, log zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.MediaURL, log)
	case "s3":
		return NewS3Store(cfg, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
