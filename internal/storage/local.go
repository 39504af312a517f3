package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// LocalStore keeps images under a directory served at mediaURL
type LocalStore struct {
	dir      string
	mediaURL string
	log      zerolog.Logger
}

// NewLocalStore creates the upload directory if needed
func NewLocalStore(dir, mediaURL string, log zerolog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if !strings.HasSuffix(mediaURL, "/") {
		mediaURL += "/"
	}
	return &LocalStore{
		dir:      dir,
		mediaURL: mediaURL,
		log:      log.With().Str("component", "storage").Str("backend", "local").Logger(),
	}, nil
}

// Dir returns the root directory, for serving files over HTTP
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) path(handle string) (string, error) {
	clean := filepath.Clean("/" + handle)
	if clean == "/" {
		return "", fmt.Errorf("invalid handle %q", handle)
	}
	return filepath.Join(s.dir, clean), nil
}

// Save writes body to a temporary file and renames it into place
func (s *LocalStore) Save(ctx context.Context, handle, contentType string, body io.Reader) error {
	target, err := s.path(handle)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	s.log.Debug().Str("handle", handle).Str("content_type", contentType).Msg("Image saved")
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, handle string) error {
	target, err := s.path(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(handle string) string {
	return s.mediaURL + strings.TrimPrefix(handle, "/")
}
