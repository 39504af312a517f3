package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
	"github.com/social-blog-api/internal/storage"
)

// ExportResources lists the resources that can be exported
var ExportResources = []string{"posts", "comments", "groups"}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	store storage.Store
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, store storage.Store, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		store: store,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// recordWriter writes one exported record
type recordWriter func(v interface{}) error

// Stream writes every row of resource to w as ndjson or a json array
func (s *exportService) Stream(ctx context.Context, w http.ResponseWriter, resource, format string) error {
	source, err := s.source(resource)
	if err != nil {
		return err
	}

	switch format {
	case "ndjson":
		w.Header().Set("Content-Type", "application/x-ndjson")
	case "json":
		w.Header().Set("Content-Type", "application/json")
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", resource, format))

	s.log.Info().Str("resource", resource).Str("format", format).Msg("Starting export")

	flusher, _ := w.(http.Flusher)
	count := 0

	if format == "json" {
		w.Write([]byte("["))
	}

	err = source(ctx, func(v interface{}) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if format == "json" && count > 0 {
			w.Write([]byte(","))
		}
		w.Write(data)
		if format == "ndjson" {
			w.Write([]byte("\n"))
		}
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	if format == "json" {
		w.Write([]byte("]"))
	}

	s.log.Info().Str("resource", resource).Int("count", count).Msg("Export completed")
	return err
}

func (s *exportService) source(resource string) (func(context.Context, recordWriter) error, error) {
	switch resource {
	case "posts":
		return func(ctx context.Context, write recordWriter) error {
			return s.repos.Post.StreamAll(ctx, func(p *models.Post) error {
				present(s.store, p)
				return write(p)
			})
		}, nil
	case "comments":
		return func(ctx context.Context, write recordWriter) error {
			return s.repos.Comment.StreamAll(ctx, func(c *models.Comment) error {
				presentComments(c)
				return write(c)
			})
		}, nil
	case "groups":
		return func(ctx context.Context, write recordWriter) error {
			return s.repos.Group.StreamAll(ctx, func(g *models.Group) error { return write(g) })
		}, nil
	default:
		return nil, fmt.Errorf("unknown resource: %s", resource)
	}
}

// Counts returns row counts per table, for the metrics endpoint
func (s *exportService) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)

	counters := map[string]func(context.Context) (int, error){
		"users":    s.repos.User.Count,
		"groups":   s.repos.Group.Count,
		"comments": s.repos.Comment.Count,
		"follows":  s.repos.Follow.Count,
		"posts": func(ctx context.Context) (int, error) {
			return s.repos.Post.Count(ctx, repository.PostFilter{})
		},
	}

	for name, count := range counters {
		n, err := count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}
