package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/config"
)

// S3Store keeps images in an S3 (or S3-compatible) bucket
type S3Store struct {
	bucket   string
	baseURL  string
	client   *s3.S3
	uploader *s3manager.Uploader
	log      zerolog.Logger
}

// NewS3Store creates an S3 store. Credentials come from the default AWS
// chain (environment, shared config, instance role).
func NewS3Store(cfg *config.StorageConfig, log zerolog.Logger) (*S3Store, error) {
	awsCfg := aws.NewConfig()
	if cfg.S3Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.S3Region)
	}
	if cfg.S3Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.S3Endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}

	return &S3Store{
		bucket:   cfg.S3Bucket,
		baseURL:  s3BaseURL(cfg),
		client:   s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		log:      log.With().Str("component", "storage").Str("backend", "s3").Str("bucket", cfg.S3Bucket).Logger(),
	}, nil
}

// s3BaseURL prefers an absolute MEDIA_URL (CDN in front of the bucket) and
// otherwise addresses objects on the endpoint or AWS directly.
func s3BaseURL(cfg *config.StorageConfig) string {
	var base string
	switch {
	case strings.HasPrefix(cfg.MediaURL, "http://") || strings.HasPrefix(cfg.MediaURL, "https://"):
		base = cfg.MediaURL
	case cfg.S3Endpoint != "":
		base = strings.TrimSuffix(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	default:
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

func (s *S3Store) Save(ctx context.Context, handle, contentType string, body io.Reader) error {
	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return fmt.Errorf("error uploading %s: %w", handle, err)
	}

	s.log.Debug().Str("handle", handle).Msg("Image uploaded")
	return nil
}

// Delete removes the object; S3 reports success for missing keys
func (s *S3Store) Delete(ctx context.Context, handle string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
	})
	if err != nil {
		return fmt.Errorf("error deleting %s: %w", handle, err)
	}
	return nil
}

func (s *S3Store) URL(handle string) string {
	return s.baseURL + strings.TrimPrefix(handle, "/")
}
