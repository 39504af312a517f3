package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/social-blog-api/internal/models"
)

const (
	MaxUsernameLength   = 150
	MaxGroupTitleLength = 200
	MaxSlugLength       = 50
	MinPasswordLength   = 8
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)
	slugStrip     = regexp.MustCompile(`[^a-z0-9\s_-]+`)
	slugCollapse  = regexp.MustCompile(`[-\s]+`)
)

// Image types accepted as post attachments, keyed by sniffed content type
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator checks and normalises user input. Text is stored as written;
// markup is only produced by RenderHTML.
type Validator struct {
	maxUploadSize int64
}

// NewValidator creates a new validator. maxUploadSize <= 0 disables the
// attachment size check.
func NewValidator(maxUploadSize int64) *Validator {
	return &Validator{maxUploadSize: maxUploadSize}
}

// ValidatePost trims the post text in place and checks the form.
// An attached image is sniffed; its Body is rewound so it can still be stored.
func (v *Validator) ValidatePost(input *models.NewPostInput) []ValidationError {
	var errors []ValidationError

	input.Text = strings.TrimSpace(input.Text)
	if input.Text == "" {
		errors = append(errors, ValidationError{Field: "text", Message: "text is required"})
	}

	if input.GroupID != nil && *input.GroupID <= 0 {
		errors = append(errors, ValidationError{Field: "group", Message: "invalid group", Value: *input.GroupID})
	}

	if input.Image != nil {
		errors = append(errors, v.ValidateImage(input.Image)...)
	}

	return errors
}

// ValidateComment trims the comment text in place
func (v *Validator) ValidateComment(input *models.CommentInput) []ValidationError {
	input.Text = strings.TrimSpace(input.Text)
	if input.Text == "" {
		return []ValidationError{{Field: "text", Message: "text is required"}}
	}
	return nil
}

// ValidateGroup checks a group form, deriving the slug from the title when
// none is given.
func (v *Validator) ValidateGroup(input *models.GroupInput) []ValidationError {
	var errors []ValidationError

	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Slug = strings.TrimSpace(input.Slug)

	if input.Title == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	} else if utf8.RuneCountInString(input.Title) > MaxGroupTitleLength {
		errors = append(errors, ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("title must be at most %d characters", MaxGroupTitleLength),
		})
	}

	if input.Slug == "" {
		input.Slug = Slugify(input.Title)
	}

	if input.Slug == "" {
		if input.Title != "" {
			errors = append(errors, ValidationError{Field: "slug", Message: "slug is required"})
		}
	} else if !slugRegex.MatchString(input.Slug) {
		errors = append(errors, ValidationError{
			Field:   "slug",
			Message: "slug may contain only letters, numbers, underscores and hyphens",
			Value:   input.Slug,
		})
	} else if len(input.Slug) > MaxSlugLength {
		errors = append(errors, ValidationError{
			Field:   "slug",
			Message: fmt.Sprintf("slug must be at most %d characters", MaxSlugLength),
			Value:   input.Slug,
		})
	}

	return errors
}

// ValidateSignup validates a registration form
func (v *Validator) ValidateSignup(input *models.SignupInput) []ValidationError {
	var errors []ValidationError

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if input.Username == "" {
		errors = append(errors, ValidationError{Field: "username", Message: "username is required"})
	} else if len(input.Username) > MaxUsernameLength || !usernameRegex.MatchString(input.Username) {
		errors = append(errors, ValidationError{
			Field:   "username",
			Message: fmt.Sprintf("username must be at most %d letters, digits and @/./+/-/_", MaxUsernameLength),
			Value:   input.Username,
		})
	}

	if input.Email != "" && !emailRegex.MatchString(input.Email) {
		errors = append(errors, ValidationError{Field: "email", Message: "invalid email format", Value: input.Email})
	}

	if len(input.Password) < MinPasswordLength {
		errors = append(errors, ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength),
		})
	}

	return errors
}

// ValidateLogin validates a login form
func (v *Validator) ValidateLogin(input *models.LoginInput) []ValidationError {
	var errors []ValidationError

	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		errors = append(errors, ValidationError{Field: "username", Message: "username is required"})
	}
	if input.Password == "" {
		errors = append(errors, ValidationError{Field: "password", Message: "password is required"})
	}

	return errors
}

// ValidateImage checks size and sniffed type of an upload and records the
// detected content type on it.
func (v *Validator) ValidateImage(upload *models.Upload) []ValidationError {
	if v.maxUploadSize > 0 && upload.Size > v.maxUploadSize {
		return []ValidationError{{
			Field:   "image",
			Message: fmt.Sprintf("image exceeds maximum size of %d bytes", v.maxUploadSize),
			Value:   upload.Filename,
		}}
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(upload.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return []ValidationError{{Field: "image", Message: "could not read image", Value: upload.Filename}}
	}
	head = head[:n]
	upload.Body = io.MultiReader(bytes.NewReader(head), upload.Body)

	contentType := http.DetectContentType(head)
	if _, ok := imageExtensions[contentType]; !ok {
		return []ValidationError{{
			Field:   "image",
			Message: "upload a valid image: jpeg, png, gif or webp",
			Value:   upload.Filename,
		}}
	}
	upload.ContentType = contentType

	return nil
}

// ImageExtension returns the file extension for a sniffed image type,
// falling back to the uploaded file name.
func ImageExtension(upload *models.Upload) string {
	if ext, ok := imageExtensions[upload.ContentType]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(upload.Filename))
}

// Slugify turns a title into a URL slug: accents are folded, anything other
// than ASCII letters, digits, hyphens and underscores is dropped, and runs of
// whitespace and hyphens become single hyphens. The result is cut to MaxSlugLength.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	slug := strings.ToLower(folded)
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = strings.TrimSpace(slug)
	slug = slugCollapse.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-_")

	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}
