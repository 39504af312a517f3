package validation

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-blog-api/internal/models"
)

// smallest valid PNG header, enough for content sniffing
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func fieldsOf(errs []ValidationError) []string {
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return fields
}

func int64Ptr(v int64) *int64 { return &v }

func TestValidatePost(t *testing.T) {
	validator := NewValidator(1024)

	tests := []struct {
		name       string
		input      *models.NewPostInput
		wantFields []string
		wantText   string
	}{
		{
			name:     "plain text",
			input:    &models.NewPostInput{Text: "Hello world"},
			wantText: "Hello world",
		},
		{
			name:       "empty text",
			input:      &models.NewPostInput{Text: ""},
			wantFields: []string{"text"},
		},
		{
			name:       "whitespace only",
			input:      &models.NewPostInput{Text: "   \n\t"},
			wantFields: []string{"text"},
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    &models.NewPostInput{Text: "  Tom & Jerry: 1 < 2 \n"},
			wantText: "Tom & Jerry: 1 < 2",
		},
		{
			name:     "markup stored as written",
			input:    &models.NewPostInput{Text: `<b onclick="x()">bold</b>`},
			wantText: `<b onclick="x()">bold</b>`,
		},
		{
			name:     "markup only is not empty",
			input:    &models.NewPostInput{Text: "<b></b>"},
			wantText: "<b></b>",
		},
		{
			name:       "non-positive group",
			input:      &models.NewPostInput{Text: "ok", GroupID: int64Ptr(0)},
			wantFields: []string{"group"},
			wantText:   "ok",
		},
		{
			name:     "with group",
			input:    &models.NewPostInput{Text: "ok", GroupID: int64Ptr(3)},
			wantText: "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validator.ValidatePost(tt.input)
			if len(tt.wantFields) == 0 {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, tt.wantFields, fieldsOf(errs))
			}
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, tt.input.Text)
			}
		})
	}
}

func TestValidateImage(t *testing.T) {
	validator := NewValidator(1024)

	t.Run("png is accepted and body is preserved", func(t *testing.T) {
		upload := &models.Upload{
			Filename: "cat.PNG",
			Size:     int64(len(pngHeader)),
			Body:     bytes.NewReader(pngHeader),
		}

		errs := validator.ValidateImage(upload)
		require.Empty(t, errs)
		assert.Equal(t, "image/png", upload.ContentType)
		assert.Equal(t, ".png", ImageExtension(upload))

		body, err := io.ReadAll(upload.Body)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, body)
	})

	t.Run("text file is rejected", func(t *testing.T) {
		upload := &models.Upload{
			Filename: "notes.png",
			Size:     5,
			Body:     strings.NewReader("hello"),
		}
		errs := validator.ValidateImage(upload)
		assert.Equal(t, []string{"image"}, fieldsOf(errs))
	})

	t.Run("too large", func(t *testing.T) {
		upload := &models.Upload{
			Filename: "big.png",
			Size:     4096,
			Body:     bytes.NewReader(pngHeader),
		}
		errs := validator.ValidateImage(upload)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "maximum size")
	})

	t.Run("post carries image errors", func(t *testing.T) {
		input := &models.NewPostInput{
			Text:  "with picture",
			Image: &models.Upload{Filename: "a.gif", Size: 3, Body: strings.NewReader("abc")},
		}
		assert.Equal(t, []string{"image"}, fieldsOf(validator.ValidatePost(input)))
	})
}

func TestValidateComment(t *testing.T) {
	validator := NewValidator(0)

	input := &models.CommentInput{Text: "  nice post  "}
	assert.Empty(t, validator.ValidateComment(input))
	assert.Equal(t, "nice post", input.Text)

	empty := &models.CommentInput{Text: ""}
	errs := validator.ValidateComment(empty)
	require.Len(t, errs, 1)
	assert.Equal(t, "text", errs[0].Field)
}

func TestValidateGroup(t *testing.T) {
	validator := NewValidator(0)

	tests := []struct {
		name       string
		input      *models.GroupInput
		wantFields []string
		wantSlug   string
	}{
		{
			name:     "explicit slug",
			input:    &models.GroupInput{Title: "Cats", Slug: "cats_and-dogs"},
			wantSlug: "cats_and-dogs",
		},
		{
			name:     "slug derived from title",
			input:    &models.GroupInput{Title: "Café  Society -- Weekly"},
			wantSlug: "cafe-society-weekly",
		},
		{
			name:       "missing title",
			input:      &models.GroupInput{Slug: "x"},
			wantFields: []string{"title"},
			wantSlug:   "x",
		},
		{
			name:       "invalid slug characters",
			input:      &models.GroupInput{Title: "Cats", Slug: "cats!"},
			wantFields: []string{"slug"},
		},
		{
			name:       "slug too long",
			input:      &models.GroupInput{Title: "Cats", Slug: strings.Repeat("a", MaxSlugLength+1)},
			wantFields: []string{"slug"},
		},
		{
			name:       "title too long",
			input:      &models.GroupInput{Title: strings.Repeat("t", MaxGroupTitleLength+1), Slug: "t"},
			wantFields: []string{"title"},
		},
		{
			name:       "title without sluggable characters",
			input:      &models.GroupInput{Title: "!!!"},
			wantFields: []string{"slug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validator.ValidateGroup(tt.input)
			if len(tt.wantFields) == 0 {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, tt.wantFields, fieldsOf(errs))
			}
			if tt.wantSlug != "" {
				assert.Equal(t, tt.wantSlug, tt.input.Slug)
			}
		})
	}
}

func TestValidateSignup(t *testing.T) {
	validator := NewValidator(0)

	tests := []struct {
		name       string
		input      *models.SignupInput
		wantFields []string
	}{
		{
			name:  "valid",
			input: &models.SignupInput{Username: "leo.tolstoy", Email: "leo@example.com", Password: "war-and-peace"},
		},
		{
			name:  "email optional",
			input: &models.SignupInput{Username: "anna", Password: "karenina1"},
		},
		{
			name:       "missing username",
			input:      &models.SignupInput{Password: "password1"},
			wantFields: []string{"username"},
		},
		{
			name:       "username with spaces",
			input:      &models.SignupInput{Username: "leo tolstoy", Password: "password1"},
			wantFields: []string{"username"},
		},
		{
			name:       "username too long",
			input:      &models.SignupInput{Username: strings.Repeat("u", MaxUsernameLength+1), Password: "password1"},
			wantFields: []string{"username"},
		},
		{
			name:       "bad email and short password",
			input:      &models.SignupInput{Username: "leo", Email: "not-an-email", Password: "short"},
			wantFields: []string{"email", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := validator.ValidateSignup(tt.input)
			if len(tt.wantFields) == 0 {
				assert.Empty(t, errs)
			} else {
				assert.Equal(t, tt.wantFields, fieldsOf(errs))
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	validator := NewValidator(0)

	assert.Empty(t, validator.ValidateLogin(&models.LoginInput{Username: "leo", Password: "x"}))
	assert.Equal(t, []string{"username", "password"}, fieldsOf(validator.ValidateLogin(&models.LoginInput{})))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  leading and trailing  ", "leading-and-trailing"},
		{"Crème brûlée", "creme-brulee"},
		{"snake_case stays", "snake_case-stays"},
		{"a -- b", "a-b"},
		{"-_-edge-_-", "edge"},
		{"", ""},
		{strings.Repeat("ab ", 30), strings.TrimRight(strings.Repeat("ab-", 17)[:50], "-")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		contains    []string
		notContains []string
	}{
		{
			name:     "special characters escaped",
			text:     "Tom & Jerry: 1 < 2",
			contains: []string{"<p>Tom &amp; Jerry: 1 &lt; 2</p>"},
		},
		{
			name:     "markdown emphasis",
			text:     "so *very* good",
			contains: []string{"<em>very</em>"},
		},
		{
			name:        "script removed",
			text:        "<script>alert(1)</script>hello",
			contains:    []string{"hello"},
			notContains: []string{"<script", "alert(1)"},
		},
		{
			name:        "event handler removed",
			text:        `<b onclick="x()">bold</b>`,
			contains:    []string{"<b>bold</b>"},
			notContains: []string{"onclick"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := RenderHTML(tt.text)
			for _, want := range tt.contains {
				assert.Contains(t, html, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, html, unwanted)
			}
		})
	}

	assert.Equal(t, "", RenderHTML("   "))
}
