package benchmark

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/social-blog-api/internal/config"
	"github.com/social-blog-api/internal/mocks"
	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/service"
	"github.com/social-blog-api/internal/validation"
)

// seed publishes n posts spread over ten authors; reader follows the first three
func seed(b *testing.B, n int) (*service.Services, *models.User) {
	b.Helper()

	repos, db := mocks.NewRepositories()
	cfg := config.Default()
	cfg.Auth.BcryptCost = 4
	svc := service.NewServices(repos, mocks.NewMockStore(), cfg, zerolog.Nop())
	ctx := context.Background()

	authors := make([]*models.User, 10)
	for i := range authors {
		authors[i] = db.AddUser(fmt.Sprintf("author%02d", i))
	}
	reader := db.AddUser("reader")
	for _, a := range authors[:3] {
		if err := svc.Follow.Follow(ctx, reader, a.Username); err != nil {
			b.Fatal(err)
		}
	}

	for i := 0; i < n; i++ {
		input := &models.NewPostInput{Text: fmt.Sprintf("post number %d", i)}
		if _, err := svc.Post.Create(ctx, authors[i%len(authors)], input); err != nil {
			b.Fatal(err)
		}
	}
	return svc, reader
}

// BenchmarkFeedPage benchmarks resolving a middle page of the global feed
func BenchmarkFeedPage(b *testing.B) {
	svc, _ := seed(b, 1000)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Feed.Get(ctx, service.FeedFilter{Kind: service.FeedAll}, 50); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkFollowedFeed benchmarks the followed-authors feed
func BenchmarkFollowedFeed(b *testing.B) {
	svc, reader := seed(b, 1000)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := svc.Feed.Get(ctx, service.FeedFilter{Kind: service.FeedFollowed, Viewer: reader}, 1); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkExportPosts benchmarks streaming every post as NDJSON
func BenchmarkExportPosts(b *testing.B) {
	svc, _ := seed(b, 1000)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		if err := svc.Export.Stream(ctx, rec, "posts", "ndjson"); err != nil {
			b.Fatal(err)
		}
		io.Copy(io.Discard, rec.Body)
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkValidatePost benchmarks validating post input
func BenchmarkValidatePost(b *testing.B) {
	v := validation.NewValidator(5 << 20)
	groupID := int64(1)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		input := &models.NewPostInput{
			Text:    `<p>Hello <b>world</b><script>alert("x")</script></p>`,
			GroupID: &groupID,
		}
		v.ValidatePost(input)
	}
}

// BenchmarkSlugify benchmarks deriving slugs from group titles
func BenchmarkSlugify(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		validation.Slugify("Crème Brûlée & Other Desserts ")
	}
}

// BenchmarkRenderHTML benchmarks rendering post text for display
func BenchmarkRenderHTML(b *testing.B) {
	text := "Some *markdown* with a [link](https://example.com) and <script>alert(1)</script>\n\nSecond paragraph."
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		validation.RenderHTML(text)
	}
}
