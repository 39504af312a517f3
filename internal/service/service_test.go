package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-blog-api/internal/config"
	"github.com/social-blog-api/internal/mocks"
	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
	"github.com/social-blog-api/internal/service"
)

var pngImage = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fixture struct {
	ctx   context.Context
	svc   *service.Services
	repos *repository.Repositories
	db    *mocks.MemoryDB
	store *mocks.MockStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repos, db := mocks.NewRepositories()

	// one second per insert keeps publication order deterministic
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	db.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	cfg := config.Default()
	cfg.Auth.BcryptCost = 4
	store := mocks.NewMockStore()

	return &fixture{
		ctx:   context.Background(),
		svc:   service.NewServices(repos, store, cfg, zerolog.Nop()),
		repos: repos,
		db:    db,
		store: store,
	}
}

func (f *fixture) post(t *testing.T, author *models.User, text string, groupID *int64) *models.Post {
	t.Helper()
	post, err := f.svc.Post.Create(f.ctx, author, &models.NewPostInput{Text: text, GroupID: groupID})
	require.NoError(t, err)
	return post
}

func (f *fixture) group(t *testing.T, slug string) *models.Group {
	t.Helper()
	admin := &models.User{ID: "admin", Username: "admin", Role: models.RoleAdmin}
	group, err := f.svc.Group.Create(f.ctx, admin, &models.GroupInput{Title: strings.ToUpper(slug), Slug: slug})
	require.NoError(t, err)
	return group
}

func texts(page *models.Page) []string {
	out := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		out = append(out, p.Text)
	}
	return out
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verrs *service.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs.Errors))
	for _, e := range verrs.Errors {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, field)
}

func TestFeedService_Pagination(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")

	for i := 1; i <= 15; i++ {
		f.post(t, author, fmt.Sprintf("post %02d", i), nil)
	}

	page1, err := f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedAll}, 1)
	require.NoError(t, err)
	assert.Len(t, page1.Items, 10)
	assert.Equal(t, 15, page1.Count)
	assert.Equal(t, 2, page1.NumPages)
	assert.True(t, page1.HasNext)
	assert.False(t, page1.HasPrevious)
	assert.Equal(t, "post 15", page1.Items[0].Text)
	assert.Equal(t, "post 06", page1.Items[9].Text)

	page2, err := f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedAll}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"post 05", "post 04", "post 03", "post 02", "post 01"}, texts(page2))
	assert.False(t, page2.HasNext)
	assert.True(t, page2.HasPrevious)

	for _, requested := range []int{3, 99, 0, -1} {
		clamped, err := f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedAll}, requested)
		require.NoError(t, err)
		assert.Equal(t, 2, clamped.Number, "page %d", requested)
		assert.Equal(t, texts(page2), texts(clamped))
	}
}

func TestFeedService_TieBreak(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")

	instant := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f.db.Now = func() time.Time { return instant }

	for i := 1; i <= 11; i++ {
		f.post(t, author, fmt.Sprintf("post %02d", i), nil)
	}

	page1, err := f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedAll}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"post 11", "post 10", "post 09", "post 08", "post 07",
		"post 06", "post 05", "post 04", "post 03", "post 02",
	}, texts(page1))

	page2, err := f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedAll}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"post 01"}, texts(page2))

	// the order is stable across reads
	again, err := f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedAll}, 1)
	require.NoError(t, err)
	assert.Equal(t, texts(page1), texts(again))
}

func TestFeedService_EmptyFeedHasOnePage(t *testing.T) {
	f := newFixture(t)

	page, err := f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedAll}, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.NumPages)
	assert.False(t, page.HasNext)
}

func TestFeedService_ByGroup(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	cats := f.group(t, "cats")
	dogs := f.group(t, "dogs")

	f.post(t, author, "cat 1", &cats.ID)
	f.post(t, author, "dog 1", &dogs.ID)
	f.post(t, author, "no group", nil)
	f.post(t, author, "cat 2", &cats.ID)

	feed, err := f.svc.Feed.Group(f.ctx, "cats", 1)
	require.NoError(t, err)
	assert.Equal(t, "cats", feed.Group.Slug)
	assert.Equal(t, []string{"cat 2", "cat 1"}, texts(feed.Page))
	require.NotNil(t, feed.Page.Items[0].GroupSlug)
	assert.Equal(t, "cats", *feed.Page.Items[0].GroupSlug)

	empty := f.group(t, "empty")
	feed, err = f.svc.Feed.Group(f.ctx, empty.Slug, 1)
	require.NoError(t, err)
	assert.Empty(t, feed.Page.Items)

	_, err = f.svc.Feed.Group(f.ctx, "unknown", 1)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedGroup, GroupSlug: "unknown"}, 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestFeedService_Profile(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	reader := f.db.AddUser("anna")
	f.db.Users[author.ID].Email = "leo@example.com"

	f.post(t, author, "mine", nil)
	f.post(t, reader, "not mine", nil)

	profile, err := f.svc.Feed.Profile(f.ctx, reader, "leo", 1)
	require.NoError(t, err)
	assert.Equal(t, "leo", profile.Author.Username)
	assert.Empty(t, profile.Author.Email)
	assert.Equal(t, 1, profile.PostCount)
	assert.False(t, profile.Following)
	assert.Equal(t, []string{"mine"}, texts(profile.Page))

	require.NoError(t, f.svc.Follow.Follow(f.ctx, reader, "leo"))
	profile, err = f.svc.Feed.Profile(f.ctx, reader, "leo", 1)
	require.NoError(t, err)
	assert.True(t, profile.Following)

	// guests and the author never see a following flag
	profile, err = f.svc.Feed.Profile(f.ctx, nil, "leo", 1)
	require.NoError(t, err)
	assert.False(t, profile.Following)

	_, err = f.svc.Feed.Profile(f.ctx, reader, "ghost", 1)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedAuthor, Username: "ghost"}, 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestFeedService_FollowedFeedTracksEdges(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	other := f.db.AddUser("fyodor")
	reader := f.db.AddUser("anna")

	f.post(t, author, "from leo", nil)
	f.post(t, other, "from fyodor", nil)

	followed := service.FeedFilter{Kind: service.FeedFollowed, Viewer: reader}

	page, err := f.svc.Feed.Get(f.ctx, followed, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	require.NoError(t, f.svc.Follow.Follow(f.ctx, reader, "leo"))
	page, err = f.svc.Feed.Get(f.ctx, followed, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"from leo"}, texts(page))

	require.NoError(t, f.svc.Follow.Unfollow(f.ctx, reader, "leo"))
	page, err = f.svc.Feed.Get(f.ctx, followed, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: service.FeedFollowed}, 1)
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = f.svc.Feed.Get(f.ctx, service.FeedFilter{Kind: "trending"}, 1)
	assert.Error(t, err)
}

func TestFollowService_Idempotent(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	reader := f.db.AddUser("anna")

	require.NoError(t, f.svc.Follow.Follow(f.ctx, reader, "leo"))
	require.NoError(t, f.svc.Follow.Follow(f.ctx, reader, "leo"))
	assert.Equal(t, 1, f.db.FollowEdges(reader.ID, author.ID))

	following, err := f.svc.Follow.IsFollowing(f.ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, following)

	require.NoError(t, f.svc.Follow.Unfollow(f.ctx, reader, "leo"))
	require.NoError(t, f.svc.Follow.Unfollow(f.ctx, reader, "leo"))
	assert.Equal(t, 0, f.db.FollowEdges(reader.ID, author.ID))
}

func TestFollowService_SelfFollowIsNoop(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")

	require.NoError(t, f.svc.Follow.Follow(f.ctx, author, "leo"))
	assert.Equal(t, 0, f.db.FollowEdges(author.ID, author.ID))
}

func TestFollowService_ConcurrentDuplicateSwallowed(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	reader := f.db.AddUser("anna")

	followRepo := f.repos.Follow.(*mocks.MockFollowRepository)
	followRepo.BeforeCreate = func(follow *models.Follow) {
		followRepo.BeforeCreate = nil
		require.NoError(t, followRepo.Create(f.ctx, &models.Follow{UserID: follow.UserID, AuthorID: follow.AuthorID}))
	}

	require.NoError(t, f.svc.Follow.Follow(f.ctx, reader, "leo"))
	assert.Equal(t, 1, f.db.FollowEdges(reader.ID, author.ID))
	assert.Equal(t, 2, followRepo.CreateCalls)
}

func TestFollowService_Errors(t *testing.T) {
	f := newFixture(t)
	reader := f.db.AddUser("anna")
	f.db.AddUser("leo")

	assert.ErrorIs(t, f.svc.Follow.Follow(f.ctx, reader, "ghost"), service.ErrNotFound)
	assert.ErrorIs(t, f.svc.Follow.Unfollow(f.ctx, reader, "ghost"), service.ErrNotFound)
	assert.ErrorIs(t, f.svc.Follow.Follow(f.ctx, nil, "leo"), service.ErrUnauthenticated)
	assert.ErrorIs(t, f.svc.Follow.Unfollow(f.ctx, nil, "leo"), service.ErrUnauthenticated)
}

func TestPostService_Create(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	cats := f.group(t, "cats")

	post, err := f.svc.Post.Create(f.ctx, author, &models.NewPostInput{Text: "hello", GroupID: &cats.ID})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, "leo", post.Author)
	assert.False(t, post.PubDate.IsZero())
	require.NotNil(t, post.GroupTitle)
	assert.Equal(t, "CATS", *post.GroupTitle)

	_, err = f.svc.Post.Create(f.ctx, author, &models.NewPostInput{Text: ""})
	requireValidation(t, err, "text")

	missing := int64(999)
	_, err = f.svc.Post.Create(f.ctx, author, &models.NewPostInput{Text: "x", GroupID: &missing})
	requireValidation(t, err, "group")

	_, err = f.svc.Post.Create(f.ctx, nil, &models.NewPostInput{Text: "guest"})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	assert.Len(t, f.db.Posts, 1)
}

func TestPostService_TextStoredAsWritten(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	reader := f.db.AddUser("anna")

	post, err := f.svc.Post.Create(f.ctx, author, &models.NewPostInput{Text: "  Tom & Jerry: 1 < 2 \n"})
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry: 1 < 2", post.Text)
	assert.Equal(t, "Tom & Jerry: 1 < 2", f.db.Posts[post.ID].Text)
	assert.Contains(t, post.HTML, "Tom &amp; Jerry: 1 &lt; 2")

	comment, err := f.svc.Comment.Add(f.ctx, reader, "leo", post.ID, &models.CommentInput{Text: "<3 it"})
	require.NoError(t, err)
	assert.Equal(t, "<3 it", comment.Text)

	view, err := f.svc.Post.Get(f.ctx, "leo", post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tom & Jerry: 1 < 2", view.Post.Text)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "<3 it", view.Comments[0].Text)
	assert.Contains(t, view.Comments[0].HTML, "&lt;3 it")

	// markup-only text is still text
	tags, err := f.svc.Post.Create(f.ctx, author, &models.NewPostInput{Text: "<b></b>"})
	require.NoError(t, err)
	assert.Equal(t, "<b></b>", tags.Text)

	scripted, err := f.svc.Post.Create(f.ctx, author, &models.NewPostInput{Text: `<script>alert(1)</script>hi`})
	require.NoError(t, err)
	assert.NotContains(t, scripted.HTML, "<script")
}

func TestPostService_CheckOwner(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	other := f.db.AddUser("anna")
	post := f.post(t, author, "hello", nil)

	assert.NoError(t, f.svc.Post.CheckOwner(f.ctx, author, "leo", post.ID))
	assert.ErrorIs(t, f.svc.Post.CheckOwner(f.ctx, other, "leo", post.ID), service.ErrForbidden)
	assert.ErrorIs(t, f.svc.Post.CheckOwner(f.ctx, other, "anna", post.ID), service.ErrNotFound)
	assert.ErrorIs(t, f.svc.Post.CheckOwner(f.ctx, author, "leo", 999), service.ErrNotFound)
	assert.ErrorIs(t, f.svc.Post.CheckOwner(f.ctx, nil, "leo", post.ID), service.ErrUnauthenticated)
}

func TestPostService_CreateWithImage(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")

	post, err := f.svc.Post.Create(f.ctx, author, &models.NewPostInput{
		Text:  "picture",
		Image: &models.Upload{Filename: "cat.png", Size: int64(len(pngImage)), Body: bytes.NewReader(pngImage)},
	})
	require.NoError(t, err)
	require.NotNil(t, post.Image)
	assert.True(t, strings.HasSuffix(*post.Image, ".png"))
	assert.Equal(t, "/media/"+*post.Image, post.ImageURL)
	assert.Equal(t, pngImage, f.store.Files[*post.Image])

	_, err = f.svc.Post.Create(f.ctx, author, &models.NewPostInput{
		Text:  "not a picture",
		Image: &models.Upload{Filename: "cat.png", Size: 5, Body: strings.NewReader("hello")},
	})
	requireValidation(t, err, "image")
	assert.Len(t, f.store.Files, 1)
}

func TestPostService_Get(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	reader := f.db.AddUser("anna")
	post := f.post(t, author, "hello", nil)

	_, err := f.svc.Comment.Add(f.ctx, reader, "leo", post.ID, &models.CommentInput{Text: "first"})
	require.NoError(t, err)
	_, err = f.svc.Comment.Add(f.ctx, author, "leo", post.ID, &models.CommentInput{Text: "second"})
	require.NoError(t, err)

	view, err := f.svc.Post.Get(f.ctx, "leo", post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", view.Post.Text)
	require.Len(t, view.Comments, 2)
	assert.Equal(t, "second", view.Comments[0].Text)
	assert.Equal(t, "leo", view.Comments[0].Author)
	assert.Equal(t, "first", view.Comments[1].Text)

	_, err = f.svc.Post.Get(f.ctx, "anna", post.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.svc.Post.Get(f.ctx, "leo", 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestPostService_EditOnlyByAuthor(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	other := f.db.AddUser("anna")
	post := f.post(t, author, "original", nil)

	_, err := f.svc.Post.Edit(f.ctx, other, "leo", post.ID, &models.NewPostInput{Text: "hijacked"})
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.svc.Post.Edit(f.ctx, nil, "leo", post.ID, &models.NewPostInput{Text: "guest"})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	_, err = f.svc.Post.Edit(f.ctx, author, "leo", post.ID, &models.NewPostInput{Text: "  "})
	requireValidation(t, err, "text")

	view, err := f.svc.Post.Get(f.ctx, "leo", post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", view.Post.Text)

	cats := f.group(t, "cats")
	edited, err := f.svc.Post.Edit(f.ctx, author, "leo", post.ID, &models.NewPostInput{Text: "edited", GroupID: &cats.ID})
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Text)
	assert.Equal(t, post.PubDate, edited.PubDate)
	require.NotNil(t, edited.GroupSlug)
	assert.Equal(t, "cats", *edited.GroupSlug)
}

func TestPostService_EditReplacesImage(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")

	upload := func() *models.Upload {
		return &models.Upload{Filename: "a.png", Size: int64(len(pngImage)), Body: bytes.NewReader(pngImage)}
	}

	post, err := f.svc.Post.Create(f.ctx, author, &models.NewPostInput{Text: "v1", Image: upload()})
	require.NoError(t, err)
	first := *post.Image

	// keeping the image when none is uploaded
	kept, err := f.svc.Post.Edit(f.ctx, author, "leo", post.ID, &models.NewPostInput{Text: "v2"})
	require.NoError(t, err)
	require.NotNil(t, kept.Image)
	assert.Equal(t, first, *kept.Image)
	assert.Empty(t, f.store.Deleted)

	replaced, err := f.svc.Post.Edit(f.ctx, author, "leo", post.ID, &models.NewPostInput{Text: "v3", Image: upload()})
	require.NoError(t, err)
	require.NotNil(t, replaced.Image)
	assert.NotEqual(t, first, *replaced.Image)
	assert.Equal(t, []string{first}, f.store.Deleted)

	cleared, err := f.svc.Post.Edit(f.ctx, author, "leo", post.ID, &models.NewPostInput{Text: "v4", ClearImage: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Image)
	assert.Empty(t, f.store.Files)
}

func TestPostService_DeleteCascadesComments(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	other := f.db.AddUser("anna")
	post := f.post(t, author, "doomed", nil)
	keep := f.post(t, author, "kept", nil)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Comment.Add(f.ctx, other, "leo", post.ID, &models.CommentInput{Text: "c"})
		require.NoError(t, err)
	}
	_, err := f.svc.Comment.Add(f.ctx, other, "leo", keep.ID, &models.CommentInput{Text: "stays"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Post.Delete(f.ctx, other, "leo", post.ID), service.ErrForbidden)
	assert.ErrorIs(t, f.svc.Post.Delete(f.ctx, nil, "leo", post.ID), service.ErrUnauthenticated)

	require.NoError(t, f.svc.Post.Delete(f.ctx, author, "leo", post.ID))

	_, err = f.svc.Post.Get(f.ctx, "leo", post.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	comments, err := f.svc.Comment.List(f.ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Len(t, f.db.Comments, 1)

	assert.ErrorIs(t, f.svc.Post.Delete(f.ctx, author, "leo", post.ID), service.ErrNotFound)
}

func TestCommentService_Add(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	reader := f.db.AddUser("anna")
	post := f.post(t, author, "hello", nil)

	comment, err := f.svc.Comment.Add(f.ctx, reader, "leo", post.ID, &models.CommentInput{Text: "nice"})
	require.NoError(t, err)
	assert.Equal(t, "anna", comment.Author)
	assert.Equal(t, post.ID, comment.PostID)
	assert.False(t, comment.Created.IsZero())

	_, err = f.svc.Comment.Add(f.ctx, reader, "leo", post.ID, &models.CommentInput{Text: ""})
	requireValidation(t, err, "text")

	_, err = f.svc.Comment.Add(f.ctx, reader, "leo", 999, &models.CommentInput{Text: "lost"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.Comment.Add(f.ctx, reader, "anna", post.ID, &models.CommentInput{Text: "wrong author"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.Comment.Add(f.ctx, nil, "leo", post.ID, &models.CommentInput{Text: "guest"})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)

	assert.Len(t, f.db.Comments, 1)
}

func TestGroupService(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	admin := &models.User{ID: "admin", Username: "admin", Role: models.RoleAdmin}

	_, err := f.svc.Group.Create(f.ctx, author, &models.GroupInput{Title: "Cats"})
	assert.ErrorIs(t, err, service.ErrForbidden)

	group, err := f.svc.Group.Create(f.ctx, admin, &models.GroupInput{Title: "Cats & Dogs"})
	require.NoError(t, err)
	assert.Equal(t, "cats-dogs", group.Slug)

	_, err = f.svc.Group.Create(f.ctx, admin, &models.GroupInput{Title: "Other", Slug: "cats-dogs"})
	requireValidation(t, err, "slug")

	post := f.post(t, author, "in group", &group.ID)

	assert.ErrorIs(t, f.svc.Group.Delete(f.ctx, author, group.Slug), service.ErrForbidden)
	require.NoError(t, f.svc.Group.Delete(f.ctx, admin, group.Slug))

	view, err := f.svc.Post.Get(f.ctx, "leo", post.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Post.GroupID)
	assert.Nil(t, view.Post.GroupSlug)

	_, err = f.svc.Group.Get(f.ctx, group.Slug)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, f.svc.Group.Delete(f.ctx, admin, group.Slug), service.ErrNotFound)

	groups, err := f.svc.Group.List(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestAuthService_SignupLoginLogout(t *testing.T) {
	f := newFixture(t)

	user, err := f.svc.Auth.Signup(f.ctx, &models.SignupInput{Username: "leo", Email: "leo@example.com", Password: "war-and-peace"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "war-and-peace", user.PasswordHash)

	_, err = f.svc.Auth.Signup(f.ctx, &models.SignupInput{Username: "leo", Password: "another-one"})
	requireValidation(t, err, "username")

	_, _, err = f.svc.Auth.Login(f.ctx, &models.LoginInput{Username: "leo", Password: "wrong-password"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, _, err = f.svc.Auth.Login(f.ctx, &models.LoginInput{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	session, loggedIn, err := f.svc.Auth.Login(f.ctx, &models.LoginInput{Username: "leo", Password: "war-and-peace"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.True(t, session.ExpiresAt.After(session.CreatedAt))

	current, err := f.svc.Auth.Authenticate(f.ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "leo", current.Username)

	guest, err := f.svc.Auth.Authenticate(f.ctx, "")
	require.NoError(t, err)
	assert.Nil(t, guest)

	require.NoError(t, f.svc.Auth.Logout(f.ctx, session.Token))
	current, err = f.svc.Auth.Authenticate(f.ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestAuthService_SetRole(t *testing.T) {
	f := newFixture(t)
	user := f.db.AddUser("leo")

	require.NoError(t, f.svc.Auth.SetRole(f.ctx, "leo", models.RoleAdmin))
	assert.Equal(t, models.RoleAdmin, f.db.Users[user.ID].Role)

	assert.ErrorIs(t, f.svc.Auth.SetRole(f.ctx, "ghost", models.RoleAdmin), service.ErrNotFound)
	requireValidation(t, f.svc.Auth.SetRole(f.ctx, "leo", "root"), "role")
}

func TestSessionJanitor_Sweep(t *testing.T) {
	f := newFixture(t)
	user := f.db.AddUser("leo")
	now := time.Now().UTC()

	f.db.Sessions["expired"] = &models.Session{Token: "expired", UserID: user.ID, ExpiresAt: now.Add(-time.Minute)}
	f.db.Sessions["live"] = &models.Session{Token: "live", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}

	n, err := f.svc.Janitor.Sweep(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, f.db.Sessions, "live")
	assert.NotContains(t, f.db.Sessions, "expired")
}

func TestSessionJanitor_StartStop(t *testing.T) {
	f := newFixture(t)

	// stopping straight after starting must not leave the loop running
	f.svc.Janitor.StartProcessor(f.ctx)
	f.svc.Janitor.StopProcessor()

	// stopping twice and restarting are both safe
	f.svc.Janitor.StopProcessor()
	f.svc.Janitor.StartProcessor(f.ctx)
	f.svc.Janitor.StopProcessor()
}

func TestExportService_IncludesImages(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")

	post, err := f.svc.Post.Create(f.ctx, author, &models.NewPostInput{
		Text:  "picture",
		Image: &models.Upload{Filename: "cat.png", Size: int64(len(pngImage)), Body: bytes.NewReader(pngImage)},
	})
	require.NoError(t, err)
	require.NotNil(t, post.Image)

	rec := httptest.NewRecorder()
	require.NoError(t, f.svc.Export.Stream(f.ctx, rec, "posts", "json"))

	var exported []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exported))
	require.Len(t, exported, 1)
	assert.Equal(t, *post.Image, exported[0]["image"])
	assert.Equal(t, "/media/"+*post.Image, exported[0]["image_url"])
	assert.Equal(t, "picture", exported[0]["text"])
}

func TestExportService_Stream(t *testing.T) {
	f := newFixture(t)
	author := f.db.AddUser("leo")
	f.post(t, author, "one", nil)
	f.post(t, author, "two", nil)

	rec := httptest.NewRecorder()
	require.NoError(t, f.svc.Export.Stream(f.ctx, rec, "posts", "ndjson"))
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	var first models.Post
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "one", first.Text)

	rec = httptest.NewRecorder()
	require.NoError(t, f.svc.Export.Stream(f.ctx, rec, "posts", "json"))
	var posts []models.Post
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posts))
	assert.Len(t, posts, 2)

	rec = httptest.NewRecorder()
	require.NoError(t, f.svc.Export.Stream(f.ctx, rec, "groups", "json"))
	assert.Equal(t, "[]", rec.Body.String())

	assert.Error(t, f.svc.Export.Stream(f.ctx, httptest.NewRecorder(), "users", "json"))
	assert.Error(t, f.svc.Export.Stream(f.ctx, httptest.NewRecorder(), "posts", "csv"))

	counts, err := f.svc.Export.Counts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["posts"])
	assert.Equal(t, 1, counts["users"])
	assert.Equal(t, 0, counts["follows"])
}
