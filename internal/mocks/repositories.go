package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
)

// MemoryDB is the shared state behind the mock repositories. It mirrors the
// PostgreSQL constraints the services rely on: unique username, slug and
// follow edge, comments cascading with their post, posts cascading with
// their author, and posts detaching from a deleted group.
type MemoryDB struct {
	mu       sync.Mutex
	Users    map[string]*models.User
	Sessions map[string]*models.Session
	Groups   map[int64]*models.Group
	Posts    map[int64]*models.Post
	Comments map[int64]*models.Comment
	Follows  []*models.Follow

	// Now stamps new posts and comments; defaults to time.Now
	Now func() time.Time

	nextID int64
}

// NewMemoryDB creates an empty in-memory database
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		Users:    make(map[string]*models.User),
		Sessions: make(map[string]*models.Session),
		Groups:   make(map[int64]*models.Group),
		Posts:    make(map[int64]*models.Post),
		Comments: make(map[int64]*models.Comment),
		Now:      time.Now,
	}
}

func (db *MemoryDB) id() int64 {
	db.nextID++
	return db.nextID
}

// NewRepositories returns repository mocks sharing one MemoryDB
func NewRepositories() (*repository.Repositories, *MemoryDB) {
	db := NewMemoryDB()
	return &repository.Repositories{
		User:    &MockUserRepository{db: db},
		Session: &MockSessionRepository{db: db},
		Group:   &MockGroupRepository{db: db},
		Post:    &MockPostRepository{db: db},
		Comment: &MockCommentRepository{db: db},
		Follow:  &MockFollowRepository{db: db},
	}, db
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	db          *MemoryDB
	InsertError error
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.Users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	stored := *user
	m.db.Users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if u, ok := m.db.Users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, u := range m.db.Users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) SetRole(ctx context.Context, id, role string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if u, ok := m.db.Users[id]; ok {
		u.Role = role
	}
	return nil
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return len(m.db.Users), nil
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	db *MemoryDB
}

var _ repository.SessionRepository = (*MockSessionRepository)(nil)

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	stored := *session
	m.db.Sessions[session.Token] = &stored
	return nil
}

func (m *MockSessionRepository) GetValid(ctx context.Context, token string, now time.Time) (*models.Session, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	s, ok := m.db.Sessions[token]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	delete(m.db.Sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var n int64
	for token, s := range m.db.Sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.db.Sessions, token)
			n++
		}
	}
	return n, nil
}

// MockGroupRepository is a mock implementation of GroupRepository
type MockGroupRepository struct {
	db *MemoryDB
}

var _ repository.GroupRepository = (*MockGroupRepository)(nil)

func (m *MockGroupRepository) Create(ctx context.Context, group *models.Group) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, g := range m.db.Groups {
		if g.Slug == group.Slug {
			return repository.ErrDuplicate
		}
	}
	group.ID = m.db.id()
	stored := *group
	m.db.Groups[group.ID] = &stored
	return nil
}

func (m *MockGroupRepository) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if g, ok := m.db.Groups[id]; ok {
		c := *g
		return &c, nil
	}
	return nil, nil
}

func (m *MockGroupRepository) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, g := range m.db.Groups {
		if g.Slug == slug {
			c := *g
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockGroupRepository) List(ctx context.Context) ([]*models.Group, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	groups := make([]*models.Group, 0, len(m.db.Groups))
	for _, g := range m.db.Groups {
		c := *g
		groups = append(groups, &c)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Title != groups[j].Title {
			return groups[i].Title < groups[j].Title
		}
		return groups[i].ID < groups[j].ID
	})
	return groups, nil
}

// Delete detaches the group's posts, like ON DELETE SET NULL
func (m *MockGroupRepository) Delete(ctx context.Context, id int64) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	delete(m.db.Groups, id)
	for _, p := range m.db.Posts {
		if p.GroupID != nil && *p.GroupID == id {
			p.GroupID = nil
		}
	}
	return nil
}

func (m *MockGroupRepository) Count(ctx context.Context) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return len(m.db.Groups), nil
}

func (m *MockGroupRepository) StreamAll(ctx context.Context, callback func(*models.Group) error) error {
	groups, _ := m.List(ctx)
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	for _, g := range groups {
		if err := callback(g); err != nil {
			return err
		}
	}
	return nil
}

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	db          *MemoryDB
	InsertError error
}

var _ repository.PostRepository = (*MockPostRepository)(nil)

// hydrate copies a stored post and fills the joined author and group columns
func (m *MockPostRepository) hydrate(p *models.Post) *models.Post {
	c := *p
	if u, ok := m.db.Users[c.AuthorID]; ok {
		c.Author = u.Username
	}
	c.GroupSlug, c.GroupTitle = nil, nil
	if c.GroupID != nil {
		if g, ok := m.db.Groups[*c.GroupID]; ok {
			slug, title := g.Slug, g.Title
			c.GroupSlug, c.GroupTitle = &slug, &title
		}
	}
	return &c
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	post.ID = m.db.id()
	post.PubDate = m.db.Now()
	stored := *post
	m.db.Posts[post.ID] = &stored
	return nil
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) (*string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	stored, ok := m.db.Posts[post.ID]
	if !ok {
		return nil, nil
	}
	previous := stored.Image
	stored.Text = post.Text
	stored.GroupID = post.GroupID
	stored.Image = post.Image
	return previous, nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if p, ok := m.db.Posts[id]; ok {
		return m.hydrate(p), nil
	}
	return nil, nil
}

// Delete removes the post and its comments, like ON DELETE CASCADE
func (m *MockPostRepository) Delete(ctx context.Context, id int64) (*string, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p, ok := m.db.Posts[id]
	if !ok {
		return nil, nil
	}
	delete(m.db.Posts, id)
	for cid, c := range m.db.Comments {
		if c.PostID == id {
			delete(m.db.Comments, cid)
		}
	}
	return p.Image, nil
}

func (m *MockPostRepository) matches(p *models.Post, filter repository.PostFilter) bool {
	if filter.GroupID != nil && (p.GroupID == nil || *p.GroupID != *filter.GroupID) {
		return false
	}
	if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
		return false
	}
	if filter.FollowerID != nil {
		for _, f := range m.db.Follows {
			if f.UserID == *filter.FollowerID && f.AuthorID == p.AuthorID {
				return true
			}
		}
		return false
	}
	return true
}

// filtered returns matching posts newest first, ties broken by higher ID
func (m *MockPostRepository) filtered(filter repository.PostFilter) []*models.Post {
	var posts []*models.Post
	for _, p := range m.db.Posts {
		if m.matches(p, filter) {
			posts = append(posts, m.hydrate(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].PubDate.Equal(posts[j].PubDate) {
			return posts[i].PubDate.After(posts[j].PubDate)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts
}

func (m *MockPostRepository) List(ctx context.Context, filter repository.PostFilter, limit, offset int) ([]*models.Post, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	posts := m.filtered(filter)
	if offset >= len(posts) {
		return []*models.Post{}, nil
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[offset:end], nil
}

func (m *MockPostRepository) Count(ctx context.Context, filter repository.PostFilter) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return len(m.filtered(filter)), nil
}

func (m *MockPostRepository) StreamAll(ctx context.Context, callback func(*models.Post) error) error {
	m.db.mu.Lock()
	posts := m.filtered(repository.PostFilter{})
	m.db.mu.Unlock()
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	for _, p := range posts {
		if err := callback(p); err != nil {
			return err
		}
	}
	return nil
}

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	db          *MemoryDB
	InsertError error
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	comment.ID = m.db.id()
	comment.Created = m.db.Now()
	stored := *comment
	m.db.Comments[comment.ID] = &stored
	return nil
}

func (m *MockCommentRepository) all(postID *int64) []*models.Comment {
	var comments []*models.Comment
	for _, c := range m.db.Comments {
		if postID != nil && c.PostID != *postID {
			continue
		}
		cc := *c
		if u, ok := m.db.Users[cc.AuthorID]; ok {
			cc.Author = u.Username
		}
		comments = append(comments, &cc)
	}
	return comments
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID int64) ([]*models.Comment, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	comments := m.all(&postID)
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].Created.Equal(comments[j].Created) {
			return comments[i].Created.After(comments[j].Created)
		}
		return comments[i].ID > comments[j].ID
	})
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

func (m *MockCommentRepository) Count(ctx context.Context) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return len(m.db.Comments), nil
}

func (m *MockCommentRepository) StreamAll(ctx context.Context, callback func(*models.Comment) error) error {
	m.db.mu.Lock()
	comments := m.all(nil)
	m.db.mu.Unlock()
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	for _, c := range comments {
		if err := callback(c); err != nil {
			return err
		}
	}
	return nil
}

// MockFollowRepository is a mock implementation of FollowRepository
type MockFollowRepository struct {
	db *MemoryDB
	// BeforeCreate runs before the uniqueness check, to simulate a racing insert
	BeforeCreate func(follow *models.Follow)
	CreateCalls  int
}

var _ repository.FollowRepository = (*MockFollowRepository)(nil)

func (m *MockFollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	m.CreateCalls++
	if m.BeforeCreate != nil {
		m.BeforeCreate(follow)
	}
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, f := range m.db.Follows {
		if f.UserID == follow.UserID && f.AuthorID == follow.AuthorID {
			return repository.ErrDuplicate
		}
	}
	follow.ID = m.db.id()
	stored := *follow
	m.db.Follows = append(m.db.Follows, &stored)
	return nil
}

func (m *MockFollowRepository) Delete(ctx context.Context, userID, authorID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for i, f := range m.db.Follows {
		if f.UserID == userID && f.AuthorID == authorID {
			m.db.Follows = append(m.db.Follows[:i], m.db.Follows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockFollowRepository) Exists(ctx context.Context, userID, authorID string) (bool, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, f := range m.db.Follows {
		if f.UserID == userID && f.AuthorID == authorID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockFollowRepository) Count(ctx context.Context) (int, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	return len(m.db.Follows), nil
}

// AddUser inserts a user directly, bypassing the service layer
func (db *MemoryDB) AddUser(username string) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &models.User{
		ID:        "user-" + username,
		Username:  username,
		Role:      models.RoleUser,
		CreatedAt: time.Now(),
	}
	db.Users[u.ID] = u
	c := *u
	return &c
}

// FollowEdges returns how many edges exist from userID to authorID
func (db *MemoryDB) FollowEdges(userID, authorID string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, f := range db.Follows {
		if f.UserID == userID && f.AuthorID == authorID {
			n++
		}
	}
	return n
}
