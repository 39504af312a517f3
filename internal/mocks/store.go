package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/social-blog-api/internal/storage"
)

// MockStore is an in-memory image store
type MockStore struct {
	mu      sync.Mutex
	Files   map[string][]byte
	Deleted []string
	SaveErr error
}

var _ storage.Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{Files: make(map[string][]byte)}
}

func (m *MockStore) Save(ctx context.Context, handle, contentType string, body io.Reader) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files[handle] = data
	return nil
}

func (m *MockStore) Delete(ctx context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Files, handle)
	m.Deleted = append(m.Deleted, handle)
	return nil
}

func (m *MockStore) URL(handle string) string {
	return "/media/" + handle
}
