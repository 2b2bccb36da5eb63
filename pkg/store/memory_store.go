package store

import (
	"sort"
	"sync"
	"time"

	"viralstudio/pkg/domain"
)

// MemoryStore keeps all rows in-process. Used by tests and by dev runs
// without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User        // user ID -> account
	email    map[string]string             // email -> user ID
	profiles map[string]domain.UserProfile // user ID -> profile
	contents map[int64]domain.ContentItem
	nextID   int64

	now func() time.Time
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		profiles: make(map[string]domain.UserProfile),
		contents: make(map[int64]domain.ContentItem),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SaveUser stores or replaces an account.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up an account by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	user, ok := m.users[id]
	return user, ok, nil
}

// GetUserByID returns an account by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	return user, ok, nil
}

// GetProfile returns the profile row for a user id.
func (m *MemoryStore) GetProfile(id string) (domain.UserProfile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[id]
	return profile, ok, nil
}

// SaveProfile inserts or replaces a profile row.
func (m *MemoryStore) SaveProfile(p domain.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return nil
}

// SaveContent stores a generation with an assigned id and timestamp.
func (m *MemoryStore) SaveContent(topic string, data domain.GeneratedContent, ownerID string) (domain.ContentItem, error) {
	if ownerID == "" {
		return domain.ContentItem{}, ErrUnauthenticated
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	item := domain.ContentItem{
		ID:        m.nextID,
		CreatedAt: m.now(),
		Topic:     topic,
		Data:      data,
		UserID:    ownerID,
	}
	m.contents[item.ID] = item
	return item, nil
}

// UpdateContent replaces the data payload of a row the caller owns.
func (m *MemoryStore) UpdateContent(id int64, callerID string, data domain.GeneratedContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.contents[id]
	if !ok {
		return ErrNotFound
	}
	if item.UserID != callerID {
		return ErrForbidden
	}
	item.Data = data
	m.contents[id] = item
	return nil
}

// DeleteContent removes a row the caller owns.
func (m *MemoryStore) DeleteContent(id int64, callerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.contents[id]
	if !ok {
		return ErrNotFound
	}
	if item.UserID != callerID {
		return ErrForbidden
	}
	delete(m.contents, id)
	return nil
}

// ListContents returns the caller's rows, most recent first.
func (m *MemoryStore) ListContents(ownerID string) ([]domain.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]domain.ContentItem, 0, len(m.contents))
	for _, item := range m.contents {
		if item.UserID == ownerID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

// GetContentByID fetches one row; foreign rows read as not found.
func (m *MemoryStore) GetContentByID(id int64, callerID string) (domain.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.contents[id]
	if !ok || item.UserID != callerID {
		return domain.ContentItem{}, ErrNotFound
	}
	return item, nil
}
