package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ruby4mag/alert-normalizer/internal/models"
)

// In-memory repositories back the offline CLI commands and tests.

type MemoryTemplates struct {
	mu    sync.RWMutex
	items []models.AlertFormatTemplate
}

func (m *MemoryTemplates) List(context.Context) ([]models.AlertFormatTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.AlertFormatTemplate{}, m.items...), nil
}

func (m *MemoryTemplates) Get(_ context.Context, id primitive.ObjectID) (*models.AlertFormatTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.items {
		if m.items[i].ID == id {
			t := m.items[i]
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryTemplates) Create(_ context.Context, t *models.AlertFormatTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Normalize()
	t.ID = primitive.NewObjectID()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.items = append(m.items, *t)
	return nil
}

func (m *MemoryTemplates) Update(_ context.Context, id primitive.ObjectID, t *models.AlertFormatTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			t.Normalize()
			t.ID = id
			t.CreatedAt = m.items[i].CreatedAt
			m.items[i] = *t
			return nil
		}
	}
	return ErrNotFound
}

type MemoryMappings struct {
	mu    sync.RWMutex
	items []models.DbFieldMapping
}

func (m *MemoryMappings) List(context.Context) ([]models.DbFieldMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.DbFieldMapping{}, m.items...), nil
}

func (m *MemoryMappings) Create(_ context.Context, fm *models.DbFieldMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fm.ID = primitive.NewObjectID()
	if fm.CreatedAt.IsZero() {
		fm.CreatedAt = time.Now().UTC()
	}
	m.items = append(m.items, *fm)
	return nil
}

func (m *MemoryMappings) Update(_ context.Context, id primitive.ObjectID, fm models.FieldMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].FieldMapping = fm
			return nil
		}
	}
	return ErrNotFound
}

type MemoryRules struct {
	mu    sync.RWMutex
	items []models.WhitelistRule
}

// List returns rules newest first, like MongoRules.
func (m *MemoryRules) List(context.Context) ([]models.WhitelistRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]models.WhitelistRule{}, m.items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryRules) Get(_ context.Context, id primitive.ObjectID) (*models.WhitelistRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.items {
		if m.items[i].ID == id {
			r := m.items[i]
			return &r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRules) Create(_ context.Context, r *models.WhitelistRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = primitive.NewObjectID()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	// Newer entries go first so equal timestamps still list newest first.
	m.items = append([]models.WhitelistRule{*r}, m.items...)
	return nil
}

type MemoryUsers struct {
	mu    sync.RWMutex
	items map[string]models.User
}

func (m *MemoryUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.items[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string]models.User{}
	}
	if _, ok := m.items[u.Username]; ok {
		return ErrDuplicate
	}
	u.ID = primitive.NewObjectID()
	m.items[u.Username] = *u
	return nil
}

type MemoryRefreshTokens struct {
	mu    sync.Mutex
	items map[string]refreshEntry
	now   func() time.Time
}

type refreshEntry struct {
	username string
	expires  time.Time
}

func (m *MemoryRefreshTokens) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func (m *MemoryRefreshTokens) Save(_ context.Context, token, username string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string]refreshEntry{}
	}
	m.items[token] = refreshEntry{username: username, expires: m.clock().Add(ttl)}
	return nil
}

func (m *MemoryRefreshTokens) Lookup(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[token]
	if !ok || !m.clock().Before(e.expires) {
		return "", ErrNotFound
	}
	return e.username, nil
}
