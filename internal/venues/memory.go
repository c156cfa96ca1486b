package venues

import (
	"context"
	"slices"
	"sync"

	"github.com/lieuxdexception/site/internal/models"
)

// MemoryRepo keeps venues in a map. Used when MONGODB_URI is unset and in tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]models.Venue
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]models.Venue)}
}

// clone copies the slices so callers never share backing arrays with the store.
func clone(v models.Venue) models.Venue {
	v.Amenities = slices.Clone(v.Amenities)
	v.EventTypes = slices.Clone(v.EventTypes)
	v.Images = slices.Clone(v.Images)
	return v
}

func (m *MemoryRepo) Create(ctx context.Context, v *models.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if existing.Slug == v.Slug {
			return ErrSlugTaken
		}
	}
	m.store[v.ID] = clone(*v)
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*models.Venue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.store[id]; ok {
		v = clone(v)
		return &v, nil
	}
	return nil, nil
}

func (m *MemoryRepo) GetBySlug(ctx context.Context, slug string) (*models.Venue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, v := range m.store {
		if v.Slug == slug {
			out := clone(v)
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepo) List(ctx context.Context) ([]*models.Venue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Venue, 0, len(m.store))
	for _, v := range m.store {
		v := clone(v)
		out = append(out, &v)
	}
	return out, nil
}

func (m *MemoryRepo) Update(ctx context.Context, v *models.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[v.ID]; !ok {
		return ErrNotFound
	}
	for id, existing := range m.store {
		if id != v.ID && existing.Slug == v.Slug {
			return ErrSlugTaken
		}
	}
	m.store[v.ID] = clone(*v)
	return nil
}

func (m *MemoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
