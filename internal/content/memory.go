package content

import (
	"context"
	"slices"
	"sync"

	"github.com/lieuxdexception/site/internal/models"
)

// MemoryRepo implements both PageRepository and TimelineRepository.
type MemoryRepo struct {
	mu     sync.RWMutex
	pages  map[string]models.PageContent
	events map[string]models.TimelineEvent
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		pages:  make(map[string]models.PageContent),
		events: make(map[string]models.TimelineEvent),
	}
}

// clonePage copies the sections so callers never share them with the store.
func clonePage(p models.PageContent) models.PageContent {
	p.Sections = slices.Clone(p.Sections)
	return p
}

func (m *MemoryRepo) GetPage(ctx context.Context, slug string) (*models.PageContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.pages[slug]; ok {
		p = clonePage(p)
		return &p, nil
	}
	return nil, nil
}

func (m *MemoryRepo) UpsertPage(ctx context.Context, p *models.PageContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[p.Slug] = clonePage(*p)
	return nil
}

func (m *MemoryRepo) ListPages(ctx context.Context) ([]*models.PageContent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.PageContent, 0, len(m.pages))
	for _, p := range m.pages {
		p := clonePage(p)
		out = append(out, &p)
	}
	return out, nil
}

func (m *MemoryRepo) ListEvents(ctx context.Context) ([]*models.TimelineEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.TimelineEvent, 0, len(m.events))
	for _, e := range m.events {
		e := e
		out = append(out, &e)
	}
	return out, nil
}

func (m *MemoryRepo) GetEvent(ctx context.Context, id string) (*models.TimelineEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.events[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (m *MemoryRepo) CreateEvent(ctx context.Context, e *models.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[e.ID] = *e
	return nil
}

func (m *MemoryRepo) UpdateEvent(ctx context.Context, e *models.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return ErrNotFound
	}
	m.events[e.ID] = *e
	return nil
}

func (m *MemoryRepo) DeleteEvent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	return nil
}
