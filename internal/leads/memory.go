package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lieuxdexception/site/internal/models"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	leads map[string]models.Lead
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{leads: make(map[string]models.Lead)}
}

// clone detaches the time pointers so stored leads never alias a caller's.
func clone(l models.Lead) models.Lead {
	l.Sync = cloneSync(l.Sync)
	return l
}

func cloneSync(st models.LeadSync) models.LeadSync {
	if st.SyncedAt != nil {
		t := *st.SyncedAt
		st.SyncedAt = &t
	}
	if st.ClaimedAt != nil {
		t := *st.ClaimedAt
		st.ClaimedAt = &t
	}
	return st
}

func (m *MemoryRepo) Create(ctx context.Context, l *models.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads[l.ID] = clone(*l)
	return nil
}

func (m *MemoryRepo) Get(ctx context.Context, id string) (*models.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.leads[id]; ok {
		l = clone(l)
		return &l, nil
	}
	return nil, nil
}

func (m *MemoryRepo) SetStatus(ctx context.Context, id, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	l.UpdatedAt = at
	m.leads[id] = l
	return nil
}

func claimable(st models.LeadSync, staleBefore time.Time) bool {
	switch st.Status {
	case models.SyncSynced:
		return false
	case models.SyncSyncing:
		return st.ClaimedAt == nil || st.ClaimedAt.Before(staleBefore)
	}
	return true
}

func (m *MemoryRepo) Claim(ctx context.Context, id string, at, staleBefore time.Time) (*models.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok || !claimable(l.Sync, staleBefore) {
		return nil, nil
	}
	claimed := at
	l.Sync.Status = models.SyncSyncing
	l.Sync.ClaimedAt = &claimed
	l.UpdatedAt = at
	m.leads[id] = l
	out := clone(l)
	return &out, nil
}

func (m *MemoryRepo) SaveSync(ctx context.Context, id string, st models.LeadSync, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.leads[id]
	if !ok {
		return ErrNotFound
	}
	l.Sync = cloneSync(st)
	l.Sync.ClaimedAt = nil
	l.UpdatedAt = at
	m.leads[id] = l
	return nil
}

func (m *MemoryRepo) sorted(newestFirst bool) []*models.Lead {
	out := make([]*models.Lead, 0, len(m.leads))
	for _, l := range m.leads {
		l := clone(l)
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryRepo) List(ctx context.Context, f Filter) ([]*models.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.Lead{}
	for _, l := range m.sorted(true) {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.SyncStatus != "" && l.Sync.Status != f.SyncStatus {
			continue
		}
		out = append(out, l)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryRepo) Syncable(ctx context.Context, maxAttempts, limit int, staleBefore time.Time) ([]*models.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.Lead{}
	for _, l := range m.sorted(false) {
		switch l.Sync.Status {
		case models.SyncPending, models.SyncFailed:
		case models.SyncSyncing:
			if !claimable(l.Sync, staleBefore) {
				continue
			}
		default:
			continue
		}
		if l.Sync.Attempts >= maxAttempts {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryRepo) Each(ctx context.Context, fn func(*models.Lead) error) error {
	m.mu.RLock()
	list := m.sorted(false)
	m.mu.RUnlock()
	for _, l := range list {
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}
