package run

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memoryRepo struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewMemoryRepository keeps run history in process memory; used when no database is configured.
func NewMemoryRepository() Repository {
	return &memoryRepo{runs: make(map[string]Run)}
}

func (m *memoryRepo) Create(ctx context.Context, r *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID.String()] = *r
	return nil
}

func (m *memoryRepo) Update(ctx context.Context, r *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[r.ID.String()]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, r.ID)
	}
	m.runs[r.ID.String()] = *r
	return nil
}

func (m *memoryRepo) GetByID(ctx context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &r, nil
}

func (m *memoryRepo) ListRecent(ctx context.Context, limit int) ([]*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
