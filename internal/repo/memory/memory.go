package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/netview/gateway/internal/domain"
	"github.com/netview/gateway/internal/repo"
)

var _ repo.ResultStore = (*Store)(nil)

// Store keeps results in memory. It honors the same contract as the sqlite
// store, including the synced-only eviction policy; used for tests and for
// running the gateway without local durability.
type Store struct {
	mu      sync.RWMutex
	rows    []*domain.ProbeResult
	nextID  int64
	maxRows int
}

func New(maxRows int) *Store {
	return &Store{
		rows:    make([]*domain.ProbeResult, 0, 128),
		nextID:  1,
		maxRows: maxRows,
	}
}

func (m *Store) Append(_ context.Context, r *domain.ProbeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.nextID
	m.nextID++
	cp := *r
	m.rows = append(m.rows, &cp)
	m.evict()
	return nil
}

// evict drops the oldest synced rows while over the cap. Caller holds the lock.
func (m *Store) evict() {
	if m.maxRows <= 0 || len(m.rows) <= m.maxRows {
		return
	}
	over := len(m.rows) - m.maxRows

	byAge := make([]*domain.ProbeResult, len(m.rows))
	copy(byAge, m.rows)
	sort.SliceStable(byAge, func(i, j int) bool {
		return byAge[i].CheckedAt < byAge[j].CheckedAt
	})

	drop := make(map[int64]bool, over)
	for _, r := range byAge {
		if over == 0 {
			break
		}
		if r.Synced {
			drop[r.ID] = true
			over--
		}
	}
	if len(drop) == 0 {
		return
	}

	kept := m.rows[:0]
	for _, r := range m.rows {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	m.rows = kept
}

func (m *Store) List(_ context.Context, limit int) ([]domain.ProbeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.ProbeResult, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CheckedAt > out[j].CheckedAt
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) Unsynced(_ context.Context) ([]domain.ProbeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.ProbeResult
	for _, r := range m.rows {
		if !r.Synced {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CheckedAt < out[j].CheckedAt
	})
	return out, nil
}

func (m *Store) MarkSynced(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, r := range m.rows {
		if want[r.ID] {
			r.Synced = true
		}
	}
	return nil
}

func (m *Store) Counts(_ context.Context) (repo.Counts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := repo.Counts{Total: len(m.rows)}
	for _, r := range m.rows {
		if r.Synced {
			c.Synced++
		}
	}
	c.Unsynced = c.Total - c.Synced
	return c, nil
}
