package repo

import (
	"context"

	"github.com/netview/gateway/internal/domain"
)

// Counts summarizes the stored result table.
type Counts struct {
	Total    int `json:"total_results"`
	Synced   int `json:"synced_results"`
	Unsynced int `json:"unsynced_results"`
}

// ResultStore is the port for the durable result table. Each call is
// individually atomic: no caller ever observes a half-written result or a
// partially applied mark-synced batch. Implementations enforce a row cap by
// evicting the oldest synced rows; unsynced rows are never evicted, so the
// table may exceed the cap while the backend is unreachable.
type ResultStore interface {
	// Append stores one result and assigns its local sequence id.
	Append(ctx context.Context, r *domain.ProbeResult) error
	// List returns results newest-first. limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]domain.ProbeResult, error)
	// Unsynced returns unacknowledged results oldest-first for FIFO delivery.
	Unsynced(ctx context.Context) ([]domain.ProbeResult, error)
	// MarkSynced flips the synced flag for the given ids in one operation.
	MarkSynced(ctx context.Context, ids []int64) error
	// Counts reports total/synced/unsynced row counts.
	Counts(ctx context.Context) (Counts, error)
}
