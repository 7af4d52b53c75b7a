package syncer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/netview/gateway/internal/domain"
	"github.com/netview/gateway/internal/repo"
)

// Backend is the slice of the control-plane client the reconciler needs.
type Backend interface {
	PushResults(ctx context.Context, results []domain.ProbeResult) error
	PushHeartbeat(ctx context.Context, hb domain.Heartbeat) error
}

// Identity is what the gateway declares about itself in heartbeats.
type Identity struct {
	ID       string
	Type     string
	Name     string
	Location string
}

// Stats is a point-in-time view of the sync engine, served by /stats.
type Stats struct {
	Counts        repo.Counts `json:"counts"`
	LastSync      string      `json:"last_sync,omitempty"`
	LastHeartbeat string      `json:"last_heartbeat,omitempty"`
	UptimeSeconds float64     `json:"uptime"`
}

// Reconciler pushes unsynced results to the backend and flips their synced
// flag only on acknowledgement. Results are delivered at least once; the
// backend deduplicates by its own result identifier.
type Reconciler struct {
	log      *zap.Logger
	store    repo.ResultStore
	backend  Backend
	identity Identity
	start    time.Time

	mu            sync.Mutex
	lastSync      time.Time
	lastHeartbeat time.Time
}

func New(log *zap.Logger, store repo.ResultStore, backend Backend, id Identity) *Reconciler {
	return &Reconciler{
		log:      log,
		store:    store,
		backend:  backend,
		identity: id,
		start:    time.Now(),
	}
}

// SyncResults sends the entire unsynced backlog as one batch and returns how
// many results the backend acknowledged. Any failure — read, push, or the
// mark-synced step — leaves the unsynced set for the next cycle and returns 0.
// An empty backlog returns 0 without touching the network.
func (r *Reconciler) SyncResults(ctx context.Context) int {
	rows, err := r.store.Unsynced(ctx)
	if err != nil {
		r.log.Warn("unsynced_read_error", zap.Error(err))
		return 0
	}
	if len(rows) == 0 {
		r.log.Debug("no_results_to_sync")
		return 0
	}

	ids := make([]int64, len(rows))
	batch := make([]domain.ProbeResult, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
		row.ID = 0 // local bookkeeping stays local
		row.Synced = false
		batch[i] = row
	}

	if err := r.backend.PushResults(ctx, batch); err != nil {
		r.log.Error("sync_failed", zap.Int("pending", len(batch)), zap.Error(err))
		return 0
	}

	if err := r.store.MarkSynced(ctx, ids); err != nil {
		// The backend has the batch; the next cycle resends it and the backend
		// deduplicates. Losing results would be worse.
		r.log.Error("mark_synced_failed", zap.Error(err))
		return 0
	}

	r.mu.Lock()
	r.lastSync = time.Now()
	r.mu.Unlock()

	r.log.Info("results_synced", zap.Int("count", len(batch)))
	return len(batch)
}

// SendHeartbeat is best-effort: failure is logged and otherwise ignored. The
// stats block carries backlog depth so operators can watch store-and-forward
// pressure from the control plane.
func (r *Reconciler) SendHeartbeat(ctx context.Context) {
	pending := 0
	if counts, err := r.store.Counts(ctx); err == nil {
		pending = counts.Unsynced
	} else {
		r.log.Warn("counts_read_error", zap.Error(err))
	}

	r.mu.Lock()
	lastSync := r.lastSync
	r.mu.Unlock()

	hb := domain.Heartbeat{
		GatewayID:   r.identity.ID,
		GatewayType: r.identity.Type,
		GatewayName: r.identity.Name,
		Location:    r.identity.Location,
		Timestamp:   domain.CheckedAtNow(),
		Stats: domain.HeartbeatStats{
			UptimeSeconds:  time.Since(r.start).Seconds(),
			LastSync:       formatTime(lastSync),
			PendingResults: pending,
		},
	}

	if err := r.backend.PushHeartbeat(ctx, hb); err != nil {
		r.log.Warn("heartbeat_failed", zap.Error(err))
		return
	}

	r.mu.Lock()
	r.lastHeartbeat = time.Now()
	r.mu.Unlock()

	r.log.Debug("heartbeat_sent", zap.Int("pending_results", pending))
}

// Stats reports store counts plus the reconciler's own timing.
func (r *Reconciler) Stats(ctx context.Context) (Stats, error) {
	counts, err := r.store.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Counts:        counts,
		LastSync:      formatTime(r.lastSync),
		LastHeartbeat: formatTime(r.lastHeartbeat),
		UptimeSeconds: time.Since(r.start).Seconds(),
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(domain.CheckedAtFormat)
}
