package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/netview/gateway/internal/domain"
)

func newTestStore(t *testing.T, maxRows int) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "results.db"), maxRows, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// result returns a probe result with a checked_at that orders by i.
func result(i int) *domain.ProbeResult {
	code := 200
	return &domain.ProbeResult{
		ProbeID:        fmt.Sprintf("probe-%03d", i),
		GatewayID:      "gw-1",
		Status:         domain.StatusUp,
		ResponseTimeMS: int64(i),
		StatusCode:     &code,
		CheckedAt:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Second).Format(domain.CheckedAtFormat),
	}
}

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	var last int64
	for i := 0; i < 5; i++ {
		r := result(i)
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
		if r.ID <= last {
			t.Fatalf("ids must be monotonically increasing: got %d after %d", r.ID, last)
		}
		last = r.ID
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	for i := 0; i < 10; i++ {
		if err := s.Append(ctx, result(i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	rows, err := s.List(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 rows, got %d", len(rows))
	}
	if rows[0].ProbeID != "probe-009" || rows[2].ProbeID != "probe-007" {
		t.Fatalf("not newest-first: %s .. %s", rows[0].ProbeID, rows[2].ProbeID)
	}
}

func TestUnsyncedOldestFirstAndMarkSynced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	ids := make([]int64, 0, 4)
	for i := 0; i < 4; i++ {
		r := result(i)
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, r.ID)
	}

	rows, err := s.Unsynced(ctx)
	if err != nil {
		t.Fatalf("unsynced: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("want 4 unsynced, got %d", len(rows))
	}
	if rows[0].ProbeID != "probe-000" {
		t.Fatalf("not oldest-first: %s", rows[0].ProbeID)
	}

	// Mark the two oldest synced in one batch.
	if err := s.MarkSynced(ctx, ids[:2]); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	rows, err = s.Unsynced(ctx)
	if err != nil {
		t.Fatalf("unsynced: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("want 2 unsynced after mark, got %d", len(rows))
	}
	if rows[0].ProbeID != "probe-002" {
		t.Fatalf("wrong rows marked: %s", rows[0].ProbeID)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Total != 4 || counts.Synced != 2 || counts.Unsynced != 2 {
		t.Fatalf("counts wrong: %+v", counts)
	}
}

func TestEvictionOnlyTouchesSyncedRows(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10)

	// Fill to the cap and acknowledge most of it.
	ids := make([]int64, 0, 10)
	for i := 0; i < 10; i++ {
		r := result(i)
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
		ids = append(ids, r.ID)
	}
	if err := s.MarkSynced(ctx, ids[:8]); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	// Five more appends push past the cap; the oldest synced rows go.
	for i := 10; i < 15; i++ {
		if err := s.Append(ctx, result(i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Total != 10 {
		t.Fatalf("want cap (10) rows, got %d", counts.Total)
	}
	if counts.Unsynced != 7 {
		t.Fatalf("want 7 unsynced (2 old + 5 new), got %d", counts.Unsynced)
	}

	// The evicted rows must be the oldest synced ones.
	rows, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range rows {
		if r.Synced && r.ProbeID < "probe-003" {
			t.Fatalf("oldest synced row survived eviction: %s", r.ProbeID)
		}
	}
}

func TestUnsyncedRowsExceedCapIndefinitely(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 5)

	// Backend unreachable: nothing ever gets synced.
	for i := 0; i < 20; i++ {
		if err := s.Append(ctx, result(i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Total != 20 || counts.Unsynced != 20 {
		t.Fatalf("unsynced rows must never be evicted: %+v", counts)
	}

	// Once acknowledged, the next append trims back to the cap.
	rows, _ := s.Unsynced(ctx)
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	if err := s.MarkSynced(ctx, ids); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := s.Append(ctx, result(20)); err != nil {
		t.Fatalf("append: %v", err)
	}

	counts, _ = s.Counts(ctx)
	if counts.Total != 5 {
		t.Fatalf("want cap (5) after acknowledgement, got %d", counts.Total)
	}
	if counts.Unsynced != 1 {
		t.Fatalf("the fresh row must survive, got %d unsynced", counts.Unsynced)
	}
}

func TestRoundTripPreservesFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	code := 503
	in := &domain.ProbeResult{
		ProbeID:        "probe-x",
		GatewayID:      "gw-1",
		Status:         domain.StatusDown,
		ResponseTimeMS: 1234,
		StatusCode:     &code,
		ErrorMessage:   "Expected status 200, got 503",
		ResponseBody:   "<html>oops</html>",
		CheckedAt:      domain.CheckedAtNow(),
	}
	if err := s.Append(ctx, in); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows, err := s.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := rows[0]
	if got.ProbeID != in.ProbeID || got.Status != in.Status ||
		got.ResponseTimeMS != in.ResponseTimeMS ||
		got.ErrorMessage != in.ErrorMessage || got.ResponseBody != in.ResponseBody ||
		got.CheckedAt != in.CheckedAt {
		t.Fatalf("round trip mismatch:\nin  %+v\ngot %+v", in, got)
	}
	if got.StatusCode == nil || *got.StatusCode != 503 {
		t.Fatalf("status code lost: %v", got.StatusCode)
	}
	if got.Synced {
		t.Fatalf("fresh rows must be unsynced")
	}
}
