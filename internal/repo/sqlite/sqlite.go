package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/netview/gateway/internal/domain"
	"github.com/netview/gateway/internal/repo"
)

var _ repo.ResultStore = (*Store)(nil)

// Store is the embedded durable result table. Writes go through single
// statements or single transactions, so every ResultStore call is atomic.
type Store struct {
	db      *sql.DB
	maxRows int
	log     *zap.Logger
}

// New opens (and if needed creates) the result database at path.
func New(path string, maxRows int, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets the sync loop read while the probe loop writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")

	s := &Store{db: db, maxRows: maxRows, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("result_store_ready", zap.String("path", path), zap.Int("max_rows", maxRows))
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS probe_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		probe_id TEXT NOT NULL,
		gateway_id TEXT NOT NULL,
		status TEXT NOT NULL,
		response_time INTEGER,
		status_code INTEGER,
		error_message TEXT,
		response_body TEXT,
		checked_at TEXT NOT NULL,
		synced INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_probe_results_synced ON probe_results(synced);
	CREATE INDEX IF NOT EXISTS idx_probe_results_checked_at ON probe_results(checked_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts one result, records its assigned local id on r, and applies
// the eviction policy if the table grew past the cap.
func (s *Store) Append(ctx context.Context, r *domain.ProbeResult) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO probe_results
			(probe_id, gateway_id, status, response_time, status_code,
			 error_message, response_body, checked_at, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		r.ProbeID, r.GatewayID, string(r.Status), r.ResponseTimeMS,
		nullableInt(r.StatusCode), nullStr(r.ErrorMessage), nullStr(r.ResponseBody),
		r.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		r.ID = id
	}

	if n, err := s.evict(ctx); err != nil {
		s.log.Warn("result_eviction_error", zap.Error(err))
	} else if n > 0 {
		s.log.Info("results_evicted", zap.Int64("count", n))
	}
	return nil
}

// evict deletes the oldest synced rows once the table exceeds maxRows. Unsynced
// rows are never candidates, so the table can stay above the cap for as long
// as the backend is unreachable.
func (s *Store) evict(ctx context.Context) (int64, error) {
	if s.maxRows <= 0 {
		return 0, nil
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM probe_results`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	if total <= s.maxRows {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM probe_results
		WHERE id IN (
			SELECT id FROM probe_results
			WHERE synced = 1
			ORDER BY checked_at ASC
			LIMIT ?
		)`, total-s.maxRows)
	if err != nil {
		return 0, fmt.Errorf("evict synced rows: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, limit int) ([]domain.ProbeResult, error) {
	q := `
		SELECT id, probe_id, gateway_id, status, response_time, status_code,
		       error_message, response_body, checked_at, synced
		FROM probe_results
		ORDER BY checked_at DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	return s.query(ctx, q, args...)
}

func (s *Store) Unsynced(ctx context.Context) ([]domain.ProbeResult, error) {
	return s.query(ctx, `
		SELECT id, probe_id, gateway_id, status, response_time, status_code,
		       error_message, response_body, checked_at, synced
		FROM probe_results
		WHERE synced = 0
		ORDER BY checked_at ASC`)
}

// MarkSynced flips the synced flag for the given ids as a single UPDATE, so a
// batch is either fully applied or not at all.
func (s *Store) MarkSynced(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE probe_results SET synced = 1 WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (s *Store) Counts(ctx context.Context) (repo.Counts, error) {
	var c repo.Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(synced), 0) FROM probe_results`,
	).Scan(&c.Total, &c.Synced)
	if err != nil {
		return repo.Counts{}, fmt.Errorf("count results: %w", err)
	}
	c.Unsynced = c.Total - c.Synced
	return c, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]domain.ProbeResult, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []domain.ProbeResult
	for rows.Next() {
		var (
			r          domain.ProbeResult
			status     string
			statusCode sql.NullInt64
			errMsg     sql.NullString
			body       sql.NullString
			synced     int
		)
		if err := rows.Scan(&r.ID, &r.ProbeID, &r.GatewayID, &status,
			&r.ResponseTimeMS, &statusCode, &errMsg, &body, &r.CheckedAt, &synced); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Status = domain.Status(status)
		if statusCode.Valid {
			v := int(statusCode.Int64)
			r.StatusCode = &v
		}
		r.ErrorMessage = errMsg.String
		r.ResponseBody = body.String
		r.Synced = synced != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
