// Package history persists completed simulation runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	domainsims "github.com/preston-bernstein/league-sim-service/internal/domain/simulations"
	"github.com/preston-bernstein/league-sim-service/internal/history/migrations"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("simulation run not found")

// Store persists simulation runs in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path, creating it when missing, and applies embedded migrations.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path)
	}
	dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Every new connection would get its own empty in-memory database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveRun inserts a completed run, assigning an id and creation time when missing.
func (s *Store) SaveRun(ctx context.Context, result domainsims.Result) (domainsims.Result, error) {
	if err := ctx.Err(); err != nil {
		return domainsims.Result{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domainsims.Result{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(result.Team) == "" {
		return domainsims.Result{}, fmt.Errorf("team is required")
	}
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = s.now()
	}
	result.CreatedAt = result.CreatedAt.UTC()

	positions, err := json.Marshal(result.Positions)
	if err != nil {
		return domainsims.Result{}, fmt.Errorf("encode positions: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO simulation_runs (
		   id, team, target_rank, trials, hits, probability, percent, positions,
		   avg_wins, avg_points, snapshot_version, duration_ms, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.Team,
		result.Rank,
		result.Trials,
		result.Hits,
		result.Probability,
		result.Percent.String(),
		string(positions),
		result.AverageWinsAtRank,
		result.AveragePointsAtRank,
		result.SnapshotVersion,
		result.DurationMS,
		toMillis(result.CreatedAt),
	)
	if err != nil {
		return domainsims.Result{}, fmt.Errorf("insert simulation run: %w", err)
	}
	return result, nil
}

const selectRun = `SELECT id, team, target_rank, trials, hits, probability, percent, positions,
       avg_wins, avg_points, snapshot_version, duration_ms, created_at
  FROM simulation_runs`

// GetRun loads one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (domainsims.Result, error) {
	if err := ctx.Err(); err != nil {
		return domainsims.Result{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domainsims.Result{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, selectRun+` WHERE id = ?`, strings.TrimSpace(id))
	result, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domainsims.Result{}, ErrNotFound
	}
	if err != nil {
		return domainsims.Result{}, fmt.Errorf("get simulation run: %w", err)
	}
	return result, nil
}

// ListRuns returns the most recent runs first. Non-positive limits use the default.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domainsims.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	rows, err := s.sqlDB.QueryContext(ctx, selectRun+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list simulation runs: %w", err)
	}
	defer rows.Close()

	out := make([]domainsims.Result, 0, limit)
	for rows.Next() {
		result, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation run: %w", err)
		}
		out = append(out, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation runs: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (domainsims.Result, error) {
	var (
		result    domainsims.Result
		percent   string
		positions string
		createdAt int64
	)
	if err := row.Scan(
		&result.ID,
		&result.Team,
		&result.Rank,
		&result.Trials,
		&result.Hits,
		&result.Probability,
		&percent,
		&positions,
		&result.AverageWinsAtRank,
		&result.AveragePointsAtRank,
		&result.SnapshotVersion,
		&result.DurationMS,
		&createdAt,
	); err != nil {
		return domainsims.Result{}, err
	}
	pct, err := decimal.NewFromString(percent)
	if err != nil {
		return domainsims.Result{}, fmt.Errorf("decode percent: %w", err)
	}
	result.Percent = pct
	if err := json.Unmarshal([]byte(positions), &result.Positions); err != nil {
		return domainsims.Result{}, fmt.Errorf("decode positions: %w", err)
	}
	result.CreatedAt = fromMillis(createdAt)
	return result, nil
}
