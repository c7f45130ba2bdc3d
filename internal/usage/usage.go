package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"github.com/theayooolofin/Ilovevideo/internal/logging"
	"github.com/theayooolofin/Ilovevideo/internal/metrics"
)

// Default timeout for ledger operations
const defaultTimeout = 5 * time.Second

// Store answers daily-quota questions for opaque identity keys and holds
// the pro-tier flags written by the payment webhook.
//
// Counters are per key, per UTC calendar day: a row from a previous day
// reads as zero and is reset by the next Commit. Increments never lose
// updates under concurrent requests for the same key.
type Store interface {
	// Peek returns the current day's count for key, zero if absent or stale.
	Peek(ctx context.Context, key string) (int, error)
	// Admit reports whether another job may run. A nil limit means no
	// ceiling (pro tier).
	Admit(ctx context.Context, key string, limit *int) (bool, error)
	// Commit records one use for key on the current day.
	Commit(ctx context.Context, key string) error

	// SetPro durably activates the pro flag for a user.
	SetPro(ctx context.Context, userID string) error
	// IsPro reports whether a user has the pro flag.
	IsPro(ctx context.Context, userID string) (bool, error)

	// Prune removes usage rows older than cutoffDays and reports how
	// many were deleted.
	Prune(ctx context.Context, cutoffDays int) (int64, error)
}

// SQLiteStore is the durable Store implementation backed by a single
// SQLite file. It survives process restarts; it is NOT shared-nothing
// safe across multiple instances (known scaling limitation, not a
// defect: the binding contract is per-key atomic increments within one
// instance).
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	// Serializes read-modify-write sequences. The Commit upsert is
	// itself atomic in SQLite, but the global lock also covers
	// Admit-then-Commit interleavings from tests and keeps the
	// contention model trivial at this scale.
	mu sync.Mutex

	// now is swappable for day-boundary tests.
	now func() time.Time
}

// New opens (creating if necessary) the ledger database at dbPath.
// The parent directory must already exist and be writable.
func New(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	logging.Info("Usage ledger path: %s", dbPath)

	// WAL mode and busy_timeout prevent "database is locked" errors
	// under concurrent request handling.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage ledger: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close ledger after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to usage ledger: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close ledger after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize usage ledger schema: %w", err)
	}

	logging.Info("Usage ledger initialized at %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage (
		key TEXT PRIMARY KEY,
		day TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_usage_day ON usage(day);

	CREATE TABLE IF NOT EXISTS pro_users (
		user_id TEXT PRIMARY KEY,
		activated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the ledger database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// day formats the current UTC calendar day. Quotas reset exactly at the
// UTC day boundary.
func (s *SQLiteStore) day() string {
	return s.now().UTC().Format("2006-01-02")
}

// Peek returns the count recorded for key today. Rows from previous days
// read as zero; they are reset lazily by Commit and pruned by the sweeper.
func (s *SQLiteStore) Peek(ctx context.Context, key string) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("peek", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	var day string
	err = s.db.QueryRowContext(ctx,
		"SELECT count, day FROM usage WHERE key = ?", key,
	).Scan(&count, &day)

	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage for key: %w", err)
	}

	if day != s.day() {
		return 0, nil
	}
	return count, nil
}

// Admit reports whether a job for key may run under limit. A nil limit
// admits unconditionally.
func (s *SQLiteStore) Admit(ctx context.Context, key string, limit *int) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("admit", start, err) }()

	if limit == nil {
		return true, nil
	}

	count, err := s.Peek(ctx, key)
	if err != nil {
		return false, err
	}
	return count < *limit, nil
}

// Commit records one use for key on the current day. The upsert resets
// stale rows from previous days before incrementing, so a key that hit
// yesterday's limit starts today at one.
func (s *SQLiteStore) Commit(ctx context.Context, key string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("commit", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO usage (key, day, count, updated_at)
		VALUES (?, ?, 1, strftime('%s', 'now'))
		ON CONFLICT(key) DO UPDATE SET
			count = CASE WHEN usage.day = excluded.day THEN usage.count + 1 ELSE 1 END,
			day = excluded.day,
			updated_at = strftime('%s', 'now')
	`, key, s.day())
	if err != nil {
		return fmt.Errorf("failed to commit usage: %w", err)
	}

	metrics.QuotaCommits.Inc()
	return nil
}

// SetPro durably activates the pro flag for userID. Idempotent.
func (s *SQLiteStore) SetPro(ctx context.Context, userID string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_pro", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pro_users (user_id) VALUES (?)
		ON CONFLICT(user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to activate pro flag: %w", err)
	}
	return nil
}

// IsPro reports whether userID carries the pro flag.
func (s *SQLiteStore) IsPro(ctx context.Context, userID string) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("is_pro", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var one int
	err = s.db.QueryRowContext(ctx,
		"SELECT 1 FROM pro_users WHERE user_id = ?", userID,
	).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read pro flag: %w", err)
	}
	return true, nil
}

// Prune deletes usage rows whose day is older than cutoff days ago.
// Stale rows are harmless (they read as zero), so this is housekeeping,
// not correctness.
func (s *SQLiteStore) Prune(ctx context.Context, cutoffDays int) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("prune", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cutoff := s.now().UTC().AddDate(0, 0, -cutoffDays).Format("2006-01-02")
	result, err := s.db.ExecContext(ctx, "DELETE FROM usage WHERE day < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage rows: %w", err)
	}
	return result.RowsAffected()
}

// UpdateDBMetrics refreshes the connection gauge.
func (s *SQLiteStore) UpdateDBMetrics() {
	metrics.DBConnectionsOpen.Set(float64(s.db.Stats().OpenConnections))
}

// recordQuery records ledger query metrics.
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
