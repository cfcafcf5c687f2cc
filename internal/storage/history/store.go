package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

// Store records verification runs in a relational database so results can
// be compared across invocations.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	config *Config
	logger *zap.Logger
}

// Open connects to the database described by config and creates the
// schema when missing.
func Open(ctx context.Context, config *Config, logger *zap.Logger) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("open", "invalid configuration", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, NewConnectionError("open", "failed to open database connection", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, config.DefaultTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewConnectionError("open", "failed to ping database", err)
	}

	s := &Store{db: db, config: config, logger: logger}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, NewSchemaError("open", "failed to initialize schema", err)
	}

	logger.Info("history store opened", zap.Stringer("database", config))
	return s, nil
}

// Close closes the database connection. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

// conn returns the open database and a context bounded by the default timeout.
func (s *Store) conn(ctx context.Context) (*sql.DB, context.Context, context.CancelFunc, error) {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db == nil {
		return nil, nil, nil, ErrStoreClosed
	}
	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	return db, ctx, cancel, nil
}

// rebind rewrites ? placeholders into the positional form postgres expects.
func (s *Store) rebind(query string) string {
	if s.config.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) initSchema(ctx context.Context) error {
	blob := "BLOB"
	if s.config.Driver == DriverPostgres {
		blob = "BYTEA"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id VARCHAR(36) PRIMARY KEY,
			fixture TEXT NOT NULL,
			description TEXT NOT NULL,
			outcome VARCHAR(16) NOT NULL,
			rings INTEGER NOT NULL,
			rings_failed INTEGER NOT NULL,
			fee_payments INTEGER NOT NULL,
			invalid_orders INTEGER NOT NULL,
			started_at BIGINT NOT NULL,
			elapsed_ns BIGINT NOT NULL,
			error TEXT NOT NULL,
			detail ` + blob + `
		)`,

		`CREATE TABLE IF NOT EXISTS mismatches (
			run_id VARCHAR(36) NOT NULL,
			seq INTEGER NOT NULL,
			kind VARCHAR(16) NOT NULL,
			token VARCHAR(42) NOT NULL,
			owner VARCHAR(42) NOT NULL,
			tranche VARCHAR(66) NOT NULL,
			order_hash VARCHAR(66) NOT NULL,
			expected TEXT NOT NULL,
			actual TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_fixture ON runs(fixture)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// Record stores run, its mismatches and the optional settlement detail in
// one transaction.
func (s *Store) Record(ctx context.Context, run *Run, detail *Detail) error {
	db, ctx, cancel, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var blob []byte
	if detail != nil {
		if blob, err = encodeDetail(detail); err != nil {
			return NewDataError("record", "failed to encode detail", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return NewTransactionError("record", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO runs
		(id, fixture, description, outcome, rings, rings_failed, fee_payments, invalid_orders, started_at, elapsed_ns, error, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.Fixture, run.Description, run.Outcome,
		run.Rings, run.RingsFailed, run.FeePayments, run.InvalidOrders,
		run.StartedAt.UnixNano(), int64(run.Elapsed), run.Error, blob)
	if err != nil {
		return NewQueryError("record", "failed to insert run", err)
	}

	insert := s.rebind(`INSERT INTO mismatches
		(run_id, seq, kind, token, owner, tranche, order_hash, expected, actual)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, m := range run.Mismatches {
		if _, err := tx.ExecContext(ctx, insert,
			run.ID, i, m.Kind, m.Token, m.Owner, m.Tranche, m.OrderHash, m.Expected, m.Actual); err != nil {
			return NewQueryError("record", "failed to insert mismatch", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewTransactionError("record", "failed to commit", err)
	}

	s.logger.Debug("run recorded",
		zap.String("run", run.ID),
		zap.String("outcome", run.Outcome),
		zap.Int("mismatches", len(run.Mismatches)))
	return nil
}

const runColumns = `id, fixture, description, outcome, rings, rings_failed, fee_payments, invalid_orders, started_at, elapsed_ns, error`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var (
		run              Run
		started, elapsed int64
	)
	err := row.Scan(&run.ID, &run.Fixture, &run.Description, &run.Outcome,
		&run.Rings, &run.RingsFailed, &run.FeePayments, &run.InvalidOrders,
		&started, &elapsed, &run.Error)
	if err != nil {
		return nil, err
	}
	run.StartedAt = time.Unix(0, started)
	run.Elapsed = time.Duration(elapsed)
	return &run, nil
}

// Recent returns the most recently started runs, newest first. A
// non-positive limit returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	db, ctx, cancel, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, NewQueryError("recent", "failed to query runs", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, NewQueryError("recent", "failed to scan run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("recent", "failed to iterate runs", err)
	}
	return runs, nil
}

// Get returns the run with the given ID and its mismatches.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	db, ctx, cancel, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	run, err := scanRun(db.QueryRowContext(ctx,
		s.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, NewQueryError("get", "failed to query run", err)
	}

	rows, err := db.QueryContext(ctx, s.rebind(`SELECT kind, token, owner, tranche, order_hash, expected, actual
		FROM mismatches WHERE run_id = ? ORDER BY seq`), id)
	if err != nil {
		return nil, NewQueryError("get", "failed to query mismatches", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Mismatch
		if err := rows.Scan(&m.Kind, &m.Token, &m.Owner, &m.Tranche, &m.OrderHash, &m.Expected, &m.Actual); err != nil {
			return nil, NewQueryError("get", "failed to scan mismatch", err)
		}
		run.Mismatches = append(run.Mismatches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("get", "failed to iterate mismatches", err)
	}
	return run, nil
}

// Detail returns the settlement breakdown recorded with a run, nil when the
// run settled nothing.
func (s *Store) Detail(ctx context.Context, id string) (*Detail, error) {
	db, ctx, cancel, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var blob []byte
	err = db.QueryRowContext(ctx, s.rebind(`SELECT detail FROM runs WHERE id = ?`), id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, NewQueryError("detail", "failed to query detail", err)
	}
	if len(blob) == 0 {
		return nil, nil
	}
	return decodeDetail(blob)
}

// Prune deletes runs started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	db, ctx, cancel, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewTransactionError("prune", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	before := cutoff.UnixNano()
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM mismatches
		WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`), before); err != nil {
		return 0, NewQueryError("prune", "failed to delete mismatches", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM runs WHERE started_at < ?`), before)
	if err != nil {
		return 0, NewQueryError("prune", "failed to delete runs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewQueryError("prune", "failed to count deleted runs", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, NewTransactionError("prune", "failed to commit", err)
	}
	return n, nil
}
