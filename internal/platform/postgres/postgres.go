// Package postgres is the persistence gateway: it owns the connection pool,
// bounds every statement with a timeout, and translates driver failures so
// raw lib/pq error types never reach the service layer.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"persreg/internal/platform/config"
	"persreg/pkg/platform/sentinel"
)

const uniqueViolation = pq.ErrorCode("23505")

// StorageError wraps a driver failure together with the statement that
// produced it. The statement goes to logs, never to clients.
type StorageError struct {
	Stmt string
	Err  error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %v", e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// Gateway executes parameterized statements against the pooled database.
type Gateway struct {
	db      *sql.DB
	timeout time.Duration
}

// Open connects the pool and verifies the database is reachable.
func Open(cfg config.Database) (*Gateway, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Gateway{db: db, timeout: cfg.QueryTimeout}, nil
}

// Close releases the pool.
func (g *Gateway) Close() error { return g.db.Close() }

// Ping verifies connectivity within the statement timeout.
func (g *Gateway) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return translate(g.db.PingContext(ctx), "ping")
}

// ExecContext runs a statement that returns no rows.
func (g *Gateway) ExecContext(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	res, err := g.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, translate(err, stmt)
	}
	return res, nil
}

// QueryContext runs a multi-row query. The returned Rows must be closed;
// closing also releases the statement timeout.
func (g *Gateway) QueryContext(ctx context.Context, stmt string, args ...any) (*Rows, error) {
	qctx, cancel := context.WithTimeout(ctx, g.timeout)
	rows, err := g.db.QueryContext(qctx, stmt, args...)
	if err != nil {
		cancel()
		return nil, translate(err, stmt)
	}
	return &Rows{Rows: rows, stmt: stmt, cancel: cancel}, nil
}

// QueryRowContext runs a single-row query. The timeout is released when the
// row is scanned.
func (g *Gateway) QueryRowContext(ctx context.Context, stmt string, args ...any) *Row {
	qctx, cancel := context.WithTimeout(ctx, g.timeout)
	return &Row{row: g.db.QueryRowContext(qctx, stmt, args...), stmt: stmt, cancel: cancel}
}

// Conn hands out a dedicated connection for multi-statement work. Current
// operations are all single-statement and use the pool directly; this exists
// so a future transaction does not have to re-plumb the gateway.
func (g *Gateway) Conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := g.db.Conn(ctx)
	if err != nil {
		return nil, translate(err, "acquire connection")
	}
	return conn, nil
}

// Rows wraps sql.Rows so iteration errors pass through the same translation
// as query errors.
type Rows struct {
	*sql.Rows
	stmt   string
	cancel context.CancelFunc
}

func (r *Rows) Close() error {
	err := r.Rows.Close()
	r.cancel()
	return err
}

func (r *Rows) Err() error {
	return translate(r.Rows.Err(), r.stmt)
}

// Row wraps sql.Row; the deferred error surfaces at Scan time.
type Row struct {
	row    *sql.Row
	stmt   string
	cancel context.CancelFunc
}

func (r *Row) Scan(dest ...any) error {
	defer r.cancel()
	return translate(r.row.Scan(dest...), r.stmt)
}

// translate keeps two driver conditions recognizable to callers — row
// absence and unique violations — and hides everything else behind
// StorageError.
func translate(err error, stmt string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", sentinel.ErrConflict, pqErr.Constraint)
	}
	return &StorageError{Stmt: stmt, Err: err}
}
