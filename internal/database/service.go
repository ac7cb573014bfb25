package database

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koustreak/playerdb/internal/errs"
	"github.com/koustreak/playerdb/internal/logger"
)

// Service executes parameterized statements on a Pool.
// It is safe for concurrent use by multiple goroutines.
type Service struct {
	pool *Pool
	log  *logger.Logger

	mu       sync.Mutex // serialises Close
	closed   atomic.Bool
	released bool
}

// NewService wraps pool. The service takes over the pool's shutdown: call
// Service.Close rather than Pool.Close.
func NewService(pool *Pool, log *logger.Logger) *Service {
	return &Service{
		pool: pool,
		log:  log.With().Str("component", "database").Logger(),
	}
}

// Driver reports the engine behind the service.
func (s *Service) Driver() Driver {
	return s.pool.Driver()
}

// Pool exposes the underlying pool, mostly for health reporting.
func (s *Service) Pool() *Pool {
	return s.pool
}

// Execute runs one statement with positional bind values. Placeholders are
// written as ? and rewritten for the engine; values are never spliced into
// the SQL text.
//
// Exactly one connection is borrowed for the call and returned before
// Execute returns, whatever the outcome. Driver errors come back as
// *errs.Error with the native error as Cause.
func (s *Service) Execute(ctx context.Context, query string, args ...any) (*Result, error) {
	if s.closed.Load() {
		return nil, errs.New(errs.ErrKindClosed, "service is closed")
	}

	if t := s.pool.cfg.QueryTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	conn, release, err := s.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	stmt := s.pool.dialect.Rebind(query)

	var res *Result
	if returnsRows(query) {
		res, err = s.query(ctx, conn, stmt, args)
	} else {
		res, err = s.exec(ctx, conn, stmt, args)
	}

	s.logStatement(query, time.Since(start), res, err)
	return res, err
}

func (s *Service) query(ctx context.Context, conn *sql.Conn, stmt string, args []any) (*Result, error) {
	rows, err := conn.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, s.pool.dialect.MapError(err, "query failed")
	}
	return scanRows(rows, s.pool.dialect.MapError)
}

func (s *Service) exec(ctx context.Context, conn *sql.Conn, stmt string, args []any) (*Result, error) {
	r, err := conn.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, s.pool.dialect.MapError(err, "statement failed")
	}

	res := &Result{}
	if n, err := r.RowsAffected(); err == nil {
		res.AffectedRows = n
	}
	// pgx does not implement LastInsertId; inserts there use RETURNING.
	if id, err := r.LastInsertId(); err == nil {
		res.InsertID = id
	}
	return res, nil
}

func (s *Service) logStatement(query string, elapsed time.Duration, res *Result, err error) {
	fields := logger.Fields{
		"sql":         query,
		"duration_ms": elapsed.Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
	} else if res != nil {
		fields["rows"] = len(res.Rows)
		fields["affected"] = res.AffectedRows
	}

	if t := s.pool.cfg.SlowQueryThreshold; t > 0 && elapsed > t {
		s.log.WarnWith("slow statement", fields)
		return
	}
	s.log.DebugWith("statement executed", fields)
}

// Close releases the pool. Execute fails with ErrKindClosed from the first
// Close call on. If the pool still has connections checked out the error is
// returned and a later Close retries; once the pool is released, further
// calls return ErrKindClosed.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return errs.New(errs.ErrKindClosed, "service already closed")
	}
	s.closed.Store(true)

	if err := s.pool.Close(); err != nil && !errs.IsClosed(err) {
		return err
	}
	s.released = true
	return nil
}
