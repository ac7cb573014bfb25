package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/koustreak/playerdb/internal/errs"
	"github.com/koustreak/playerdb/internal/logger"
)

// Pool is the single shared set of database connections for a process.
// It is safe for concurrent use by multiple goroutines.
type Pool struct {
	cfg     Config
	db      *sql.DB
	dialect Dialect
	gate    *gate
	log     *logger.Logger

	mu      sync.Mutex // serialises Close
	closed  atomic.Bool
	onClose func(*Pool)
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	MaxConns int   `json:"maxConns"`
	Open     int   `json:"open"`
	InUse    int   `json:"inUse"`
	Idle     int   `json:"idle"`
	Waiting  int64 `json:"waiting"`
	Closed   bool  `json:"closed"`
}

// Open builds a pool from cfg and pings the server before returning.
// Most callers should go through Provider.Get so a process never owns two
// pools for the same settings.
func Open(ctx context.Context, cfg *Config, log *logger.Logger) (*Pool, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := d.Open(cfg)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.IdleTimeout)

	p := &Pool{
		cfg:     *cfg,
		db:      db,
		dialect: d,
		gate:    newGate(cfg.MaxConns, cfg.WaitForConnections, cfg.QueueLimit),
		log:     log.With().Str("component", "pool").Str("driver", string(cfg.Driver)).Logger(),
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, d.MapError(err, "ping failed")
	}

	p.log.InfoWith("pool opened", logger.Fields{
		"database":    cfg.Database,
		"max_conns":   cfg.MaxConns,
		"max_idle":    cfg.MaxIdleConns,
		"queue_limit": cfg.QueueLimit,
		"tls":         cfg.TLS.Enabled,
	})
	return p, nil
}

// Config returns a copy of the settings the pool was built with.
func (p *Pool) Config() Config {
	return p.cfg
}

// Driver reports the engine behind the pool.
func (p *Pool) Driver() Driver {
	return p.cfg.Driver
}

// Stats returns connection counters for health reporting.
func (p *Pool) Stats() Stats {
	s := p.db.Stats()
	return Stats{
		MaxConns: p.cfg.MaxConns,
		Open:     s.OpenConnections,
		InUse:    int(p.gate.inUse.Load()),
		Idle:     s.Idle,
		Waiting:  p.gate.waiting.Load(),
		Closed:   p.closed.Load(),
	}
}

// acquire borrows exactly one connection. The returned release func hands it
// back and must be called on every path.
func (p *Pool) acquire(ctx context.Context) (*sql.Conn, func(), error) {
	if p.closed.Load() {
		return nil, nil, errs.New(errs.ErrKindClosed, "pool is closed")
	}
	if err := p.gate.acquire(ctx); err != nil {
		return nil, nil, err
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		p.gate.release()
		return nil, nil, p.dialect.MapError(err, "failed to acquire connection")
	}

	release := func() {
		_ = conn.Close()
		p.gate.release()
	}
	return conn, release, nil
}

// Close shuts the pool down. It refuses while connections are checked out,
// leaving the pool usable so the caller can retry once work has drained.
// Closing an already closed pool returns an ErrKindClosed error.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed.Load() {
		return errs.New(errs.ErrKindClosed, "pool already closed")
	}
	if n := p.gate.inUse.Load(); n > 0 {
		return errs.New(errs.ErrKindCloseFailed, fmt.Sprintf("%d connection(s) still in use", n))
	}

	p.closed.Store(true)
	if p.onClose != nil {
		p.onClose(p)
	}
	if err := p.db.Close(); err != nil {
		return errs.Wrap(errs.ErrKindCloseFailed, "failed to close pool", err)
	}

	p.log.Info("pool closed")
	return nil
}
