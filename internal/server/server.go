// Package server exposes the player repository over a small JSON HTTP API.
//
// Every response is either {"results": ...} or {"error": "..."}.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/playerdb/internal/config"
	"github.com/koustreak/playerdb/internal/database"
	"github.com/koustreak/playerdb/internal/filestore"
	"github.com/koustreak/playerdb/internal/logger"
	"github.com/koustreak/playerdb/internal/players"
	"github.com/koustreak/playerdb/internal/schema"
	"github.com/koustreak/playerdb/internal/snapshot"
)

// Players is the repository surface the handlers call.
// *players.Repository satisfies it.
type Players interface {
	CreateTable(ctx context.Context) error
	Seed(ctx context.Context) ([]players.Player, error)
	ServerVersion(ctx context.Context) (string, error)
	Hello(ctx context.Context) (*database.Result, error)
	Create(ctx context.Context, coins, goods int64) (id, affected int64, err error)
	ReadByID(ctx context.Context, id int64) ([]players.Player, error)
	Update(ctx context.Context, id, incCoins, incGoods int64) (int64, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
}

// Snapshots is the export surface. *snapshot.Exporter satisfies it.
type Snapshots interface {
	Export(ctx context.Context) (*snapshot.Entry, error)
	List(ctx context.Context) ([]snapshot.Entry, error)
	Open(ctx context.Context, name string) (filestore.Object, error)
}

// Schema reads table metadata. *schema.Introspector satisfies it.
type Schema interface {
	InspectTable(ctx context.Context, table string) (*schema.TableInfo, error)
}

// PoolStats reports connection pool counters. *database.Pool satisfies it.
type PoolStats interface {
	Stats() database.Stats
}

// Deps are the collaborators the server routes to. Snapshots may be nil,
// in which case the snapshot routes are not mounted. A nil Schema makes
// /diagnostic?schema=1 answer 404.
type Deps struct {
	Players   Players
	Snapshots Snapshots
	Schema    Schema
	Pool      PoolStats
}

// Server owns the HTTP listener.
type Server struct {
	cfg      config.Server
	deps     Deps
	log      *logger.Logger
	http     *http.Server
	limiter  *LimiterStore
	draining atomic.Bool
}

// New builds the server and its router. Nothing listens until Start.
func New(cfg config.Server, deps Deps, log *logger.Logger) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  log.With().Str("component", "http").Logger(),
	}
	if cfg.RatePerMinute > 0 {
		s.limiter = NewLimiterStore(cfg.RatePerMinute)
	}
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(s.recoverer)
	if s.limiter != nil {
		r.Use(s.limiter.RateLimit)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Get("/hello", s.handleHello)
	r.Get("/diagnostic", s.handleDiagnostic)

	r.Route("/entity", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/", s.handleCreate)
		r.Put("/", s.handleUpdate)
		r.Delete("/", s.handleDelete)
	})

	if s.deps.Snapshots != nil {
		r.Route("/snapshot", func(r chi.Router) {
			r.Post("/", s.handleSnapshotExport)
			r.Get("/", s.handleSnapshotList)
			r.Get("/{name}", s.handleSnapshotDownload)
		})
	}

	return r
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.log.InfoWith("http server listening", logger.Fields{"addr": s.cfg.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server unhealthy and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.draining.Store(true)
	s.log.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}

var _ Schema = (*schema.Introspector)(nil)
