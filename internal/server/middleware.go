package server

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/koustreak/playerdb/internal/logger"
)

// accessLog writes one line per request and stores a request-scoped logger
// in the context for handlers.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLog := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		reqLog.HTTPEvent().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_ip", r.RemoteAddr).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// recoverer turns a handler panic into a 500 JSON response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.FromContext(r.Context(), s.log).ErrorWith("handler panic", fmt.Errorf("%v", rec), logger.Fields{
				"stack": string(debug.Stack()),
			})
			writeError(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// limitBody caps request bodies at the configured size.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

const (
	limiterBurst = 20
	limiterTTL   = 10 * time.Minute
)

// LimiterStore keeps one token bucket per client IP.
type LimiterStore struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type limiterEntry struct {
	lim  *rate.Limiter
	last time.Time
}

// NewLimiterStore allows perMinute requests per client with a small burst.
func NewLimiterStore(perMinute int) *LimiterStore {
	burst := limiterBurst
	if perMinute < burst {
		burst = perMinute
	}
	return &LimiterStore{
		clients: make(map[string]*limiterEntry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		now:     time.Now,
	}
}

func (s *LimiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.clients[key]; ok {
		e.last = now
		return e.lim
	}

	// Drop clients idle for longer than limiterTTL while we hold the lock.
	for k, e := range s.clients {
		if now.Sub(e.last) > limiterTTL {
			delete(s.clients, k)
		}
	}

	lim := rate.NewLimiter(s.limit, s.burst)
	s.clients[key] = &limiterEntry{lim: lim, last: now}
	return lim
}

func clientIP(r *http.Request) string {
	// RealIP has already rewritten RemoteAddr from proxy headers.
	h, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return h
}

// RateLimit rejects requests over the per-IP budget with 429.
func (s *LimiterStore) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.get(clientIP(r)).Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
