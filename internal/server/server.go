// Package server exposes the token space over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mourao666/cassandra-sim/dht"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// TokenRing supplies the ring tokens ownership is described for.
// *ring.Ring and *cluster.Membership implement it.
type TokenRing interface {
	SortedTokens() []dht.Token
}

// RowStore stores rows for the rows endpoint. *storage.Store implements it.
type RowStore interface {
	CreateTable(ctx context.Context, t dht.TableRef) error
	Put(ctx context.Context, t dht.TableRef, partitionKey, value []byte) (dht.Token, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *dht.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRing enables GET /v1/ownership.
func WithRing(r TokenRing) Option {
	return func(s *Server) { s.ring = r }
}

// WithRowStore enables the table and row endpoints.
func WithRowStore(rs RowStore) Option {
	return func(s *Server) { s.rows = rs }
}

// WithGatherer sets the source for GET /metrics. Default:
// prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithCORSOrigins allows cross-origin requests from origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithRequestTimeout bounds each request. Zero disables the bound.
// Default: 30s.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// Server routes HTTP requests to a partitioner and its collaborators.
type Server struct {
	p           dht.Partitioner
	ring        TokenRing
	rows        RowStore
	gatherer    prometheus.Gatherer
	logger      *dht.Logger
	corsOrigins []string
	timeout     time.Duration
	router      chi.Router
}

// New builds the router.
func New(p dht.Partitioner, opts ...Option) *Server {
	s := &Server{
		p:        p,
		gatherer: prometheus.DefaultGatherer,
		logger:   dht.NoopLogger(),
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
			next.ServeHTTP(w, r)
		})
	})
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/tokens", s.handleToken)
		r.Get("/tokens/random", s.handleRandomTokens)
		r.Post("/midpoint", s.handleMidpoint)
		r.Get("/ownership", s.handleOwnership)
		r.Put("/keyspaces/{ks}/tables/{table}", s.handleCreateTable)
		r.Post("/keyspaces/{ks}/tables/{table}/rows", s.handlePutRow)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
