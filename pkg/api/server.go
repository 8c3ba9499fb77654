// Package api serves diagram rendering over HTTP.
//
// Routes:
//
//	GET  /healthz                          build info
//	GET  /api/v1/catalog                   built-in diagrams
//	POST /api/v1/catalog/{name}/render     render a built-in diagram
//	POST /api/v1/render                    render a TOML or YAML definition
//	GET  /api/v1/renders                   recent renders
//	GET  /api/v1/renders/{id}              one render
//	GET  /api/v1/renders/{id}/{format}     a rendered artifact
//
// The definition syntax of POST /api/v1/render is chosen by Content-Type
// (application/toml or application/yaml). Both render endpoints accept a
// "formats" query parameter overriding the requested formats.
//
// Errors are JSON objects {"code": ..., "message": ...}.
package api

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/stackdiagram/pkg/observability"
	"github.com/matzehuels/stackdiagram/pkg/render"
	"github.com/matzehuels/stackdiagram/pkg/store"
)

// DefaultMaxBodyBytes limits the size of posted definitions.
const DefaultMaxBodyBytes = 1 << 20

// DefaultRenderTimeout bounds a single render request.
const DefaultRenderTimeout = 60 * time.Second

// Config configures a Server.
type Config struct {
	Store    store.Store
	Renderer render.Renderer
	Logger   *log.Logger

	MaxBodyBytes  int64
	RenderTimeout time.Duration
}

// Server is the HTTP API. It is an http.Handler.
type Server struct {
	router   chi.Router
	store    store.Store
	renderer render.Renderer
	logger   *log.Logger
	maxBody  int64
}

// New creates a Server. A nil Store defaults to a MemoryStore; a nil
// Renderer to an uncached Graphviz renderer.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.NewGraphviz(nil, cfg.Logger)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = DefaultRenderTimeout
	}

	s := &Server{
		store:    cfg.Store,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
		maxBody:  cfg.MaxBodyBytes,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed on " + r.URL.Path})
	})

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.With(middleware.Timeout(cfg.RenderTimeout)).Post("/catalog/{name}/render", s.handleRenderCatalog)
		r.With(middleware.Timeout(cfg.RenderTimeout)).Post("/render", s.handleRender)
		r.Get("/renders", s.handleListRenders)
		r.Get("/renders/{id}", s.handleGetRender)
		r.Get("/renders/{id}/{format}", s.handleGetArtifact)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// logRequests logs each request and reports it to the HTTP hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", dur.Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
