// Package api exposes the services over HTTP with JSON bodies.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mmynk/nutrimed/internal/httpx"
	"github.com/mmynk/nutrimed/internal/middleware"
	"github.com/mmynk/nutrimed/internal/service"
)

// DefaultMaxUploadBytes bounds the image accepted by /analyze.
const DefaultMaxUploadBytes = 10 << 20

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the handlers to their collaborators.
type Config struct {
	Auth          *service.AuthService
	Analyses      *service.AnalysisService
	Authenticator *middleware.Authenticator
	Logger        *slog.Logger

	// Store is pinged by the readiness probe. Optional.
	Store Pinger
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// MaxUploadBytes defaults to DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// Handler holds the HTTP handlers.
type Handler struct {
	auth      *service.AuthService
	analyses  *service.AnalysisService
	authn     *middleware.Authenticator
	logger    *slog.Logger
	decoder   *httpx.Decoder
	store     Pinger
	metrics   http.Handler
	maxUpload int64
}

// NewHandler creates the HTTP handlers.
func NewHandler(cfg Config) *Handler {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		auth:      cfg.Auth,
		analyses:  cfg.Analyses,
		authn:     cfg.Authenticator,
		logger:    logger,
		decoder:   httpx.NewDecoder(),
		store:     cfg.Store,
		metrics:   cfg.Metrics,
		maxUpload: maxUpload,
	}
}

// Routes registers every route on a new ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	required := func(fn http.HandlerFunc) http.Handler { return h.authn.RequireAuth(fn) }
	optional := func(fn http.HandlerFunc) http.Handler { return h.authn.OptionalAuth(fn) }

	mux.HandleFunc("GET /{$}", h.health)
	mux.HandleFunc("GET /healthz", h.ready)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	mux.HandleFunc("POST /auth/register", h.register)
	mux.HandleFunc("POST /auth/login", h.login)
	mux.Handle("GET /auth/me", required(h.me))

	mux.Handle("GET /analyses", required(h.listAnalyses))
	mux.Handle("POST /analyses", required(h.createAnalysis))
	mux.Handle("DELETE /analyses", required(h.deleteAllAnalyses))
	mux.Handle("PATCH /analyses/{id}", required(h.renameAnalysis))
	mux.Handle("DELETE /analyses/{id}", required(h.deleteAnalysis))

	mux.Handle("POST /analyze", optional(h.analyze))

	return mux
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, h.logger, err)
}
