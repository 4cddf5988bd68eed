package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yousuf64/shift"

	"seoaudit/internal/config"
	"seoaudit/internal/jobs"
	"seoaudit/internal/middleware"
	"seoaudit/internal/repository"
	"seoaudit/internal/tracing"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HTTPMetrics instruments routed requests
type HTTPMetrics interface {
	HTTPMiddleware(next shift.HandlerFunc) shift.HandlerFunc
}

// API handles the HTTP server and routes
type API struct {
	jobs         jobs.SubmitterInterface
	jobRepo      repository.JobRepositoryInterface
	metrics      HTTPMetrics
	ws           http.Handler
	allowPrivate bool
	now          func() time.Time
	log          *slog.Logger
	srv          *http.Server
}

// Option configures the API
type Option func(*API)

// WithMetrics instruments every route with m
func WithMetrics(m HTTPMetrics) Option {
	return func(a *API) {
		a.metrics = m
	}
}

// WithWebSocket serves h on /ws
func WithWebSocket(h http.Handler) Option {
	return func(a *API) {
		a.ws = h
	}
}

// WithAllowPrivateTargets permits loopback and private network URLs
func WithAllowPrivateTargets(allow bool) Option {
	return func(a *API) {
		a.allowPrivate = allow
	}
}

// AuditRequest is the request body for the audit endpoint
type AuditRequest struct {
	URL    string `json:"url"`
	APIKey string `json:"api_key,omitempty"`
}

// AuditResponse is the response body for the audit endpoint
type AuditResponse struct {
	AuditID string `json:"audit_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusResponse is the response body for the status endpoint
type StatusResponse struct {
	Status  string `json:"status"`
	AuditID string `json:"audit_id"`
}

// HealthResponse is the response body for the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// NewAPI creates a new API with all dependencies
func NewAPI(submitter jobs.SubmitterInterface, jobRepo repository.JobRepositoryInterface, log *slog.Logger, opts ...Option) *API {
	a := &API{
		jobs:    submitter,
		jobRepo: jobRepo,
		now:     time.Now,
		log:     log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router builds the shift router with every audit route registered
func (a *API) Router() *shift.Router {
	router := shift.New()
	router.Use(tracing.OtelMiddleware)
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.CORSMiddleware)
	if a.metrics != nil {
		router.Use(a.metrics.HTTPMiddleware)
	}
	router.Use(middleware.ErrorMiddleware(a.log, statusFor))

	router.OPTIONS("/*wildcard", middleware.OptionsHandler)
	router.POST("/audit", a.handleAudit)
	router.GET("/audit/:audit_id/status", a.handleStatus)
	router.GET("/audit/:audit_id/results", a.handleResults)
	router.GET("/audit/:audit_id/report", a.handleReport)
	router.GET("/audit/:audit_id/download/:format", a.handleDownload)
	router.GET("/audits", a.handleListAudits)
	router.GET("/health", a.handleHealth)

	return router
}

// Handler returns the complete HTTP handler. The websocket endpoint sits outside the
// shift middleware chain so the connection can be hijacked.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	if a.ws != nil {
		mux.Handle("/ws", a.ws)
	}
	mux.Handle("/", a.Router().Serve())
	return mux
}

// Start starts the HTTP server
func (a *API) Start(ctx context.Context, cfg config.HTTPServerConfig) error {
	addr := ":8080"
	if cfg.Addr != "" {
		addr = cfg.Addr
	}

	a.srv = &http.Server{
		Addr:         addr,
		Handler:      a.Handler(),
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
		ReadTimeout:  durationOr(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout: durationOr(cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:  durationOr(cfg.IdleTimeout, 60*time.Second),
	}

	a.log.Info("API server starting", slog.String("addr", addr))
	return a.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (a *API) Shutdown(ctx context.Context) error {
	a.log.Info("Shutting down API server")
	if a.srv != nil {
		return a.srv.Shutdown(ctx)
	}
	return nil
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
