// Package server provides the HTTP API for the portfolio builder: site
// generation, chat edits, quota, publishing and exports.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/portfolio-builder/internal/billing"
	"github.com/jonathan/portfolio-builder/internal/editing"
	"github.com/jonathan/portfolio-builder/internal/history"
	"github.com/jonathan/portfolio-builder/internal/ingestion"
	"github.com/jonathan/portfolio-builder/internal/llm"
	"github.com/jonathan/portfolio-builder/internal/pipeline"
	"github.com/jonathan/portfolio-builder/internal/printdoc"
	"github.com/jonathan/portfolio-builder/internal/publish"
	"github.com/jonathan/portfolio-builder/internal/render"
	"github.com/jonathan/portfolio-builder/internal/server/middleware"
	"github.com/jonathan/portfolio-builder/internal/server/ratelimit"
	"github.com/jonathan/portfolio-builder/internal/session"
	"github.com/jonathan/portfolio-builder/internal/usage"
)

// Config holds server configuration. Client and Ledger are required; the
// rest is optional infrastructure.
type Config struct {
	Port   int
	Client llm.Client
	Ledger *usage.Ledger

	// Snapshots, when set, persists document versions after generation.
	Snapshots history.Store
	// Billing, when set, confirms purchases with the provider before
	// crediting the ledger.
	Billing *billing.Client
	// WordExtractor, when set, enables .docx resume uploads.
	WordExtractor ingestion.WordExtractor
	// JWTSecret, when set, requires bearer tokens on every route except
	// the health check.
	JWTSecret string
	// UserID identifies the session owner towards the billing provider
	// when requests carry no token.
	UserID string
	// PublishDelay overrides the simulated deployment pacing, mainly for
	// tests.
	PublishDelay time.Duration
}

// Server is the HTTP server. It owns one builder session.
type Server struct {
	httpServer  *http.Server
	controller  *session.Controller
	ingestor    *ingestion.Ingestor
	ledger      *usage.Ledger
	publisher   *publish.Publisher
	billing     *billing.Client
	renderer    *render.PDFRenderer
	snapshots   history.Store
	rateLimiter *ratelimit.Limiter
	userID      string
}

// New creates a server instance.
func New(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("usage ledger is required")
	}

	publisher := publish.New()
	if cfg.PublishDelay > 0 {
		publisher = publish.NewWithDelay(cfg.PublishDelay)
	}

	userID := cfg.UserID
	if userID == "" {
		userID = "local"
	}

	s := &Server{
		controller: session.NewController(
			pipeline.New(cfg.Client, cfg.Ledger),
			editing.New(cfg.Client),
			printdoc.New(cfg.Client),
			cfg.Ledger,
		),
		ingestor:    ingestion.New(cfg.WordExtractor),
		ledger:      cfg.Ledger,
		publisher:   publisher,
		billing:     cfg.Billing,
		renderer:    render.NewPDFRenderer(),
		snapshots:   cfg.Snapshots,
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		userID:      userID,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Generation and chat
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /state", s.handleState)

	// Mode switching
	mux.HandleFunc("POST /resume-builder", s.handleOpenResumeBuilder)
	mux.HandleFunc("POST /preview", s.handleOpenPreview)
	mux.HandleFunc("POST /start-over", s.handleStartOver)

	// Quota and purchases
	mux.HandleFunc("GET /usage", s.handleUsage)
	mux.HandleFunc("POST /purchase", s.handlePurchase)

	// Outputs
	mux.HandleFunc("POST /publish", s.handlePublish)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("GET /export/pdf", s.handleExportPDF)

	// Snapshot history
	mux.HandleFunc("GET /snapshots", s.handleListSnapshots)
	mux.HandleFunc("GET /snapshots/{id}", s.handleGetSnapshot)

	var handler http.Handler = mux
	if cfg.JWTSecret != "" {
		handler = s.withAuth([]byte(cfg.JWTSecret), mux)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withRecovery(s.withCORS(handler)))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // generation streams for minutes
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler exposes the full middleware chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-stop
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.snapshots != nil {
		if err := s.snapshots.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close snapshot store")
		}
	}

	log.Info().Msg("server stopped")
	return nil
}

// withAuth protects every route except the health check.
func (s *Server) withAuth(secret []byte, next http.Handler) http.Handler {
	authed := middleware.Auth(secret)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		authed.ServeHTTP(w, r)
	})
}

// withRecovery converts handler panics into 500 responses.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Str("path", r.URL.Path).
					Msg("handler panicked")
				s.errorResponse(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// requestUserID resolves the acting user: the authenticated token subject
// when present, the configured default otherwise.
func (s *Server) requestUserID(r *http.Request) string {
	if id, ok := middleware.UserID(r); ok {
		return id
	}
	return s.userID
}

// extractClientID extracts the client identifier (IP address) from the
// request.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate
// limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
