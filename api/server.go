package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/idtoken"

	"verifylens/internal/models"
	"verifylens/shared/config"
	"verifylens/shared/monitoring"
)

const (
	Name        = "VerifyLens API"
	Version     = "1.0.0"
	Description = "AI-powered media verification platform"
)

type MediaAnalyzer interface {
	AnalyzeMedia(ctx context.Context, path, mediaType string) *models.Analysis
	UsageStats() models.UsageStats
}

type Reporter interface {
	GenerateReport() string
}

// TokenValidator checks bearer tokens on the usage endpoints.
// *idtoken.Validator satisfies it.
type TokenValidator interface {
	Validate(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

type Server struct {
	analyzer  MediaAnalyzer
	reporter  Reporter
	monitor   *monitoring.Monitor
	validator TokenValidator
	cfg       *config.Config
	log       logrus.FieldLogger
}

// NewServer builds the HTTP layer. validator may be nil, in which case the
// usage endpoints are open. A nil monitor disables /health.
func NewServer(cfg *config.Config, analyzer MediaAnalyzer, reporter Reporter, monitor *monitoring.Monitor, validator TokenValidator, log logrus.FieldLogger) *Server {
	return &Server{
		analyzer:  analyzer,
		reporter:  reporter,
		monitor:   monitor,
		validator: validator,
		cfg:       cfg,
		log:       log,
	}
}

func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()

	mux.Use(requestLogger(s.log))
	mux.Use(recoverer(s.log))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: s.cfg.Server.CORS.AllowCredentials,
		MaxAge:           s.cfg.Server.CORS.MaxAge,
	}))

	mux.Get("/", s.handleRoot)
	if s.monitor != nil {
		mux.Get("/health", monitoring.HealthHandler(s.monitor))
	}

	mux.With(rateLimit(s.cfg.Server.RateLimit)).Post("/analyze/{media_type}", s.handleAnalyze)

	mux.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/usage", s.handleUsage)
		r.Get("/usage/report", s.handleUsageReport)
	})

	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps an analysis outcome onto an HTTP status. Results with
// broken stages are still 200: partial results are results.
func statusFor(a *models.Analysis) int {
	switch a.Failure {
	case models.FailureNone:
		return http.StatusOK
	case models.FailureUnsupportedMediaType:
		return http.StatusBadRequest
	case models.FailureValidation:
		return http.StatusUnprocessableEntity
	case models.FailureUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var startedAt = time.Now()
