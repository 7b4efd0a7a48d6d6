package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"regift/internal/config"
	"regift/internal/convert"
	"regift/internal/logging"
	"regift/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Converter runs one conversion. *convert.Converter implements it.
type Converter interface {
	Convert(ctx context.Context, req convert.Request) (string, error)
}

// Server is the regift HTTP API.
type Server struct {
	bind      string
	cfg       *config.Config
	converter Converter
	history   *HistoryService
	metrics   *metrics.Metrics
	logger    *slog.Logger
	handler   http.Handler

	listener net.Listener
	server   *http.Server
}

// NewServer builds the router. hist and m may be nil.
func NewServer(cfg *config.Config, conv Converter, hist HistoryReader, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: config is required")
	}
	if conv == nil {
		return nil, errors.New("api: converter is required")
	}
	bind := strings.TrimSpace(cfg.API.Bind)
	if bind == "" {
		return nil, errors.New("api: bind address is empty")
	}

	s := &Server{
		bind:      bind,
		cfg:       cfg,
		converter: conv,
		history:   NewHistoryService(hist),
		metrics:   m,
		logger:    logging.NewComponentLogger(logger, "api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(metrics.RequestMiddleware(m))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware(strings.TrimSpace(cfg.API.Token)))
		r.Post("/conversions", s.handleConvert)
		r.Get("/conversions", s.handleHistory)
		r.Get("/conversions/{id}", s.handleHistoryItem)
	})
	s.handler = r

	writeTimeout := cfg.Conversion.Timeout() + 30*time.Second
	s.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the router for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	if s == nil || s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, kind string) {
	s.writeJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}
