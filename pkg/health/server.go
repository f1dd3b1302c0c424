package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xythum/darkpool-relayer/pkg/circuitbreaker"
	"github.com/xythum/darkpool-relayer/pkg/logger"
)

// StatusProvider reports relayer state for the status and readiness endpoints
type StatusProvider interface {
	Status(ctx context.Context) map[string]interface{}
	Ready(ctx context.Context) error
}

// Server represents a health check HTTP server
type Server struct {
	port            string
	provider        StatusProvider
	circuitBreakers map[string]*circuitbreaker.CircuitBreaker
	metricsAPIKey   string
	logger          logger.Logger
}

// NewServer creates a new health check server
func NewServer(port, metricsAPIKey string, provider StatusProvider, circuitBreakers map[string]*circuitbreaker.CircuitBreaker, log logger.Logger) *Server {
	return &Server{
		port:            port,
		provider:        provider,
		circuitBreakers: circuitBreakers,
		metricsAPIKey:   metricsAPIKey,
		logger:          log,
	}
}

// metricsAuthMiddleware is a middleware that checks for a valid API key
func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.metricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		if parts[1] != s.metricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := s.provider.Ready(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
		status := s.provider.Status(req.Context())

		circuits := make(map[string]interface{}, len(s.circuitBreakers))
		for chain, cb := range s.circuitBreakers {
			failures, lastFailure, window, threshold := cb.GetState()
			state := "closed"
			if cb.IsOpen() {
				state = "open"
			}
			entry := map[string]interface{}{
				"state":     state,
				"enabled":   cb.IsEnabled(),
				"failures":  failures,
				"threshold": threshold,
				"window":    window.String(),
			}
			if !lastFailure.IsZero() {
				entry["last_failure"] = lastFailure.UTC().Format(time.RFC3339)
			}
			circuits[chain] = entry
		}
		status["circuits"] = circuits

		s.writeJSON(w, http.StatusOK, status)
	}).Methods(http.MethodGet)

	// Circuit breaker admin control endpoint
	r.HandleFunc("/circuit/reset", func(w http.ResponseWriter, req *http.Request) {
		chain := req.URL.Query().Get("chain")
		if chain == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("Missing chain parameter"))
			return
		}

		cb, ok := s.circuitBreakers[chain]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(fmt.Sprintf("No circuit breaker for chain %s", chain)))
			return
		}

		cb.Reset()
		s.logger.Notice("Circuit breaker for %s reset via admin endpoint", chain)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf("Circuit breaker for %s reset", chain)))
	}).Methods(http.MethodPost)

	// Expose Prometheus metrics with API key authentication
	r.Handle("/metrics", s.metricsAuthMiddleware(promhttp.Handler()))

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(r)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Error encoding status JSON: %v", err)
	}
}

// Start serves until ctx is done
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Notice("Starting health and metrics server on port %s", s.port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
