// Package web provides the HTTP API for searching the catalog and managing
// favourites.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/evcraddock/havenrise/internal/favourites"
	"github.com/evcraddock/havenrise/internal/logging"
	"github.com/evcraddock/havenrise/internal/metrics"
	"github.com/evcraddock/havenrise/internal/property"
	"github.com/evcraddock/havenrise/internal/transfer"
)

// Deps are the components the server exposes.
type Deps struct {
	Catalog     *property.Store
	Favourites  *favourites.Store
	Transfer    *transfer.Protocol
	Metrics     *metrics.Metrics // optional
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server is the API HTTP server.
type Server struct {
	catalog    *property.Store
	favourites *favourites.Store
	transfer   *transfer.Protocol
	metrics    *metrics.Metrics
	logger     *slog.Logger
	router     chi.Router
}

// NewServer creates a server over deps.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		catalog:    deps.Catalog,
		favourites: deps.Favourites,
		transfer:   deps.Transfer,
		metrics:    deps.Metrics,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, logging.RequestLogger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", logging.RequestIDHeader},
		ExposedHeaders: []string{logging.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/properties", s.apiSearchProperties)
		r.Get("/properties/{id}", s.apiGetProperty)

		r.Get("/favourites", s.apiListFavourites)
		r.Post("/favourites", s.apiAddFavourite)
		r.Delete("/favourites", s.apiClearFavourites)
		r.Delete("/favourites/{id}", s.apiRemoveFavourite)

		r.Post("/transfer/start", s.apiTransferStart)
		r.Post("/transfer/drop/{target}", s.apiTransferDrop)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on port until ctx is cancelled, then shuts down,
// waiting up to shutdownTimeout for in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, port int, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "addr", "http://localhost"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down API server", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
