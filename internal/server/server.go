// Package server exposes LFService over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lostfound/internal/lf"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front end of the lost-and-found service.
type Server struct {
	svc    *lf.LFService
	logger lf.Logger
	router *chi.Mux
}

// New builds the router and registers every endpoint.
func New(svc *lf.LFService, logger lf.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors)

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/history", s.handleHistory)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleSearchItems)
			r.Post("/", s.handleCreateItem)
			r.Get("/next-lp", s.handleNextLP)
			r.Get("/{id}", s.handleGetItem)
			r.Put("/{id}", s.handleUpdateItem)
			r.Delete("/{id}", s.handleDeleteItem)
			r.Post("/{id}/toggle", s.handleToggleStatus)
		})

		r.Route("/backups", func(r chi.Router) {
			r.Get("/", s.handleListBackups)
			r.Post("/", s.handleCreateBackup(lf.KindManual))
			r.Post("/auto", s.handleCreateBackup(lf.KindAutomatic))
			r.Post("/{filename}/restore", s.handleRestoreBackup)
			r.Delete("/{filename}", s.handleDeleteBackup)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/excel", s.handleExportExcel)
			r.Get("/label/{id}", s.handleExportLabel)
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrapf(err, "listening on %s", addr)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down http server")
	}
	s.logger.Info("http server stopped")
	return nil
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
