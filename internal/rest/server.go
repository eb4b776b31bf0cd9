// Package rest provides the read-only HTTP query surface.
package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/xecut-space/xecut-bot/internal/backend"
	"github.com/xecut-space/xecut-bot/internal/logging"
	"github.com/xecut-space/xecut-bot/internal/visit"
)

// Server exposes occupancy over HTTP.
type Server struct {
	backend backend.Backend
	handler http.Handler
}

// NewServer creates the REST server.
func NewServer(b backend.Backend) *Server {
	s := &Server{backend: b}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /checked_in_count", s.handleCheckedInCount)
	s.handler = logging.RequestLogger(mux)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving rest api: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down rest api: %w", err)
	}

	return nil
}

// handleCheckedInCount returns how many people are checked in today, as
// plain text. Internal failures map to a bare 500; details are only logged.
func (s *Server) handleCheckedInCount(w http.ResponseWriter, r *http.Request) {
	today := visit.Today()

	visits, err := s.backend.GetVisits(r.Context(), today, today)
	if err != nil {
		slog.Error("rest api error", "error", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	count := 0
	for _, v := range visits {
		if v.Status == visit.CheckedIn {
			count++
		}
	}

	fmt.Fprintf(w, "%d", count)
}
