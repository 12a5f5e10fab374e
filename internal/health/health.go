// Package health serves the liveness probe and the metrics endpoint.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/mediabot/core/buildinfo"
	"github.com/m3rciful/mediabot/core/logger"
)

const component = "health"

// Server is a small HTTP server for /healthz and, optionally, /metrics.
type Server struct {
	srv *http.Server
}

// New builds the server. metrics may be nil to skip the /metrics route.
func New(addr string, metrics http.Handler) *Server {
	mux := http.NewServeMux()
	mux.Handle("/healthz", Handler())
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Handler answers GET /healthz with {"status":"alive"}.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		body, _ := json.Marshal(map[string]string{
			"status":  "alive",
			"version": buildinfo.Version,
		})
		_, _ = w.Write(body)
	})
}

// Start binds the listener and serves in the background.
// Bind errors are returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("health: listen %s: %w", s.srv.Addr, err)
	}
	logger.Info(ctx, component, "health.listen", slog.String("listen", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, component, "health.serve.fail", slog.String("err", err.Error()))
		}
	}()
	return nil
}

// Shutdown stops the server, waiting up to 5 seconds for open requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
