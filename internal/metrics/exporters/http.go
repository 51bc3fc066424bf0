// Package exporters provides the Prometheus HTTP exporter for the
// sound console daemons.
package exporters

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundbox/soundbox/internal/logging"
)

// HTTPHandler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}

// Server serves the metrics handler on a dedicated listener.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a metrics server for the given address.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", HTTPHandler())

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logging.GetLogger("metrics"),
	}
}

// Start serves until Stop is called. It returns http.ErrServerClosed
// after a clean Stop.
func (s *Server) Start() error {
	s.logger.Info("Starting metrics exporter", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop closes the listener.
func (s *Server) Stop() error {
	s.logger.Info("Stopping metrics exporter")
	return s.httpServer.Close()
}
