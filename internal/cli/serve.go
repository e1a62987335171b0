package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsServer serves /metrics and /healthz while a command runs.
type metricsServer struct {
	srv    *http.Server
	ln     net.Listener
	done   chan error
	logger *slog.Logger
}

// newMetricsHandler routes the scrape and health endpoints.
func newMetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// startMetricsServer listens on addr and serves gatherer in the background.
func startMetricsServer(addr string, gatherer prometheus.Gatherer, logger *slog.Logger) (*metricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	m := &metricsServer{
		srv: &http.Server{
			Handler:           newMetricsHandler(gatherer),
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:     ln,
		done:   make(chan error, 1),
		logger: logger,
	}
	go func() {
		m.done <- m.srv.Serve(ln)
	}()

	logger.Info("serving metrics", "addr", m.Addr())
	return m, nil
}

// Addr returns the address the server is listening on.
func (m *metricsServer) Addr() string {
	return m.ln.Addr().String()
}

// Shutdown stops the server, waiting up to five seconds for scrapes in flight.
func (m *metricsServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.srv.Shutdown(ctx); err != nil {
		return err
	}
	if err := <-m.done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	m.logger.Debug("metrics server stopped")
	return nil
}
