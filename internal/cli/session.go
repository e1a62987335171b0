package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/engine"
	"github.com/roach88/pulsenet/internal/metrics"
	"github.com/roach88/pulsenet/internal/store"
)

// signalContext derives a context from the command's that is cancelled on
// SIGINT or SIGTERM. The returned stop function must be called.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, func()) {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// simSession holds the optional outputs shared by run and watch: the
// Prometheus endpoint and the SQLite run log.
type simSession struct {
	logger  *slog.Logger
	metrics *metricsServer
	store   *store.Store
	runLog  *store.RunLog
	opts    []engine.SimulatorOption
}

// openSession starts the metrics server if metricsAddr is set and opens
// the run log if dbPath is set. close must be called even on error.
func openSession(circuit *Circuit, dbPath, metricsAddr string, logger *slog.Logger) (*simSession, error) {
	s := &simSession{
		logger: logger,
		opts:   []engine.SimulatorOption{engine.WithLogger(logger)},
	}

	if dbPath != "" {
		logger.Info("opening run log", "path", dbPath)
		st, err := store.Open(dbPath)
		if err != nil {
			return s, &LoadError{Code: ErrCodeDatabase, Message: "failed to open run log", Err: err}
		}
		s.store = st
		s.runLog = store.NewRunLog(store.DefaultRunLogTriggers)
		s.opts = append(s.opts, engine.WithObserver(s.runLog))
	}

	if metricsAddr != "" {
		promReg := prometheus.NewRegistry()
		collector, err := metrics.NewCollector(promReg, filepath.Base(circuit.Path))
		if err != nil {
			return s, err
		}
		srv, err := startMetricsServer(metricsAddr, promReg, logger)
		if err != nil {
			return s, err
		}
		s.metrics = srv
		s.opts = append(s.opts, engine.WithObserver(collector))
	}

	return s, nil
}

func (s *simSession) close() {
	if s.metrics != nil {
		if err := s.metrics.Shutdown(); err != nil {
			s.logger.Error("error stopping metrics server", "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("error closing run log", "error", err)
		}
	}
}

// failSession reports a session start error as a command error.
func failSession(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code = loadErr.Code
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to start", err)
}
