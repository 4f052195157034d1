// Command undomgrd runs the undo request manager as a standalone daemon:
// it restores any previously persisted requests, hands them to a pool of
// undo workers, and serves Prometheus metrics and health endpoints until
// told to stop.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cuemby/undomgr/pkg/config"
	"github.com/cuemby/undomgr/pkg/log"
	"github.com/cuemby/undomgr/pkg/metrics"
	"github.com/cuemby/undomgr/pkg/persistence"
	"github.com/cuemby/undomgr/pkg/undo"
	"github.com/cuemby/undomgr/pkg/undoworker"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "undomgrd",
	Short:   "undomgrd runs the background undo request manager",
	Version: Version,
	RunE:    run,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("undomgrd version %s\nCommit: %s\n", Version, Commit))
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (optional, defaults are used if omitted)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
	boot := log.WithComponent("undomgrd")
	metrics.SetVersion(Version)

	store, err := persistence.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open persistence store: %w", err)
	}
	defer store.Close()

	loadTimer := metrics.NewTimer()
	blob, err := store.Load()
	loadTimer.ObserveDuration(metrics.PersistenceLoadDuration)
	if err != nil {
		metrics.PersistenceErrorsTotal.WithLabelValues("load").Inc()
		return fmt.Errorf("load persisted state: %w", err)
	}

	mgrMetrics := undo.NewMetrics(prometheus.DefaultRegisterer)

	mgr := undo.New(undo.Config{
		Capacity:  cfg.Capacity,
		SoftLimit: cfg.SoftLimit,
		Lock:      &sync.Mutex{},
		RetryPolicy: undo.RetryPolicy{
			FirstDelay:      cfg.RetryFirstDelay,
			SubsequentDelay: cfg.RetrySubsequentDelay,
		},
		Metrics: mgrMetrics,
	})

	if len(blob) > 0 {
		if err := mgr.Restore(blob); err != nil {
			return fmt.Errorf("restore persisted state: %w", err)
		}
		boot.Info().Int("bytes", len(blob)).Msg("restored undo requests from disk")
	}

	pool := undoworker.New(undoworker.Config{
		Manager:  mgr,
		Workers:  cfg.Workers,
		UndoFunc: applyUndo,
	})
	pool.Start()
	boot.Info().Int("workers", cfg.Workers).Msg("undo worker pool started")

	collector := metrics.NewCollector(map[string]metrics.PingFunc{
		"persistence": func() (bool, string) {
			if err := store.Ping(); err != nil {
				return false, err.Error()
			}
			return true, ""
		},
		"undoworker": func() (bool, string) {
			if !pool.Running() {
				return false, "worker pool stopped"
			}
			return true, ""
		},
	})
	collector.Start()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())

	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()
	boot.Info().Str("addr", cfg.ListenAddr).Msg("metrics and health endpoints listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		boot.Info().Msg("shutdown signal received")
	case err := <-errCh:
		boot.Error().Err(err).Msg("serving error")
	}

	collector.Stop()
	pool.Stop()
	_ = server.Shutdown(context.Background())

	saveTimer := metrics.NewTimer()
	if err := store.Save(mgr.Serialize()); err != nil {
		metrics.PersistenceErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("save state on shutdown: %w", err)
	}
	saveTimer.ObserveDuration(metrics.PersistenceSaveDuration)

	boot.Info().Msg("shutdown complete")
	return nil
}

// applyUndo is a placeholder hand-off point: a real deployment wires this
// to the storage engine's undo-log replay routine. Left here as the one
// function a caller embeds undomgrd against.
func applyUndo(ctx context.Context, req *undo.Request) error {
	return fmt.Errorf("undomgrd: no UndoFunc configured for fxid %d", req.Fxid)
}
