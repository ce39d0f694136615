package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docchunk/internal/api"
	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/pathstore"
	"github.com/dgallion1/docchunk/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize the chunk sink, if configured.
	var ps *pathstore.Client
	if cfg.SinkEnabled() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	} else {
		log.Warn("PATHSTORE_URL not set, chunks are kept in memory only")
	}

	// Initialize pipeline. Workers outlive the signal context so queued
	// jobs keep running until Stop.
	stats := pipeline.NewProcessingStats(time.Hour)
	orch := pipeline.NewOrchestrator(cfg, ps, stats, log)
	orch.Start(context.Background())

	// Initialize HTTP server.
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		log.Error("listen", "addr", httpServer.Addr, "error", err)
		orch.Stop()
		os.Exit(1)
	}

	log.Info("starting docchunk",
		"port", cfg.Port,
		"target_words", cfg.TargetWords,
		"overlap_words", cfg.OverlapWords,
		"sink_enabled", cfg.SinkEnabled(),
	)
	if err := serve(ctx, httpServer, ln, orch, ps, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// serve runs srv on ln until ctx is done. It then stops accepting
// requests, waits for in-flight ones, stops the pipeline and closes the
// sink, and only returns once all of that has finished.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, orch *pipeline.Orchestrator, ps *pathstore.Client, log *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	var serveErr error
	select {
	case err := <-errCh:
		serveErr = err
	case <-ctx.Done():
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
		cancel()
		serveErr = <-errCh
	}

	orch.Stop()
	if ps != nil {
		ps.Close()
	}

	if errors.Is(serveErr, http.ErrServerClosed) {
		return nil
	}
	return serveErr
}
