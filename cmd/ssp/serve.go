package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"SSPCommandCenter/internal/api"
	"SSPCommandCenter/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and the HTTP API",
		Long: `Run the recompute and digest cron tasks and serve the HTTP API until SIGINT or SIGTERM.

Set RUN_ON_START=true to recompute immediately after startup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *rootOptions) error {
	a, err := newApp(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	// Scores cannot be computed without weights; refuse to start.
	if _, err := a.loader.Load(); err != nil {
		log.Error("scoring weights unavailable", logger.Error(err))
		return err
	}

	if err := a.sched.RegisterAll(a.cfg.Schedule.RecomputeCron, a.cfg.Schedule.DigestCron); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	a.sched.Start()
	defer a.sched.Stop()

	// Deferred after Close, so the startup recompute finishes before the recorder closes.
	var startup sync.WaitGroup
	defer startup.Wait()
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, recomputing now")
		startup.Add(1)
		go func() {
			defer startup.Done()
			a.sched.RunRecomputeNow()
		}()
	}

	srv := api.New(a.loader, a.sched, a.metrics, a.registry, log)
	httpSrv := api.NewHTTPServer(a.cfg.Server.ListenAddr, srv.Routes())
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("listening", logger.String("addr", a.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", logger.Error(err))
	}
	log.Info("ssp stopped")
	return nil
}
