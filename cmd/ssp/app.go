package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"SSPCommandCenter/internal/collector"
	"SSPCommandCenter/internal/config"
	"SSPCommandCenter/internal/logger"
	"SSPCommandCenter/internal/metrics"
	"SSPCommandCenter/internal/notifier"
	"SSPCommandCenter/internal/recorder"
	"SSPCommandCenter/internal/scheduler"
	"SSPCommandCenter/internal/weights"
)

const digestRetries = 3

// app holds the wired service components shared by the subcommands.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	loader   *weights.Loader
	recorder recorder.Recorder
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	notifier *notifier.TeamsNotifier
	sched    *scheduler.Scheduler
}

func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(opts.resolveConfigPath(cmd))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newApp(ctx context.Context, cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, log, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		loader:   weights.NewLoader(weights.SourceFor(cfg.Scoring.WeightsPath)),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", logger.Error(err))
			a.recorder = recorder.NewNoopRecorder()
		} else {
			a.recorder = sr
		}
	} else {
		a.recorder = recorder.NewNoopRecorder()
	}

	a.notifier = notifier.NewTeamsNotifier(cfg.Teams.WebhookURL, cfg.Proxy, log)
	col := collector.NewCollector(collector.NewFileSource(cfg.Data.Dir), log)
	a.sched = scheduler.NewScheduler(ctx, col, a.loader, a.notifier, a.recorder, a.metrics, log, scheduler.Options{
		Workers:      cfg.Scoring.Workers,
		SignalWindow: time.Duration(cfg.Scoring.SignalWindowDays) * 24 * time.Hour,
		DigestSize:   cfg.Teams.DigestSize,
		MaxRetries:   digestRetries,
	})

	log.Debug("service wired",
		logger.String("weights_source", a.loader.Source()),
		logger.String("data_dir", cfg.Data.Dir),
		logger.Bool("teams_enabled", a.notifier.Enabled()),
	)
	return a, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		a.log.Warn("close recorder", logger.Error(err))
	}
	_ = a.log.Sync()
}
