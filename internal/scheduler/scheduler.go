// Package scheduler runs score recomputes and digest deliveries on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"SSPCommandCenter/internal/collector"
	"SSPCommandCenter/internal/logger"
	"SSPCommandCenter/internal/metrics"
	"SSPCommandCenter/internal/model"
	"SSPCommandCenter/internal/notifier"
	"SSPCommandCenter/internal/recorder"
	"SSPCommandCenter/internal/scoring"
)

// WeightsLoader supplies the scoring weights. *weights.Loader implements it.
type WeightsLoader interface {
	Load() (*model.ScoringWeights, error)
	Source() string
}

// Notifier delivers a digest. *notifier.TeamsNotifier implements it.
type Notifier interface {
	Enabled() bool
	SendWithRetry(ctx context.Context, title, text string, maxRetries int) error
}

// Options tunes a Scheduler.
type Options struct {
	Workers      int
	SignalWindow time.Duration // <= 0 keeps signals of any age
	DigestSize   int
	MaxRetries   int
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron      *cron.Cron
	collector *collector.Collector
	weights   WeightsLoader
	notifier  Notifier
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	log       logger.Logger
	opts      Options
	ctx       context.Context
	now       func() time.Time

	mu      sync.RWMutex
	lastRun *model.ScoreRun
}

// NewScheduler creates a new Scheduler. Tasks run with ctx; cancel it to abort them.
func NewScheduler(
	ctx context.Context,
	col *collector.Collector,
	wl WeightsLoader,
	n Notifier,
	rec recorder.Recorder,
	m *metrics.Metrics,
	log logger.Logger,
	opts Options,
) *Scheduler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.DigestSize < 1 {
		opts.DigestSize = 5
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl))),
		collector: col,
		weights:   wl,
		notifier:  n,
		recorder:  rec,
		metrics:   m,
		log:       log,
		opts:      opts,
		ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterAll registers the recompute and digest tasks (six-field cron specs).
func (s *Scheduler) RegisterAll(recomputeCron, digestCron string) error {
	if _, err := s.cron.AddFunc(recomputeCron, s.recomputeTask); err != nil {
		return fmt.Errorf("register recompute task: %w", err)
	}
	if _, err := s.cron.AddFunc(digestCron, s.digestTask); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", logger.Int("tasks", len(s.cron.Entries())))
}

// Stop stops the cron scheduler and waits for running tasks to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// LastRun returns the most recent run of this process, or nil.
func (s *Scheduler) LastRun() *model.ScoreRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// LatestRun returns the in-memory last run, falling back to the recorder.
func (s *Scheduler) LatestRun(ctx context.Context) (*model.ScoreRun, error) {
	if run := s.LastRun(); run != nil {
		return run, nil
	}
	return s.recorder.LatestRun(ctx)
}

// Recompute scores every collected opportunity against its relevant signals.
// A weights configuration failure does not fail the run: every result is marked
// unavailable and the failure is logged at error level.
func (s *Scheduler) Recompute(ctx context.Context) (*model.ScoreRun, error) {
	started := s.now()
	batch, err := s.collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	s.metrics.ObserveTags(batch.TagCounts)

	var engine *scoring.Engine
	w, wErr := s.weights.Load()
	if wErr != nil {
		s.log.Error("scoring weights unavailable, scores marked unavailable",
			logger.String("weights_source", s.weights.Source()),
			logger.Error(wErr),
		)
	} else {
		engine = scoring.NewEngine(w)
	}

	run := &model.ScoreRun{
		ID:            uuid.NewString(),
		StartedAt:     started,
		WeightsSource: s.weights.Source(),
		Results:       make([]model.OpportunityScore, len(batch.Opportunities)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range batch.Opportunities {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run.Results[i] = s.scoreOne(engine, wErr, &batch.Opportunities[i], batch.Signals, started)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score opportunities: %w", err)
	}
	run.FinishedAt = s.now()
	elapsed := run.FinishedAt.Sub(started)
	s.metrics.ObserveRecompute(elapsed, run.FinishedAt)

	if err := s.recorder.RecordRun(ctx, run); err != nil {
		s.log.Error("record score run", logger.String("run_id", run.ID), logger.Error(err))
	}

	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()

	s.log.Info("recompute finished",
		logger.String("run_id", run.ID),
		logger.Int("opportunities", len(run.Results)),
		logger.Int("signals", len(batch.Signals)),
		logger.Int("unavailable", run.Failures()),
		logger.Duration("duration", elapsed),
	)
	return run, nil
}

func (s *Scheduler) scoreOne(engine *scoring.Engine, wErr error, opp *model.Opportunity, signals []model.Signal, now time.Time) model.OpportunityScore {
	out := model.OpportunityScore{
		OpportunityID: opp.ID,
		AccountID:     opp.AccountID,
		Name:          opp.Name,
		State:         opp.State,
		Stage:         opp.Stage,
		Amount:        opp.Amount,
		CoSell:        opp.CoSell,
	}
	if wErr != nil {
		out.Error = wErr.Error()
		s.metrics.ObserveScore(metrics.ResultUnavailable)
		return out
	}

	relevant := collector.RelevantSignals(opp, signals, now, s.opts.SignalWindow)
	res, err := engine.Evaluate(opp, relevant)
	if err != nil {
		out.Error = err.Error()
		s.metrics.ObserveScore(metrics.ResultInvalid)
		s.log.Warn("opportunity not scored",
			logger.String("opportunity_id", opp.ID),
			logger.Error(err),
		)
		return out
	}
	score := res.Score
	out.Score = &score
	out.SignalCount = res.SignalCount
	out.Tags = res.Tags
	s.metrics.ObserveScore(metrics.ResultOK)
	return out
}

// SendDigest formats the last run (recomputing when there is none) and delivers it.
// With dryRun the digest is only formatted and recorded. Without a configured
// notifier the digest is skipped, which is not an error.
func (s *Scheduler) SendDigest(ctx context.Context, dryRun bool) (*notifier.Digest, error) {
	run := s.LastRun()
	if run == nil {
		var err error
		if run, err = s.Recompute(ctx); err != nil {
			return nil, fmt.Errorf("recompute for digest: %w", err)
		}
	}

	digest := notifier.FormatDigest(run, s.opts.DigestSize)
	evt := &recorder.DigestEvent{
		RunID:  run.ID,
		SentAt: s.now(),
		Items:  digest.Items,
		Title:  digest.Title,
		Body:   digest.Text,
	}

	var sendErr error
	switch {
	case dryRun:
		evt.Status = recorder.DigestDryRun
	case s.notifier == nil || !s.notifier.Enabled():
		evt.Status = recorder.DigestSkipped
		s.log.Info("teams webhook not configured, digest skipped")
	default:
		sendErr = s.notifier.SendWithRetry(ctx, digest.Title, digest.Text, s.opts.MaxRetries)
		if sendErr != nil {
			evt.Status = recorder.DigestFailed
			evt.Error = sendErr.Error()
		} else {
			evt.Status = recorder.DigestSent
		}
	}
	s.metrics.ObserveDigest(evt.Status)

	if err := s.recorder.RecordDigest(ctx, evt); err != nil {
		s.log.Error("record digest", logger.String("run_id", run.ID), logger.Error(err))
	}
	if sendErr != nil {
		return digest, fmt.Errorf("send digest: %w", sendErr)
	}
	s.log.Info("digest processed",
		logger.String("run_id", run.ID),
		logger.String("status", evt.Status),
		logger.Int("items", digest.Items),
	)
	return digest, nil
}

func (s *Scheduler) recomputeTask() {
	if _, err := s.Recompute(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("scheduled recompute failed", logger.Error(err))
	}
}

// digestTask recomputes first so the digest reflects current data.
func (s *Scheduler) digestTask() {
	if _, err := s.Recompute(s.ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Error("recompute before digest failed", logger.Error(err))
		}
		return
	}
	if _, err := s.SendDigest(s.ctx, false); err != nil {
		s.log.Error("scheduled digest failed", logger.Error(err))
	}
}

// RunRecomputeNow executes the recompute task immediately (RUN_ON_START).
func (s *Scheduler) RunRecomputeNow() {
	s.recomputeTask()
}
