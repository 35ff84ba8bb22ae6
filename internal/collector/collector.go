// Package collector gathers opportunities and market signals for a recompute.
package collector

import (
	"context"
	"fmt"
	"slices"
	"time"

	"SSPCommandCenter/internal/logger"
	"SSPCommandCenter/internal/model"
	"SSPCommandCenter/internal/tagger"
)

// Batch is the input of one recompute.
type Batch struct {
	Opportunities []model.Opportunity
	Signals       []model.Signal
	// TaggedCount is the number of signals annotated during this collect.
	TaggedCount int
	// TagCounts counts the tags assigned during this collect.
	TagCounts map[string]int
}

// Collector orchestrates data fetching and ingestion-time tagging.
type Collector struct {
	Source Source
	log    logger.Logger
}

// NewCollector creates a new Collector.
func NewCollector(src Source, log logger.Logger) *Collector {
	return &Collector{Source: src, log: log.With(logger.String("source", src.Name()))}
}

// Collect fetches opportunities and signals and tags every signal that has no tags yet.
// The source's slices are never modified.
func (c *Collector) Collect(ctx context.Context) (*Batch, error) {
	opps, err := c.Source.FetchOpportunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch opportunities: %w", err)
	}
	signals, err := c.Source.FetchSignals(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch signals: %w", err)
	}

	b := &Batch{
		Opportunities: slices.Clone(opps),
		Signals:       slices.Clone(signals),
		TagCounts:     map[string]int{},
	}
	for i := range b.Signals {
		s := &b.Signals[i]
		if !tagger.Tag(s) {
			continue
		}
		b.TaggedCount++
		for _, tag := range s.Tags {
			b.TagCounts[tag]++
		}
	}

	c.log.Debug("collected batch",
		logger.Int("opportunities", len(b.Opportunities)),
		logger.Int("signals", len(b.Signals)),
		logger.Int("tagged", b.TaggedCount),
	)
	return b, nil
}

// RelevantSignals selects the signals that apply to opp: same account, or no account
// and the same state, or neither (territory-wide). Signals created more than window
// before now are dropped; signals without a creation time are kept. A window of zero or
// less disables the age check.
func RelevantSignals(opp *model.Opportunity, signals []model.Signal, now time.Time, window time.Duration) []model.Signal {
	var out []model.Signal
	for _, s := range signals {
		if !appliesTo(opp, &s) {
			continue
		}
		if window > 0 && !s.CreatedAt.IsZero() && now.Sub(s.CreatedAt) > window {
			continue
		}
		out = append(out, s)
	}
	return out
}

func appliesTo(opp *model.Opportunity, s *model.Signal) bool {
	switch {
	case s.AccountID != "":
		return s.AccountID == opp.AccountID
	case s.State != "":
		return s.State == opp.State
	default:
		return true
	}
}
