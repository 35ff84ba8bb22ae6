// Package recorder persists score runs and digest deliveries for later analysis.
package recorder

import (
	"context"
	"time"

	"SSPCommandCenter/internal/model"
)

// Digest delivery statuses.
const (
	DigestSent    = "sent"
	DigestFailed  = "failed"
	DigestSkipped = "skipped"
	DigestDryRun  = "dry_run"
)

// DigestEvent records one digest delivery attempt.
type DigestEvent struct {
	RunID  string
	SentAt time.Time
	Status string
	Items  int
	Title  string
	Body   string
	Error  string
}

// Recorder persists historical data.
type Recorder interface {
	RecordRun(ctx context.Context, run *model.ScoreRun) error
	// LatestRun returns the most recent run, or nil when nothing has been recorded.
	LatestRun(ctx context.Context) (*model.ScoreRun, error)
	RecordDigest(ctx context.Context, evt *DigestEvent) error
	Close() error
}
