package recorder

import (
	"context"

	"SSPCommandCenter/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, _ *model.ScoreRun) error { return nil }
func (n *NoopRecorder) LatestRun(_ context.Context) (*model.ScoreRun, error) { return nil, nil }
func (n *NoopRecorder) RecordDigest(_ context.Context, _ *DigestEvent) error { return nil }
func (n *NoopRecorder) Close() error                                         { return nil }
