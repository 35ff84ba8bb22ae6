package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SSPCommandCenter/internal/logger"
	"SSPCommandCenter/internal/model"
)

func newTestNotifier(url string) *TeamsNotifier {
	n := NewTeamsNotifier(url, "", logger.NewNop())
	n.Backoff = time.Millisecond
	return n
}

func TestSend_PostsMessageCard(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "Daily Territory Digest", "hello"))
	assert.Equal(t, map[string]string{
		"@type":      "MessageCard",
		"@context":   "https://schema.org/extensions",
		"summary":    "Daily Territory Digest",
		"themeColor": "0072C6",
		"title":      "Daily Territory Digest",
		"text":       "hello",
	}, got)
}

func TestSend_NotConfigured(t *testing.T) {
	n := newTestNotifier("")
	assert.False(t, n.Enabled())
	assert.ErrorIs(t, n.Send(context.Background(), "t", "x"), ErrNotConfigured)
	assert.ErrorIs(t, n.SendWithRetry(context.Background(), "t", "x", 3), ErrNotConfigured)
}

func TestSendWithRetry_RecoversAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).SendWithRetry(context.Background(), "t", "x", 3))
	assert.EqualValues(t, 3, calls.Load())
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).SendWithRetry(context.Background(), "t", "x", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Contains(t, err.Error(), "status 500")
	assert.EqualValues(t, 3, calls.Load())
}

func TestSendWithRetry_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	n.Backoff = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, n.SendWithRetry(ctx, "t", "x", 3), context.DeadlineExceeded)
}

func score(v int) *int { return &v }

func TestFormatDigest(t *testing.T) {
	run := &model.ScoreRun{Results: []model.OpportunityScore{
		{Name: "Ohio Health", State: "OH", Stage: model.StageProspect, Amount: 250000, Score: score(82)},
		{Name: "Won deal", State: "GA", Stage: model.StageCloseWon, Amount: 900000, Score: score(99)},
		{Name: "Broken", State: "AL", Stage: model.StageDevelop, Amount: 100000, Error: "config"},
		{Name: "State of TN", State: "TN", Stage: model.StagePropose, Amount: 1234567.4, Score: score(76), Tags: []string{"RFP"}},
		{Name: "MI DOT", State: "MI", Stage: model.StageDevelop, Amount: 175000, Score: score(71)},
	}}

	d := FormatDigest(run, 5)
	assert.Equal(t, "Daily Territory Digest", d.Title)
	assert.Equal(t, 4, d.Items)
	assert.Equal(t, "Top Opportunities:\n"+
		"1) Ohio Health (OH) - Heat 82 - $250,000 - Action: Schedule discovery\n"+
		"2) State of TN (TN) - Heat 76 - $1,234,567 - Action: Review RFP\n"+
		"3) MI DOT (MI) - Heat 71 - $175,000 - Action: Align solution plays\n"+
		"4) Broken (AL) - Heat unavailable - $100,000 - Action: Align solution plays", d.Text)

	top := FormatDigest(run, 2)
	assert.Equal(t, 2, top.Items)
	assert.NotContains(t, top.Text, "MI DOT")
}

func TestFormatDigest_Empty(t *testing.T) {
	d := FormatDigest(nil, 5)
	assert.Zero(t, d.Items)
	assert.Equal(t, "No open opportunities to report.", d.Text)

	closed := &model.ScoreRun{Results: []model.OpportunityScore{{Stage: model.StageCloseLost, Score: score(3)}}}
	assert.Zero(t, FormatDigest(closed, 5).Items)
}

func TestFormatDigest_TiesBreakOnAmountThenName(t *testing.T) {
	run := &model.ScoreRun{Results: []model.OpportunityScore{
		{Name: "b", Stage: model.StageQualify, Amount: 100, Score: score(10)},
		{Name: "a", Stage: model.StageQualify, Amount: 100, Score: score(10)},
		{Name: "c", Stage: model.StageQualify, Amount: 500, Score: score(10)},
	}}
	d := FormatDigest(run, 3)
	assert.Equal(t, "Top Opportunities:\n"+
		"1) c () - Heat 10 - $500 - Action: Confirm budget and timeline\n"+
		"2) a () - Heat 10 - $100 - Action: Confirm budget and timeline\n"+
		"3) b () - Heat 10 - $100 - Action: Confirm budget and timeline", d.Text)
}

func TestNextAction(t *testing.T) {
	tests := map[model.Stage]string{
		model.StageProspect: "Schedule discovery",
		model.StageQualify:  "Confirm budget and timeline",
		model.StageDevelop:  "Align solution plays",
		model.StagePropose:  "Review proposal",
	}
	for stage, want := range tests {
		assert.Equal(t, want, NextAction(&model.OpportunityScore{Stage: stage}), stage)
	}
	assert.Equal(t, "Review RFP", NextAction(&model.OpportunityScore{Stage: model.StageProspect, Tags: []string{"Azure", "RFP"}}))
}
