package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SSPCommandCenter/internal/logger"
	"SSPCommandCenter/internal/metrics"
	"SSPCommandCenter/internal/model"
	"SSPCommandCenter/internal/weights"
)

const scenarioWeights = `{"base": 10, "signalWeights": {"RFP": 5},
  "opportunity": {"amountMultiplier": 2, "stageBoosts": {"Prospect": 0, "Propose": 20}, "coSellBoost": 15},
  "tags": {"Modernization": 3}}`

type stubRuns struct {
	run *model.ScoreRun
	err error
}

func (s stubRuns) LatestRun(context.Context) (*model.ScoreRun, error) { return s.run, s.err }

type fixture struct {
	srv *httptest.Server
	m   *metrics.Metrics
}

func newFixture(t *testing.T, weightsDoc string, runs RunStore) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	loader := weights.NewLoader(weights.BytesSource{Label: "scenario.json", Data: []byte(weightsDoc)})
	s := New(loader, runs, m, reg, logger.NewNop())
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, m: m}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, scenarioWeights, stubRuns{})
	code, body := f.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestGetWeights(t *testing.T) {
	f := newFixture(t, scenarioWeights, stubRuns{})
	code, body := f.do(t, http.MethodGet, "/v1/weights", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 10, body["base"])
	opp := body["opportunity"].(map[string]any)
	assert.EqualValues(t, 15, opp["coSellBoost"])
}

func TestGetWeights_ConfigurationError(t *testing.T) {
	f := newFixture(t, `{"opportunity": {}}`, stubRuns{})
	code, body := f.do(t, http.MethodGet, "/v1/weights", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body["error"], "base is required")
}

func TestPostScore(t *testing.T) {
	f := newFixture(t, scenarioWeights, stubRuns{})
	code, body := f.do(t, http.MethodPost, "/v1/score", `{
		"opportunity": {"id": "o1", "amount": 100000, "stage": "Propose", "coSell": true},
		"signals": [{"id": "s1", "type": "RFP", "title": "Legacy system modernization"}]
	}`)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 55, body["score"])
	assert.EqualValues(t, 55, body["raw"])
	assert.Len(t, body["factors"], 6)
	assert.Equal(t, []any{"Modernization"}, body["tags"], "untagged signals are tagged first")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.ScoresTotal.WithLabelValues(metrics.ResultOK)))
}

func TestPostScore_Errors(t *testing.T) {
	f := newFixture(t, scenarioWeights, stubRuns{})

	code, _ := f.do(t, http.MethodPost, "/v1/score", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = f.do(t, http.MethodPost, "/v1/score", `{"signals": []}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := f.do(t, http.MethodPost, "/v1/score", `{"opportunity": {"amount": 1, "stage": "Negotiate"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Nil(t, body["score"])
	assert.Contains(t, body["error"], "Negotiate")

	code, _ = f.do(t, http.MethodPost, "/v1/score", `{"opportunity": {"amount": -5, "stage": "Prospect"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, body = f.do(t, http.MethodPost, "/v1/score", `{"opportunity": {"amount": 1e24, "stage": "Prospect"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body["error"], "out of range")
}

func TestPostScore_UnavailableIsNullNotZero(t *testing.T) {
	f := newFixture(t, `{"opportunity": {"amountMultiplier": 2, "coSellBoost": 15}}`, stubRuns{})
	code, body := f.do(t, http.MethodPost, "/v1/score", `{"opportunity": {"amount": 100000, "stage": "Prospect"}}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	require.Contains(t, body, "score")
	assert.Nil(t, body["score"])
	assert.Contains(t, body["error"], "base is required")
}

func TestPostTags(t *testing.T) {
	f := newFixture(t, scenarioWeights, stubRuns{})
	code, body := f.do(t, http.MethodPost, "/v1/tags", `{"title": "Acquisition announced", "summary": "GitHub rollout"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"M&A", "JobSpike", "GitHub"}, body["tags"])

	code, body = f.do(t, http.MethodPost, "/v1/tags", `{"title": ""}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, body["tags"])
}

func TestGetLatestScores(t *testing.T) {
	score := 42
	run := &model.ScoreRun{ID: "run-1", Results: []model.OpportunityScore{{OpportunityID: "o1", Score: &score}, {OpportunityID: "o2"}}}
	f := newFixture(t, scenarioWeights, stubRuns{run: run})

	code, body := f.do(t, http.MethodGet, "/v1/scores/latest", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "run-1", body["id"])
	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.EqualValues(t, 42, results[0].(map[string]any)["score"])
	assert.Nil(t, results[1].(map[string]any)["score"])
}

func TestGetLatestScores_NoneAndError(t *testing.T) {
	code, _ := newFixture(t, scenarioWeights, stubRuns{}).do(t, http.MethodGet, "/v1/scores/latest", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = newFixture(t, scenarioWeights, stubRuns{err: errors.New("db locked")}).do(t, http.MethodGet, "/v1/scores/latest", "")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestMetricsEndpointAndRequestCounter(t *testing.T) {
	f := newFixture(t, scenarioWeights, stubRuns{})
	f.do(t, http.MethodGet, "/healthz", "")
	f.do(t, http.MethodGet, "/nope", "")

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `ssp_http_requests_total{code="200",route="/healthz"} 1`)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.m.HTTPRequestsTotal.WithLabelValues("unmatched", "404")))
}
