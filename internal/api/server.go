// Package api serves the scoring engine over HTTP for the dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SSPCommandCenter/internal/logger"
	"SSPCommandCenter/internal/metrics"
	"SSPCommandCenter/internal/model"
	"SSPCommandCenter/internal/scoring"
	"SSPCommandCenter/internal/tagger"
	"SSPCommandCenter/internal/weights"
)

const maxBodyBytes = 1 << 20

// RunStore returns the latest score run. *scheduler.Scheduler implements it.
type RunStore interface {
	LatestRun(ctx context.Context) (*model.ScoreRun, error)
}

// Server holds the HTTP handlers.
type Server struct {
	weights  scoring.WeightsProvider
	runs     RunStore
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	log      logger.Logger
}

func New(wp scoring.WeightsProvider, runs RunStore, m *metrics.Metrics, g prometheus.Gatherer, log logger.Logger) *Server {
	return &Server{weights: wp, runs: runs, metrics: m, gatherer: g, log: log}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	r.Get("/healthz", s.getHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/weights", s.getWeights)
		r.Post("/score", s.postScore)
		r.Post("/tags", s.postTags)
		r.Get("/scores/latest", s.getLatestScores)
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// NewHTTPServer wraps handler with the service timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(route, status)
	})
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getWeights(w http.ResponseWriter, _ *http.Request) {
	wts, err := s.weights.Load()
	if err != nil {
		s.log.Error("scoring weights unavailable", logger.Error(err))
		writeError(w, weightsStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, wts)
}

type scoreRequest struct {
	Opportunity *model.Opportunity `json:"opportunity"`
	Signals     []model.Signal     `json:"signals"`
}

// scoreResponse keeps Score a pointer so an unavailable score is null, never 0.
type scoreResponse struct {
	Score       *int                `json:"score"`
	Raw         *float64            `json:"raw,omitempty"`
	Factors     []model.FactorScore `json:"factors,omitempty"`
	SignalCount int                 `json:"signalCount"`
	Tags        []string            `json:"tags,omitempty"`
	Error       string              `json:"error,omitempty"`
}

func (s *Server) postScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Opportunity == nil {
		writeError(w, http.StatusBadRequest, errors.New("opportunity is required"))
		return
	}
	for i := range req.Signals {
		tagger.Tag(&req.Signals[i])
	}

	wts, err := s.weights.Load()
	if err != nil {
		s.log.Error("score unavailable", logger.String("opportunity_id", req.Opportunity.ID), logger.Error(err))
		s.metrics.ObserveScore(metrics.ResultUnavailable)
		writeJSON(w, weightsStatus(err), scoreResponse{Error: err.Error()})
		return
	}

	res, err := scoring.NewEngine(wts).Evaluate(req.Opportunity, req.Signals)
	if err != nil {
		var stageErr *scoring.InvalidStageError
		var amountErr *scoring.InvalidAmountError
		var rangeErr *scoring.ScoreRangeError
		if errors.As(err, &stageErr) || errors.As(err, &amountErr) || errors.As(err, &rangeErr) {
			s.metrics.ObserveScore(metrics.ResultInvalid)
			writeJSON(w, http.StatusUnprocessableEntity, scoreResponse{Error: err.Error()})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.metrics.ObserveScore(metrics.ResultOK)
	writeJSON(w, http.StatusOK, scoreResponse{
		Score:       &res.Score,
		Raw:         &res.Raw,
		Factors:     res.Factors,
		SignalCount: res.SignalCount,
		Tags:        res.Tags,
	})
}

type tagRequest struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func (s *Server) postTags(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tagger.ClassifySignalTags(req.Title, req.Summary)})
}

func (s *Server) getLatestScores(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.LatestRun(r.Context())
	if err != nil {
		s.log.Error("load latest run", logger.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, errors.New("no score run recorded yet"))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("malformed request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// weightsStatus maps a weights load failure to a status code.
func weightsStatus(err error) int {
	var cfgErr *weights.ConfigurationError
	if errors.As(err, &cfgErr) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
