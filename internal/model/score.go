package model

import "time"

// FactorScore is one additive term of a score computation.
type FactorScore struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Commentary   string  `json:"commentary,omitempty"`
}

// ScoreResult is the full breakdown of a single opportunity score.
type ScoreResult struct {
	OpportunityID string        `json:"opportunityId"`
	Factors       []FactorScore `json:"factors"`
	Raw           float64       `json:"raw"`   // unclamped, unrounded sum
	Score         int           `json:"score"` // clamped at 0 and rounded
	SignalCount   int           `json:"signalCount"`
	Tags          []string      `json:"tags,omitempty"` // tags of the contributing signals
}

// OpportunityScore is the outcome of scoring one opportunity within a run.
// A nil Score means the score is unavailable, which is never the same as 0.
type OpportunityScore struct {
	OpportunityID string    `json:"opportunityId"`
	AccountID     string    `json:"accountId"`
	Name          string    `json:"name"`
	State         StateCode `json:"state"`
	Stage         Stage     `json:"stage"`
	Amount        float64   `json:"amount"`
	CoSell        bool      `json:"coSell"`
	Score         *int      `json:"score"`
	Error         string    `json:"error,omitempty"`
	SignalCount   int       `json:"signalCount"`
	Tags          []string  `json:"tags,omitempty"`
}

// Available reports whether a score was computed.
func (s *OpportunityScore) Available() bool {
	return s.Score != nil
}

// ScoreRun is one batch recompute over all opportunities.
type ScoreRun struct {
	ID            string             `json:"id"`
	StartedAt     time.Time          `json:"startedAt"`
	FinishedAt    time.Time          `json:"finishedAt"`
	WeightsSource string             `json:"weightsSource"`
	Results       []OpportunityScore `json:"results"`
}

// Failures counts results without a score.
func (r *ScoreRun) Failures() int {
	n := 0
	for i := range r.Results {
		if !r.Results[i].Available() {
			n++
		}
	}
	return n
}
