// Package scoring turns an opportunity and its relevant signals into a priority score.
package scoring

import (
	"math"

	"SSPCommandCenter/internal/model"
)

// WeightsProvider supplies the weight set. *weights.Loader implements it.
type WeightsProvider interface {
	Load() (*model.ScoringWeights, error)
}

// Engine scores opportunities against a fixed weight set. It is safe for concurrent use.
type Engine struct {
	w *model.ScoringWeights
}

// NewEngine creates an Engine over a private copy of w.
func NewEngine(w *model.ScoringWeights) *Engine {
	return &Engine{w: w.Clone()}
}

// ComputeOpportunityScore loads the weight set from p and scores opp.
// Configuration errors from p are returned unchanged.
func ComputeOpportunityScore(p WeightsProvider, opp *model.Opportunity, recentSignals []model.Signal) (int, error) {
	w, err := p.Load()
	if err != nil {
		return 0, err
	}
	// Load already returned a private copy.
	e := &Engine{w: w}
	return e.Score(opp, recentSignals)
}

// Score returns the clamped, rounded score for opp.
func (e *Engine) Score(opp *model.Opportunity, recentSignals []model.Signal) (int, error) {
	res, err := e.Evaluate(opp, recentSignals)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// Evaluate computes the score with a per-factor breakdown. The caller has already
// filtered recentSignals for relevance and recency; every signal given contributes.
func (e *Engine) Evaluate(opp *model.Opportunity, recentSignals []model.Signal) (*model.ScoreResult, error) {
	if opp.Amount < 0 || math.IsNaN(opp.Amount) || math.IsInf(opp.Amount, 0) {
		return nil, &InvalidAmountError{Amount: opp.Amount}
	}
	stage, err := scoreStage(e.w, opp.Stage)
	if err != nil {
		return nil, err
	}

	factors := []model.FactorScore{
		scoreBase(e.w),
		scoreAmount(e.w, opp.Amount),
		stage,
		scoreCoSell(e.w, opp.CoSell),
	}

	var tags []string
	seen := map[string]bool{}
	for i := range recentSignals {
		s := &recentSignals[i]
		factors = append(factors, scoreSignal(e.w, s)...)
		for _, tag := range s.Tags {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}

	// Sum in factor order so repeated calls produce identical floats.
	raw := 0.0
	for _, f := range factors {
		raw += f.Contribution
	}

	// float64(math.MaxInt) rounds up to 2^63, so >= rejects every value that would overflow.
	rounded := math.Round(math.Max(0, raw))
	if math.IsNaN(rounded) || rounded >= float64(math.MaxInt) {
		return nil, &ScoreRangeError{Raw: raw}
	}

	return &model.ScoreResult{
		OpportunityID: opp.ID,
		Factors:       factors,
		Raw:           raw,
		Score:         int(rounded),
		SignalCount:   len(recentSignals),
		Tags:          tags,
	}, nil
}

// Weights returns a copy of the engine's weight set.
func (e *Engine) Weights() *model.ScoringWeights {
	return e.w.Clone()
}
