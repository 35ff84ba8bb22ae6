package model

import "maps"

// ScoringWeights converts opportunity and signal attributes into score contributions.
// A loaded value is shared read-only; use Clone before handing it out.
type ScoringWeights struct {
	Base          float64            `json:"base"`
	SignalWeights SignalWeights      `json:"signalWeights"`
	Opportunity   OpportunityWeights `json:"opportunity"`
	Tags          map[string]float64 `json:"tags"`
}

// SignalWeights holds one additive weight per SignalType.
type SignalWeights struct {
	News  float64 `json:"News"`
	RFP   float64 `json:"RFP"`
	Job   float64 `json:"Job"`
	Other float64 `json:"Other"`
}

// For returns the weight for t. ok is false for an unknown type.
func (w SignalWeights) For(t SignalType) (weight float64, ok bool) {
	switch t {
	case SignalNews:
		return w.News, true
	case SignalRFP:
		return w.RFP, true
	case SignalJob:
		return w.Job, true
	case SignalOther:
		return w.Other, true
	}
	return 0, false
}

// Set assigns the weight for t. It returns false for an unknown type.
func (w *SignalWeights) Set(t SignalType, weight float64) bool {
	switch t {
	case SignalNews:
		w.News = weight
	case SignalRFP:
		w.RFP = weight
	case SignalJob:
		w.Job = weight
	case SignalOther:
		w.Other = weight
	default:
		return false
	}
	return true
}

// OpportunityWeights holds the opportunity-level scoring parameters.
type OpportunityWeights struct {
	AmountMultiplier float64     `json:"amountMultiplier"` // per 100,000 of amount
	StageBoosts      StageBoosts `json:"stageBoosts"`
	CoSellBoost      float64     `json:"coSellBoost"`

	// RecencyHalfLifeDays is carried for forward compatibility. Scores do not decay.
	RecencyHalfLifeDays float64 `json:"recencyHalfLifeDays"`
}

// StageBoosts holds one additive weight per Stage.
type StageBoosts struct {
	Prospect  float64 `json:"Prospect"`
	Qualify   float64 `json:"Qualify"`
	Develop   float64 `json:"Develop"`
	Propose   float64 `json:"Propose"`
	CloseWon  float64 `json:"CloseWon"`
	CloseLost float64 `json:"CloseLost"`
}

// For returns the boost for s. ok is false for an unknown stage.
func (b StageBoosts) For(s Stage) (boost float64, ok bool) {
	switch s {
	case StageProspect:
		return b.Prospect, true
	case StageQualify:
		return b.Qualify, true
	case StageDevelop:
		return b.Develop, true
	case StagePropose:
		return b.Propose, true
	case StageCloseWon:
		return b.CloseWon, true
	case StageCloseLost:
		return b.CloseLost, true
	}
	return 0, false
}

// Set assigns the boost for s. It returns false for an unknown stage.
func (b *StageBoosts) Set(s Stage, boost float64) bool {
	switch s {
	case StageProspect:
		b.Prospect = boost
	case StageQualify:
		b.Qualify = boost
	case StageDevelop:
		b.Develop = boost
	case StagePropose:
		b.Propose = boost
	case StageCloseWon:
		b.CloseWon = boost
	case StageCloseLost:
		b.CloseLost = boost
	default:
		return false
	}
	return true
}

// TagWeight returns the weight of tag, 0 when the tag is not configured.
func (w *ScoringWeights) TagWeight(tag string) float64 {
	return w.Tags[tag]
}

// Clone returns a deep copy.
func (w *ScoringWeights) Clone() *ScoringWeights {
	c := *w
	c.Tags = maps.Clone(w.Tags)
	if c.Tags == nil {
		c.Tags = map[string]float64{}
	}
	return &c
}
