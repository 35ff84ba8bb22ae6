package scoring

import (
	"fmt"

	"SSPCommandCenter/internal/model"
)

// amountUnit is the amount that earns one AmountMultiplier.
const amountUnit = 100_000

func scoreBase(w *model.ScoringWeights) model.FactorScore {
	return model.FactorScore{Name: "base", Contribution: w.Base}
}

func scoreAmount(w *model.ScoringWeights, amount float64) model.FactorScore {
	return model.FactorScore{
		Name:         "amount",
		Contribution: amount / amountUnit * w.Opportunity.AmountMultiplier,
		Commentary:   fmt.Sprintf("$%.0f x %g per $100k", amount, w.Opportunity.AmountMultiplier),
	}
}

func scoreStage(w *model.ScoringWeights, stage model.Stage) (model.FactorScore, error) {
	boost, ok := w.Opportunity.StageBoosts.For(stage)
	if !ok {
		return model.FactorScore{}, &InvalidStageError{Stage: stage}
	}
	return model.FactorScore{Name: "stage", Contribution: boost, Commentary: string(stage)}, nil
}

func scoreCoSell(w *model.ScoringWeights, coSell bool) model.FactorScore {
	f := model.FactorScore{Name: "coSell", Commentary: "no"}
	if coSell {
		f.Contribution = w.Opportunity.CoSellBoost
		f.Commentary = "yes"
	}
	return f
}

// scoreSignal returns the type weight followed by one factor per tag.
func scoreSignal(w *model.ScoringWeights, s *model.Signal) []model.FactorScore {
	factors := make([]model.FactorScore, 0, 1+len(s.Tags))

	typeWeight, ok := w.SignalWeights.For(s.Type)
	commentary := string(s.Type)
	if !ok {
		commentary = fmt.Sprintf("unknown type %q", s.Type)
	}
	factors = append(factors, model.FactorScore{
		Name:         "signal:" + s.ID,
		Contribution: typeWeight,
		Commentary:   commentary,
	})

	for _, tag := range s.Tags {
		factors = append(factors, model.FactorScore{
			Name:         "tag:" + tag,
			Contribution: w.TagWeight(tag),
			Commentary:   s.ID,
		})
	}
	return factors
}
