package scoring

import (
	"fmt"

	"SSPCommandCenter/internal/model"
)

// InvalidStageError reports an opportunity stage outside the known pipeline stages.
type InvalidStageError struct {
	Stage model.Stage
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("invalid opportunity stage %q", e.Stage)
}

// InvalidAmountError reports a negative or non-finite opportunity amount.
type InvalidAmountError struct {
	Amount float64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid opportunity amount %v", e.Amount)
}

// ScoreRangeError reports a weighted sum too large to represent as an integer score.
type ScoreRangeError struct {
	Raw float64
}

func (e *ScoreRangeError) Error() string {
	return fmt.Sprintf("score %v out of range", e.Raw)
}
