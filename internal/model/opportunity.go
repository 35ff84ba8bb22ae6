package model

import "time"

// Stage is a sales-pipeline phase.
type Stage string

const (
	StageProspect  Stage = "Prospect"
	StageQualify   Stage = "Qualify"
	StageDevelop   Stage = "Develop"
	StagePropose   Stage = "Propose"
	StageCloseWon  Stage = "CloseWon"
	StageCloseLost Stage = "CloseLost"
)

// AllStages returns every stage in pipeline order.
func AllStages() []Stage {
	return []Stage{StageProspect, StageQualify, StageDevelop, StagePropose, StageCloseWon, StageCloseLost}
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageProspect, StageQualify, StageDevelop, StagePropose, StageCloseWon, StageCloseLost:
		return true
	}
	return false
}

// IsTerminal reports whether the deal is closed, won or lost.
func (s Stage) IsTerminal() bool {
	return s == StageCloseWon || s == StageCloseLost
}

// StateCode is a two-letter territory state.
type StateCode string

// AllStates returns the states covered by the territory.
func AllStates() []StateCode {
	return []StateCode{"AK", "AL", "FL", "GA", "IL", "IN", "KY", "LA", "MI", "MO", "MS", "OH", "TN", "WV"}
}

// Account is a customer organisation.
type Account struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	State      StateCode `json:"state"`
	Industry   string    `json:"industry,omitempty"`
	OwnerEmail string    `json:"ownerEmail,omitempty"`
	HeatScore  *int      `json:"heatScore,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	UpdatedAt  time.Time `json:"updatedAt,omitzero"`
}

// Opportunity is a pipeline deal. Scoring only reads Amount, Stage and CoSell.
type Opportunity struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"` // USD
	Stage     Stage     `json:"stage"`
	CloseDate string    `json:"closeDate,omitempty"` // ISO date
	CoSell    bool      `json:"coSell,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	State     StateCode `json:"state"`
	HeatScore *int      `json:"heatScore,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}
