package model

import (
	"slices"
	"time"
)

// SignalType indicates where a market signal came from.
type SignalType string

const (
	SignalNews  SignalType = "News"
	SignalRFP   SignalType = "RFP"
	SignalJob   SignalType = "Job"
	SignalOther SignalType = "Other"
)

// AllSignalTypes returns every signal type.
func AllSignalTypes() []SignalType {
	return []SignalType{SignalNews, SignalRFP, SignalJob, SignalOther}
}

// Valid reports whether t is one of the known signal types.
func (t SignalType) Valid() bool {
	switch t {
	case SignalNews, SignalRFP, SignalJob, SignalOther:
		return true
	}
	return false
}

// Signal is a time-stamped market event relevant to an account or a state.
type Signal struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"accountId,omitempty"` // empty for state-wide signals
	State       StateCode  `json:"state,omitempty"`
	Type        SignalType `json:"type"`
	Title       string     `json:"title"`
	URL         string     `json:"url,omitempty"`
	PublishedAt string     `json:"publishedAt,omitempty"` // ISO, as reported by the provider
	Summary     string     `json:"summary,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"createdAt,omitzero"`
}

// HasTag reports whether the signal carries tag.
func (s *Signal) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}
