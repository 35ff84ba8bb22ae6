// Package weights loads the scoring weights resource once per process and serves
// read-only copies of it.
package weights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"SSPCommandCenter/internal/model"
)

// Loader caches the first successfully loaded weight set.
type Loader struct {
	src     Source
	mu      sync.Mutex
	weights atomic.Pointer[model.ScoringWeights]
}

// NewLoader creates a Loader reading from src on first use.
func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Source returns the name of the underlying resource.
func (l *Loader) Source() string { return l.src.Name() }

// Load returns a copy of the weight set, reading the resource on the first call only.
// A failed read is not cached, so a later call retries.
func (l *Loader) Load() (*model.ScoringWeights, error) {
	if w := l.weights.Load(); w != nil {
		return w.Clone(), nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w := l.weights.Load(); w != nil {
		return w.Clone(), nil
	}

	w, err := Parse(l.src)
	if err != nil {
		return nil, err
	}
	l.weights.Store(w)
	return w.Clone(), nil
}

// rawWeights mirrors the resource schema with pointers so absent fields can be told
// apart from zeros.
type rawWeights struct {
	Base          *float64           `json:"base" yaml:"base"`
	SignalWeights map[string]float64 `json:"signalWeights" yaml:"signalWeights"`
	Opportunity   *rawOpportunity    `json:"opportunity" yaml:"opportunity"`
	Tags          map[string]float64 `json:"tags" yaml:"tags"`
}

type rawOpportunity struct {
	AmountMultiplier    *float64           `json:"amountMultiplier" yaml:"amountMultiplier"`
	StageBoosts         map[string]float64 `json:"stageBoosts" yaml:"stageBoosts"`
	CoSellBoost         *float64           `json:"coSellBoost" yaml:"coSellBoost"`
	RecencyHalfLifeDays *float64           `json:"recencyHalfLifeDays" yaml:"recencyHalfLifeDays"`
}

// Parse reads, decodes and validates a weights resource.
func Parse(src Source) (*model.ScoringWeights, error) {
	name := src.Name()
	data, err := src.Read()
	if err != nil {
		reason := "read resource"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "resource not found"
		}
		return nil, &ConfigurationError{Source: name, Reason: reason, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ConfigurationError{Source: name, Reason: "resource is empty"}
	}

	var raw rawWeights
	if isYAML(name) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&raw)
	} else {
		err = decodeJSON(data, &raw)
	}
	if err != nil {
		return nil, &ConfigurationError{Source: name, Reason: "parse resource", Err: err}
	}

	w, err := raw.build()
	if err != nil {
		return nil, &ConfigurationError{Source: name, Reason: "invalid weights", Err: err}
	}
	return w, nil
}

var (
	topLevelKeys    = []string{"base", "signalWeights", "opportunity", "tags"}
	opportunityKeys = []string{"amountMultiplier", "stageBoosts", "coSellBoost", "recencyHalfLifeDays"}
)

// decodeJSON rejects keys that are not spelled exactly as in the schema before
// decoding; encoding/json alone matches field names case-insensitively.
func decodeJSON(data []byte, raw *rawWeights) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}
	if err := checkKeys("", top, topLevelKeys); err != nil {
		return err
	}
	if opp, ok := top["opportunity"]; ok {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(opp, &fields); err != nil {
			return err
		}
		if err := checkKeys("opportunity.", fields, opportunityKeys); err != nil {
			return err
		}
	}
	return json.Unmarshal(data, raw)
}

func checkKeys(prefix string, m map[string]json.RawMessage, known []string) error {
	for _, key := range sortedKeys(m) {
		if !slices.Contains(known, key) {
			return fmt.Errorf("unknown field %q", prefix+key)
		}
	}
	return nil
}

func isYAML(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

func (r *rawWeights) build() (*model.ScoringWeights, error) {
	var problems []string
	required := func(field string, v *float64) float64 {
		if v == nil {
			problems = append(problems, field+" is required")
			return 0
		}
		if !finite(*v) {
			problems = append(problems, field+" must be a finite number")
		}
		return *v
	}

	w := &model.ScoringWeights{Tags: make(map[string]float64, len(r.Tags))}
	w.Base = required("base", r.Base)

	for _, key := range sortedKeys(r.SignalWeights) {
		v := r.SignalWeights[key]
		if !w.SignalWeights.Set(model.SignalType(key), v) {
			problems = append(problems, fmt.Sprintf("signalWeights.%s is not a known signal type", key))
		} else if !finite(v) {
			problems = append(problems, fmt.Sprintf("signalWeights.%s must be a finite number", key))
		}
	}

	if r.Opportunity == nil {
		problems = append(problems, "opportunity is required")
	} else {
		o := r.Opportunity
		w.Opportunity.AmountMultiplier = required("opportunity.amountMultiplier", o.AmountMultiplier)
		w.Opportunity.CoSellBoost = required("opportunity.coSellBoost", o.CoSellBoost)
		if o.RecencyHalfLifeDays != nil {
			w.Opportunity.RecencyHalfLifeDays = required("opportunity.recencyHalfLifeDays", o.RecencyHalfLifeDays)
		}
		for _, key := range sortedKeys(o.StageBoosts) {
			v := o.StageBoosts[key]
			if !w.Opportunity.StageBoosts.Set(model.Stage(key), v) {
				problems = append(problems, fmt.Sprintf("opportunity.stageBoosts.%s is not a known stage", key))
			} else if !finite(v) {
				problems = append(problems, fmt.Sprintf("opportunity.stageBoosts.%s must be a finite number", key))
			}
		}
	}

	for tag, v := range r.Tags {
		if !finite(v) {
			problems = append(problems, fmt.Sprintf("tags.%s must be a finite number", tag))
			continue
		}
		w.Tags[tag] = v
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, errors.New(strings.Join(problems, "; "))
	}
	return w, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
