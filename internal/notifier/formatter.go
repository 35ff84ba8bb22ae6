package notifier

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"SSPCommandCenter/internal/model"
	"SSPCommandCenter/internal/tagger"
)

// DigestTitle is the title of the daily digest card.
const DigestTitle = "Daily Territory Digest"

// Digest is a formatted digest ready to send.
type Digest struct {
	Title string
	Text  string
	Items int
}

// NextAction suggests the seller's next step for an opportunity.
func NextAction(s *model.OpportunityScore) string {
	if slices.Contains(s.Tags, tagger.TagRFP) {
		return "Review RFP"
	}
	switch s.Stage {
	case model.StageProspect:
		return "Schedule discovery"
	case model.StageQualify:
		return "Confirm budget and timeline"
	case model.StageDevelop:
		return "Align solution plays"
	case model.StagePropose:
		return "Review proposal"
	default:
		return "Review account"
	}
}

// FormatMoney renders a USD amount with thousands separators, e.g. $250,000.
func FormatMoney(amount float64) string {
	return "$" + humanize.Comma(int64(math.Round(amount)))
}

// FormatDigest lists the top size open opportunities of run, highest score first.
// Unavailable scores rank after every available one and are shown as such.
func FormatDigest(run *model.ScoreRun, size int) *Digest {
	var open []model.OpportunityScore
	if run != nil {
		for _, r := range run.Results {
			if !r.Stage.IsTerminal() {
				open = append(open, r)
			}
		}
	}
	slices.SortStableFunc(open, compareForDigest)
	if size > 0 && len(open) > size {
		open = open[:size]
	}

	var b strings.Builder
	if len(open) == 0 {
		b.WriteString("No open opportunities to report.")
		return &Digest{Title: DigestTitle, Text: b.String()}
	}

	b.WriteString("Top Opportunities:\n")
	for i := range open {
		o := &open[i]
		heat := "Heat unavailable"
		if o.Score != nil {
			heat = fmt.Sprintf("Heat %d", *o.Score)
		}
		b.WriteString(fmt.Sprintf("%d) %s (%s) - %s - %s - Action: %s\n",
			i+1, o.Name, o.State, heat, FormatMoney(o.Amount), NextAction(o)))
	}
	return &Digest{Title: DigestTitle, Text: strings.TrimSuffix(b.String(), "\n"), Items: len(open)}
}

func compareForDigest(a, b model.OpportunityScore) int {
	switch {
	case a.Score != nil && b.Score == nil:
		return -1
	case a.Score == nil && b.Score != nil:
		return 1
	case a.Score != nil && *a.Score != *b.Score:
		return cmp.Compare(*b.Score, *a.Score)
	}
	if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}
