// Package tagger classifies free-text signals into canonical tags by keyword rules.
package tagger

import (
	"regexp"
	"strings"

	"SSPCommandCenter/internal/model"
)

// Canonical tags.
const (
	TagRFP           = "RFP"
	TagMA            = "M&A"
	TagJobSpike      = "JobSpike"
	TagModernization = "Modernization"
	TagAzure         = "Azure"
	TagGitHub        = "GitHub"
)

// Rule maps a case-insensitive pattern to one tag.
type Rule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// rules are evaluated in order. JobSpike overlaps Azure and GitHub; both fire.
var rules = []Rule{
	{TagRFP, regexp.MustCompile(`(?i)\brfp\b|request for proposal|bid due|due date`)},
	{TagMA, regexp.MustCompile(`(?i)acquires|acquisition|merger|m&a`)},
	{TagJobSpike, regexp.MustCompile(`(?i)hiring|job\s+openings|engineer|developer|azure|devops|github`)},
	{TagModernization, regexp.MustCompile(`(?i)modernization|legacy|mainframe|migration`)},
	{TagAzure, regexp.MustCompile(`(?i)azure`)},
	{TagGitHub, regexp.MustCompile(`(?i)github`)},
}

// Rules returns the ordered rule list.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// KnownTags returns every canonical tag in rule order.
func KnownTags() []string {
	tags := make([]string, 0, len(rules))
	for _, r := range rules {
		tags = append(tags, r.Tag)
	}
	return tags
}

// ClassifySignalTags returns the unique tags whose rules match title and summary, in rule
// order. It never fails; text with no matches yields an empty slice.
func ClassifySignalTags(title, summary string) []string {
	text := strings.ToLower(title + " " + summary)
	tags := make([]string, 0, len(rules))
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if seen[r.Tag] || !r.Pattern.MatchString(text) {
			continue
		}
		seen[r.Tag] = true
		tags = append(tags, r.Tag)
	}
	return tags
}

// Tag annotates s with classified tags when it has none yet, and reports whether it did.
func Tag(s *model.Signal) bool {
	if len(s.Tags) > 0 {
		return false
	}
	s.Tags = ClassifySignalTags(s.Title, s.Summary)
	return true
}
