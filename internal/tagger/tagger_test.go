package tagger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"SSPCommandCenter/internal/model"
)

func TestClassifySignalTags_RFPModernizationAzureGitHub(t *testing.T) {
	tags := ClassifySignalTags("State issues RFP for modernization", "Azure and GitHub")

	for _, want := range []string{TagRFP, TagModernization, TagAzure, TagGitHub} {
		assert.Contains(t, tags, want)
	}
	assert.NotContains(t, tags, TagMA)
	// "azure" and "github" are also JobSpike keywords.
	assert.Equal(t, []string{TagRFP, TagJobSpike, TagModernization, TagAzure, TagGitHub}, tags)
}

func TestClassifySignalTags_Empty(t *testing.T) {
	tags := ClassifySignalTags("", "")
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestClassifySignalTags_Rules(t *testing.T) {
	tests := []struct {
		title   string
		summary string
		want    []string
	}{
		{"Request for Proposal: ERP", "", []string{TagRFP}},
		{"Bid due Friday", "", []string{TagRFP}},
		{"Vendor response due date", "", []string{TagRFP}},
		{"RFPs roundup", "", []string{}},
		{"Contoso acquires Fabrikam", "", []string{TagMA}},
		{"Merger talks", "M&A desk reports", []string{TagMA}},
		{"County posts 40 job  openings", "", []string{TagJobSpike}},
		{"Hiring a platform Engineer", "", []string{TagJobSpike}},
		{"DevOps team grows", "", []string{TagJobSpike}},
		{"Mainframe retirement", "legacy COBOL migration", []string{TagModernization}},
		{"AZURE landing zone", "", []string{TagJobSpike, TagAzure}},
		{"Quarterly budget update", "No technology news", []string{}},
	}
	for _, tt := range tests {
		got := ClassifySignalTags(tt.title, tt.summary)
		assert.Equal(t, tt.want, got, "title=%q summary=%q", tt.title, tt.summary)
	}
}

func TestClassifySignalTags_NoDuplicates(t *testing.T) {
	tags := ClassifySignalTags("RFP RFP azure azure", "request for proposal, bid due")
	seen := map[string]bool{}
	for _, tag := range tags {
		assert.False(t, seen[tag], "duplicate tag %s", tag)
		seen[tag] = true
	}
}

func TestKnownTags(t *testing.T) {
	assert.Equal(t, []string{TagRFP, TagMA, TagJobSpike, TagModernization, TagAzure, TagGitHub}, KnownTags())
	assert.Len(t, Rules(), 6)
}

func TestTag(t *testing.T) {
	s := &model.Signal{Title: "Hiring: Azure DevOps Engineer (OH)", Summary: "Public sector hiring spike"}
	assert.True(t, Tag(s))
	assert.Equal(t, []string{TagJobSpike, TagAzure}, s.Tags)

	preset := &model.Signal{Title: "Azure news", Tags: []string{"Custom"}}
	assert.False(t, Tag(preset))
	assert.Equal(t, []string{"Custom"}, preset.Tags)
}
