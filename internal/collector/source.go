package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"SSPCommandCenter/internal/model"
)

// Data file names inside a FileSource directory.
const (
	OpportunitiesFile = "opportunities.json"
	SignalsFile       = "signals.json"
	AccountsFile      = "accounts.json"
)

// Source defines where pipeline data comes from.
type Source interface {
	FetchOpportunities(ctx context.Context) ([]model.Opportunity, error)
	FetchSignals(ctx context.Context) ([]model.Signal, error)
	Name() string
}

// FileSource reads JSON data files from a directory, as written by the seed command.
type FileSource struct {
	Dir string
}

// NewFileSource creates a FileSource over dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

func (f *FileSource) Name() string { return "file:" + f.Dir }

func (f *FileSource) FetchOpportunities(ctx context.Context) ([]model.Opportunity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var opps []model.Opportunity
	if err := readJSON(filepath.Join(f.Dir, OpportunitiesFile), &opps); err != nil {
		return nil, err
	}
	return opps, nil
}

// FetchSignals returns no signals when the signals file does not exist.
func (f *FileSource) FetchSignals(ctx context.Context) ([]model.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var signals []model.Signal
	err := readJSON(filepath.Join(f.Dir, SignalsFile), &signals)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return signals, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// MockSource returns controllable fixed data for development and testing.
type MockSource struct {
	Opportunities []model.Opportunity
	Signals       []model.Signal
	Err           error
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) FetchOpportunities(_ context.Context) ([]model.Opportunity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Opportunities, nil
}

func (m *MockSource) FetchSignals(_ context.Context) ([]model.Signal, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Signals, nil
}
