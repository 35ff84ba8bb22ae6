package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SSPCommandCenter/internal/logger"
	"SSPCommandCenter/internal/recorder"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// testConfig writes a config that keeps every file inside a temp dir.
func testConfig(t *testing.T, weightsPath string) (cfgPath, dataDir string) {
	t.Helper()
	dir := t.TempDir()
	dataDir = filepath.Join(dir, "data")
	body := "data:\n  dir: " + dataDir + "\n" +
		"database:\n  sqlite_path: " + filepath.Join(dir, "ssp.db") + "\n" +
		"logging:\n  level: error\n"
	if weightsPath != "" {
		body += "scoring:\n  weights_path: " + weightsPath + "\n"
	}
	t.Setenv("TEAMS_WEBHOOK_URL", "")
	return writeFile(t, dir, "config.yaml", body), dataDir
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ssp dev (commit: none)\n", out)
}

func TestTagCmd(t *testing.T) {
	out, err := run(t, "tag", "--title", "Agency hiring Azure engineers", "--summary", "legacy migration")
	require.NoError(t, err)
	assert.Equal(t, "JobSpike, Modernization, Azure\n", out)

	out, err = run(t, "tag", "--title", "Ribbon cutting")
	require.NoError(t, err)
	assert.Equal(t, "(no tags)\n", out)
}

func TestScoreCmd(t *testing.T) {
	dir := t.TempDir()
	weightsPath := writeFile(t, dir, "scoring.json", `{"base": 10, "signalWeights": {"RFP": 5},
	  "opportunity": {"amountMultiplier": 2, "stageBoosts": {"Prospect": 0, "Propose": 20}, "coSellBoost": 15},
	  "tags": {"Modernization": 3}}`)
	cfgPath, _ := testConfig(t, weightsPath)
	opp := writeFile(t, dir, "opp.json", `{"id": "o1", "amount": 100000, "stage": "Propose", "coSell": true}`)
	signals := writeFile(t, dir, "signals.json", `[{"id": "s1", "type": "RFP", "title": "Mainframe modernization"}]`)

	out, err := run(t, "--config", cfgPath, "score", "--opportunity", opp, "--signals", signals)
	require.NoError(t, err)
	assert.Contains(t, out, "score 55 (raw 55.00, 1 signals)")
	assert.Contains(t, out, "tag:Modernization")

	_, err = run(t, "--config", cfgPath, "score", "--opportunity", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestSeedThenRecompute(t *testing.T) {
	cfgPath, dataDir := testConfig(t, "")

	out, err := run(t, "--config", cfgPath, "seed", "--accounts", "3", "--per-account", "2", "--seed", "11")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 3 accounts and 6 opportunities")
	assert.FileExists(t, filepath.Join(dataDir, "opportunities.json"))

	out, err = run(t, "--config", cfgPath, "recompute")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "HEAT"))
	assert.Contains(t, out, "6 scored, 0 unavailable (weights: embedded:default_scoring.json)")

	out, err = run(t, "--config", cfgPath, "digest", "--dry-run")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Daily Territory Digest\n\n"))
}

func TestConfigPathFromEnv(t *testing.T) {
	cfgPath, _ := testConfig(t, "")
	t.Setenv("CONFIG_PATH", cfgPath)

	cmd := newRootCmd()
	opts := &rootOptions{configPath: defaultConfigPath}
	assert.Equal(t, cfgPath, opts.resolveConfigPath(cmd))

	require.NoError(t, cmd.ParseFlags([]string{"--config", "override.yaml"}))
	opts.configPath = "override.yaml"
	assert.Equal(t, "override.yaml", opts.resolveConfigPath(cmd))
}

func TestServe_RunOnStartCompletesBeforeShutdown(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	dbPath := filepath.Join(dir, "ssp.db")
	cfgPath := writeFile(t, dir, "config.yaml", "data:\n  dir: "+dataDir+"\n"+
		"database:\n  sqlite_path: "+dbPath+"\n"+
		"server:\n  listen_addr: 127.0.0.1:0\n"+
		"logging:\n  level: error\n")
	t.Setenv("TEAMS_WEBHOOK_URL", "")
	t.Setenv("RUN_ON_START", "true")

	_, err := run(t, "--config", cfgPath, "seed", "--accounts", "2", "--per-account", "2", "--seed", "3")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, runServe(ctx, newRootCmd(), &rootOptions{configPath: cfgPath}))

	rec, err := recorder.NewSQLiteRecorder(dbPath, logger.NewNop())
	require.NoError(t, err)
	defer rec.Close()
	latest, err := rec.LatestRun(t.Context())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Len(t, latest.Results, 4)
}
