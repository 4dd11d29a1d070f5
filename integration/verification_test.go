//go:build basic

// Package integration contains integration tests for riskgate.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Or, with Docker available: go test -tags database ./integration
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteEnv points both stores and the GitHub files into dir.
func sqliteEnv(dir string, findings, score string) map[string]string {
	return map[string]string{
		"RISKGATE_ARTIFACT_DB_CONNECT": filepath.Join(dir, "artifacts.db"),
		"RISKGATE_HISTORY_DB_CONNECT":  filepath.Join(dir, "history.db"),
		"GITHUB_STEP_SUMMARY":          filepath.Join(dir, "summary.md"),
		"FAKE_FINDINGS":                findings,
		"FAKE_SCORE":                   score,
	}
}

// TestRunBaselineDeltaAndGate publishes a baseline, runs a second range against
// it, and checks the delta, the gate, and the stored history.
func TestRunBaselineDeltaAndGate(t *testing.T) {
	dir := t.TempDir()
	analyzer := writeFakeAnalyzer(t, dir)
	common := []string{"run", "--analyzer-bin", analyzer, "--base", baseSHA, "--head", headSHA}

	// 1. Baseline run on the default branch
	env := sqliteEnv(dir, "A,B,C", "20")
	env["GITHUB_OUTPUT"] = filepath.Join(dir, "baseline.out")
	_, err := runRiskgate(t, dir, env, append(common, "--artifact-name", "main")...)
	require.NoError(t, err)

	baseline := readOutputs(t, env["GITHUB_OUTPUT"])
	assert.Equal(t, "20", baseline["risk-score"])
	assert.Equal(t, "main-facts", baseline["facts-artifact"])
	assert.NotContains(t, baseline, "delta-new", "no baseline, no delta outputs")

	// 2. Pull request run at the threshold
	env = sqliteEnv(dir, "B,C,D", "70")
	env["GITHUB_OUTPUT"] = filepath.Join(dir, "pr.out")
	_, err = runRiskgate(t, dir, env, append(common, "--artifact-name", "pr-1", "--baseline-artifact", "main", "--fail-on-score", "70")...)
	require.Error(t, err, "a score equal to the threshold fails the run")

	current := readOutputs(t, env["GITHUB_OUTPUT"])
	assert.Equal(t, "70", current["risk-score"])
	assert.Equal(t, "1", current["delta-new"])
	assert.Equal(t, "1", current["delta-resolved"])
	assert.Equal(t, "false", current["facts-json-truncated"])
	assert.JSONEq(t, `{"infra":{"score":70,"flagCount":1}}`, current["score-breakdown"])

	summary, err := os.ReadFile(env["GITHUB_STEP_SUMMARY"])
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Gate failed")

	// 3. Offline comparison of the two published runs
	compareFile := filepath.Join(dir, "compare.json")
	_, err = runRiskgate(t, dir, env, "compare", "main", "pr-1", "--output", "json", "--output-file", compareFile)
	require.NoError(t, err)
	data, err := os.ReadFile(compareFile)
	require.NoError(t, err)
	var comparison struct {
		Summary struct {
			TotalNew       int  `json:"total_new"`
			TotalResolved  int  `json:"total_resolved"`
			TotalUnchanged int  `json:"total_unchanged"`
			NetScoreDelta  int  `json:"net_score_delta"`
			ScopeMatch     bool `json:"scope_match"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &comparison))
	assert.Equal(t, 1, comparison.Summary.TotalNew)
	assert.Equal(t, 1, comparison.Summary.TotalResolved)
	assert.Equal(t, 2, comparison.Summary.TotalUnchanged)
	assert.Equal(t, 50, comparison.Summary.NetScoreDelta)
	assert.True(t, comparison.Summary.ScopeMatch)

	// 4. History holds both runs, newest first
	historyFile := filepath.Join(dir, "history.json")
	_, err = runRiskgate(t, dir, env, "history", "list", "--output", "json", "--output-file", historyFile)
	require.NoError(t, err)
	data, err = os.ReadFile(historyFile)
	require.NoError(t, err)
	var runs []struct {
		Score      int  `json:"score"`
		GateFailed bool `json:"gate_failed"`
		DeltaNew   *int `json:"delta_new"`
	}
	require.NoError(t, json.Unmarshal(data, &runs))
	require.Len(t, runs, 2)
	assert.ElementsMatch(t, []int{20, 70}, []int{runs[0].Score, runs[1].Score})
	for _, r := range runs {
		if r.Score == 70 {
			assert.True(t, r.GateFailed)
			require.NotNil(t, r.DeltaNew)
			assert.Equal(t, 1, *r.DeltaNew)
		}
	}
}

// TestRunAnalyzerFailure checks that a failing analyzer fails the run and publishes nothing.
func TestRunAnalyzerFailure(t *testing.T) {
	dir := t.TempDir()
	env := sqliteEnv(dir, "A", "10")
	env["GITHUB_OUTPUT"] = filepath.Join(dir, "out")

	_, err := runRiskgate(t, dir, env, "run", "--analyzer-bin", filepath.Join(dir, "missing-analyzer"), "--base", baseSHA, "--head", headSHA)
	require.Error(t, err)

	_, statErr := os.Stat(env["GITHUB_OUTPUT"])
	assert.True(t, os.IsNotExist(statErr), "no outputs are written when analysis fails")
}

// TestArtifactCommands lists and clears the artifacts of a run.
func TestArtifactCommands(t *testing.T) {
	dir := t.TempDir()
	analyzer := writeFakeAnalyzer(t, dir)
	env := sqliteEnv(dir, "A", "10")
	env["GITHUB_OUTPUT"] = filepath.Join(dir, "out")

	_, err := runRiskgate(t, dir, env, "run", "--analyzer-bin", analyzer, "--base", baseSHA, "--head", headSHA, "--sarif", "--artifact-name", "nightly")
	require.NoError(t, err)

	listFile := filepath.Join(dir, "artifacts.csv")
	_, err = runRiskgate(t, dir, env, "artifact", "list", "--output", "csv", "--output-file", listFile)
	require.NoError(t, err)
	data, err := os.ReadFile(listFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "nightly-facts")
	assert.Contains(t, string(data), "nightly-risk-report")
	assert.Contains(t, string(data), "nightly-sarif")

	out, err := runRiskgate(t, dir, env, "artifact", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Artifacts: 3")

	_, err = runRiskgate(t, dir, env, "artifact", "clear")
	require.NoError(t, err)
	_, statErr := os.Stat(env["RISKGATE_ARTIFACT_DB_CONNECT"])
	assert.True(t, os.IsNotExist(statErr))
}

// TestRunUnreachableArtifactStore checks that an artifact store that cannot be
// opened degrades the run: the analysis, summary, outputs and history still happen.
func TestRunUnreachableArtifactStore(t *testing.T) {
	dir := t.TempDir()
	analyzer := writeFakeAnalyzer(t, dir)
	env := sqliteEnv(dir, "A,B", "30")
	env["GITHUB_OUTPUT"] = filepath.Join(dir, "out")

	out, err := runRiskgate(t, dir, env, "run", "--analyzer-bin", analyzer, "--base", baseSHA, "--head", headSHA,
		"--artifact-backend", "mysql", "--artifact-db-connect", "user:pass@tcp(127.0.0.1:1)/riskgate",
		"--baseline-artifact", "main")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Persistence unavailable")

	outputs := readOutputs(t, env["GITHUB_OUTPUT"])
	assert.Equal(t, "30", outputs["risk-score"])
	assert.Equal(t, "2", outputs["finding-count"])
	assert.NotContains(t, outputs, "facts-artifact", "nothing was published")
	assert.NotContains(t, outputs, "delta-new", "no baseline could be read")

	summary, err := os.ReadFile(env["GITHUB_STEP_SUMMARY"])
	require.NoError(t, err)
	assert.Contains(t, string(summary), "Change risk")

	historyFile := filepath.Join(dir, "history.json")
	_, err = runRiskgate(t, dir, env, "history", "list", "--output", "json", "--output-file", historyFile)
	require.NoError(t, err)
	data, err := os.ReadFile(historyFile)
	require.NoError(t, err)
	var runs []struct {
		Score int `json:"score"`
	}
	require.NoError(t, json.Unmarshal(data, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 30, runs[0].Score)
}
