//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	// sharedRiskgatePath holds the path to a shared riskgate binary built once for all tests.
	sharedRiskgatePath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

const (
	baseSHA = "1111111111111111111111111111111111111111"
	headSHA = "2222222222222222222222222222222222222222"
)

// fakeAnalyzer answers every --format the runner asks for. Findings come from
// FAKE_FINDINGS (comma-separated ids) and the score from FAKE_SCORE.
const fakeAnalyzer = `#!/bin/sh
format=""; base=""; head=""
while [ $# -gt 0 ]; do
  case "$1" in
    --format) format="$2"; shift ;;
    --base) base="$2"; shift ;;
    --head) head="$2"; shift ;;
  esac
  shift
done
range="{\"base\":\"$base\",\"head\":\"$head\"}"
case "$format" in
  facts-json)
    findings=""
    for id in $(echo "$FAKE_FINDINGS" | tr ',' ' '); do
      [ -n "$findings" ] && findings="$findings,"
      findings="$findings{\"findingId\":\"$id\",\"kind\":\"file_pattern\",\"category\":\"infra\",\"confidence\":1,\"evidence\":[],\"path\":\"$id.yml\"}"
    done
    echo "{\"schemaVersion\":\"1\",\"range\":$range,\"files\":[],\"findings\":[$findings]}" ;;
  risk-json)
    echo "{\"schemaVersion\":\"1\",\"range\":$range,\"score\":${FAKE_SCORE:-10},\"level\":\"medium\",\"categories\":{\"infra\":{\"score\":${FAKE_SCORE:-10},\"flagCount\":1}},\"flags\":[{\"flagId\":\"f1\",\"ruleId\":\"infra-change\",\"category\":\"infra\",\"title\":\"Infrastructure changed\",\"score\":${FAKE_SCORE:-10}}]}" ;;
  text)
    echo "Infrastructure files changed." ;;
  sarif)
    echo "{\"version\":\"2.1.0\",\"runs\":[]}" ;;
  *)
    echo "unknown format $format" >&2; exit 2 ;;
esac
`

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getRiskgateBinary returns the path to the riskgate binary, building it once if needed.
func getRiskgateBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "riskgate-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		riskgatePath := filepath.Join(tempDir, "riskgate")
		buildCmd := exec.Command("go", "build", "-o", riskgatePath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build riskgate: %v\n%s", err, out))
		}

		sharedRiskgatePath = riskgatePath
	})

	return sharedRiskgatePath
}

// writeFakeAnalyzer installs the fake analyzer script in dir.
func writeFakeAnalyzer(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-analyzer")
	if err := os.WriteFile(path, []byte(fakeAnalyzer), 0o755); err != nil {
		t.Fatalf("failed to write fake analyzer: %v", err)
	}
	return path
}

// runRiskgate runs the binary with a clean GitHub environment plus env.
func runRiskgate(t *testing.T, dir string, env map[string]string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getRiskgateBinary(), args...)
	cmd.Dir = dir
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "GITHUB_") || strings.HasPrefix(kv, "RISKGATE_") {
			continue
		}
		cmd.Env = append(cmd.Env, kv)
	}
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}

// readOutputs parses a GITHUB_OUTPUT file written with heredoc delimiters.
func readOutputs(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read outputs: %v", err)
	}
	outputs := map[string]string{}
	lines := strings.Split(string(data), "\n")
	for i := 0; i < len(lines); i++ {
		key, delim, ok := strings.Cut(lines[i], "<<")
		if !ok {
			continue
		}
		var value []string
		for i++; i < len(lines) && lines[i] != delim; i++ {
			value = append(value, lines[i])
		}
		outputs[key] = strings.Join(value, "\n")
	}
	return outputs
}
