package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../harness/testdata/scenarios"

// executeCommand runs the root command with args and returns stdout and
// stderr separately.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const failingScenario = `
name: failing
description: "order assertion that does not hold"
views:
  - name: a
  - name: b
seed: [a, b]
assertions:
  - type: order
    views: [b, a]
`

func TestRun_Text(t *testing.T) {
	out, _, err := executeCommand(t, "run", filepath.Join(scenariosDir, "basic_ordering.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ basic_ordering")
	assert.Contains(t, out, "Order: [d, b, c]")
	assert.Contains(t, out, "Hash:  c7ed35cc721fb0a6be2aeedc38505d0278d591d1964d1da1ea3d14878006376b")
	assert.NotContains(t, out, "Trace:")
}

func TestRun_TextVerboseShowsTrace(t *testing.T) {
	out, _, err := executeCommand(t, "run", "-v", filepath.Join(scenariosDir, "strict_remove.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "Trace:")
	assert.Contains(t, out, "[2] remove b len=1 error=NOT_FOUND")
	assert.Contains(t, out, "[4] remove a @0 len=0")
}

func TestRun_JSON(t *testing.T) {
	out, _, err := executeCommand(t, "run", "--format", "json", "--run-id", "r1", filepath.Join(scenariosDir, "call_errors.cue"))
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Pass  bool     `json:"pass"`
			RunID string   `json:"run_id"`
			Order []string `json:"order"`
			Trace []struct {
				Seq    int64  `json:"seq"`
				Op     string `json:"op"`
				Method string `json:"method"`
				Error  string `json:"error"`
			} `json:"trace"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, "r1", resp.Data.RunID)
	assert.Equal(t, []string{"x", "y"}, resp.Data.Order)
	require.Len(t, resp.Data.Trace, 7)
	assert.Equal(t, "INVOKE_FAILED", resp.Data.Trace[3].Error)
}

func TestRun_FailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "failing.yaml", failingScenario)

	out, _, err := executeCommand(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "Assertion failed: order")
}

func TestRun_FailingScenarioJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "failing.yaml", failingScenario)

	out, _, err := executeCommand(t, "run", "--format", "json", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeFailed, resp.Error.Code)
	assert.NotNil(t, resp.Data)
}

func TestRun_CommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut string
	}{
		{"missing scenario", []string{"run", "does-not-exist.yaml"}, "Error [E002]"},
		{"bad id generator", []string{"run", "--ids", "random", filepath.Join(scenariosDir, "basic_ordering.yaml")}, "Error [E007]"},
		{"unwritable database", []string{"run", "--db", filepath.Join(t.TempDir(), "missing", "dir", "x.db"), filepath.Join(scenariosDir, "basic_ordering.yaml")}, "Error [E003]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestRun_UUIDGenerator(t *testing.T) {
	out, _, err := executeCommand(t, "run", "--ids", "uuid", "--format", "json", filepath.Join(scenariosDir, "shared_owner.yaml"))
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	out, errOut, err := executeCommand(t, "run", "-v", "--format", "json", filepath.Join(scenariosDir, "basic_ordering.yaml"))
	require.NoError(t, err)

	assert.Contains(t, errOut, "scenario loaded")
	assert.Contains(t, errOut, "step completed")
	assert.Contains(t, errOut, "scenario finished")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout must stay valid JSON")
}
