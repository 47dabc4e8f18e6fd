package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	doorYAML    = filepath.Join("..", "..", "definition", "testdata", "door.yaml")
	doorCUE     = filepath.Join("..", "..", "definition", "testdata", "door.cue")
	walkthrough = filepath.Join("..", "..", "scenario", "testdata", "door_walkthrough.yaml")
	broken      = filepath.Join("..", "..", "scenario", "testdata", "door_broken.yaml")
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidate(t *testing.T) {
	for _, path := range []string{doorYAML, doorCUE} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			out, _, err := execute(t, "validate", path)
			require.NoError(t, err)
			assert.Equal(t, "door 1.0.0: valid, 5 states under Exists\n", out)
		})
	}
}

func TestValidateJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", doorYAML)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ValidateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ValidateResult{Name: "door", Version: "1.0.0", Top: "Exists", States: 5}, resp.Data)
}

func TestValidateMissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "validate", doorYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestDot(t *testing.T) {
	out, _, err := execute(t, "dot", doorYAML)
	require.NoError(t, err)
	assert.Contains(t, out, `digraph "door" {`)
	assert.Contains(t, out, `subgraph "cluster_Closed"`)
	assert.NotContains(t, out, "lightgreen")

	out, _, err = execute(t, "dot", doorYAML, "--events", "Lock")
	require.NoError(t, err)
	assert.Contains(t, out, `"Locked" [label="Locked", style="rounded,filled", fillcolor=lightgreen];`)
	assert.NotContains(t, out, `"Unlocked" [label="Unlocked", style=`)
}

func TestSend(t *testing.T) {
	out, _, err := execute(t, "send", doorYAML, "Lock", "Open", "Unlock", "Open", "Lock")
	require.NoError(t, err)
	assert.Equal(t, `Lock: handled, now in Locked
Open: handled, now in Locked
Unlock: handled, now in Unlocked
Open: handled, now in Opened
Lock: not handled, now in Opened
final state: Opened
`, out)
}

func TestSendJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "send", doorYAML, "Lock", "Open")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   SendResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Locked", resp.Data.State)
	assert.Equal(t, []string{"Exists", "Closed", "Locked"}, resp.Data.Active)
	assert.Equal(t, "RattleLockedDoor", resp.Data.Context["effect"])
	assert.EqualValues(t, 1, resp.Data.Context["rattles"])
}

func TestSendVerboseLogsDiagnostics(t *testing.T) {
	_, stderr, err := execute(t, "--verbose", "send", doorYAML, "Close")
	require.NoError(t, err)
	assert.Contains(t, stderr, `event "Close" not handled in state Unlocked`)
	assert.Contains(t, stderr, "WARN")
}

func TestRun(t *testing.T) {
	out, _, err := execute(t, "run", doorYAML, walkthrough)
	require.NoError(t, err)
	assert.Contains(t, out, "> Lock\n")
	assert.Contains(t, out, "initial Closed -> Unlocked enter=[Unlocked]\n")
	assert.NotContains(t, out, "FAIL")
}

func TestRunFailingScenario(t *testing.T) {
	out, _, err := execute(t, "run", doorYAML, broken)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL step 1 (Lock)")
}

func TestRunJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "run", doorYAML, walkthrough)
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Passed)
	assert.Equal(t, "door walkthrough", resp.Data.Scenario)
	assert.Empty(t, resp.Data.Failures)
}
