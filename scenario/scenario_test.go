package scenario_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/definition"
	"github.com/comalice/hsm/scenario"
)

func loadDoor(t *testing.T) *definition.Machine {
	t.Helper()
	m, err := definition.Load(filepath.Join("testdata", "door.yaml"), nil)
	require.NoError(t, err)
	return m
}

func TestWalkthroughPasses(t *testing.T) {
	sc, err := scenario.LoadFile(filepath.Join("testdata", "door_walkthrough.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "door walkthrough", sc.Name)

	res, err := scenario.Run(loadDoor(t), sc)
	require.NoError(t, err)
	assert.True(t, res.Passed(), strings.Join(res.Failures, "\n"))

	var buf bytes.Buffer
	_, err = res.WriteTo(&buf)
	require.NoError(t, err)
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "door_walkthrough", buf.Bytes())
}

func TestBrokenExpectationsAreReported(t *testing.T) {
	sc, err := scenario.LoadFile(filepath.Join("testdata", "door_broken.yaml"))
	require.NoError(t, err)

	res, err := scenario.Run(loadDoor(t), sc)
	require.NoError(t, err)
	assert.False(t, res.Passed())
	assert.Equal(t, []string{
		"step 1 (Lock): expected state Opened, got Locked",
		"step 2 (Open): expected handled=false, got true",
		"step 2 (Open): unknown state Attic",
		"step 2 (Open): expected context rattles=2, got 1",
	}, res.Failures)

	var buf bytes.Buffer
	_, err = res.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "FAIL step 1 (Lock): expected state Opened, got Locked\n")
}

func TestRunWithContext(t *testing.T) {
	ctx := hsm.NewContext()
	ctx.Set("rattles", 10)
	sc := &scenario.Scenario{Name: "preset", Steps: []scenario.Step{
		{Event: "Lock"},
		{Event: "Open", Context: map[string]int{"rattles": 11}},
	}}

	var infos int
	sink := hsm.SinkFunc(func(r hsm.Record) {
		if r.Severity == hsm.SeverityInfo {
			infos++
		}
	})
	res, err := scenario.Run(loadDoor(t), sc, scenario.WithContext(ctx), scenario.WithEngineOptions(hsm.WithSink(sink)))
	require.NoError(t, err)
	assert.True(t, res.Passed(), strings.Join(res.Failures, "\n"))
	assert.Equal(t, 11, ctx.Int("rattles"))
	assert.NotZero(t, infos)
}

func TestParseErrors(t *testing.T) {
	_, err := scenario.Parse([]byte("name: empty\n"))
	assert.ErrorContains(t, err, "no steps")

	_, err = scenario.Parse([]byte("name: typo\nsteps:\n  - evnt: Lock\n"))
	assert.Error(t, err)

	_, err = scenario.Run(nil, &scenario.Scenario{})
	assert.Error(t, err)
}
