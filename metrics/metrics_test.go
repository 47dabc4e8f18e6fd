package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/metrics"
)

func lightGraph(t *testing.T) *hsm.Graph[*hsm.Context, string] {
	t.Helper()
	b := hsm.NewGraphBuilder[*hsm.Context, string]()
	b.Name("Light").Initially(hsm.InitialTransition[*hsm.Context]("Off"))
	b.Name("Off").Parent("Light").Always(hsm.EventTransition[*hsm.Context]("toggle").Goto("On"))
	b.Name("On").Parent("Light").
		Always(hsm.EventTransition[*hsm.Context]("toggle").Goto("Off")).
		Always(hsm.EventTransition[*hsm.Context]("dim"))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestCollectorCountsEngineActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	g := lightGraph(t)
	e, err := hsm.New(g, g.MustLookup("Light"), hsm.NewContext(), nil, hsm.WithObserver(c))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())

	e.HandleEvent("toggle")
	e.HandleEvent("dim")
	e.HandleEvent("bogus")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Events.WithLabelValues("Light", "handled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Events.WithLabelValues("Light", "unhandled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Transitions.WithLabelValues("Light", "initial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Transitions.WithLabelValues("Light", "external")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Transitions.WithLabelValues("Light", "internal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Entries.WithLabelValues("Light", "On")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Active.WithLabelValues("Light", "On")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Active.WithLabelValues("Light", "Off")))
	// the engine starts in Light without entering it
	assert.Equal(t, 0.0, testutil.ToFloat64(c.Active.WithLabelValues("Light", "Light")))
}

func TestCollectorExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.MustNew(reg)

	c.OnEvent(hsm.EventRecord{Machine: "door", Outcome: hsm.OutcomeRejected})

	expected := `
# HELP hsm_events_total Total number of events dispatched, by outcome
# TYPE hsm_events_total counter
hsm_events_total{machine="door",outcome="rejected"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "hsm_events_total"))
}

func TestCollectorsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := metrics.New(reg)
	require.NoError(t, err)
	b, err := metrics.New(reg)
	require.NoError(t, err)

	a.OnEvent(hsm.EventRecord{Machine: "m", Outcome: hsm.OutcomeHandled})
	b.OnEvent(hsm.EventRecord{Machine: "m", Outcome: hsm.OutcomeHandled})
	assert.Equal(t, 2.0, testutil.ToFloat64(a.Events.WithLabelValues("m", "handled")))
}

func TestUnregisteredCollector(t *testing.T) {
	c, err := metrics.New(nil)
	require.NoError(t, err)
	c.OnTransition(hsm.TransitionRecord{Machine: "m", Kind: hsm.KindInitial, Entered: []string{"A"}})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Entries.WithLabelValues("m", "A")))
}
