package testutil

import (
	"strings"

	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/observe"
)

// RequireInState fails the test unless the engine's active configuration
// includes every named state.
func RequireInState[C any, E comparable](t require.TestingT, e *hsm.Engine[C, E], names ...string) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	for _, name := range names {
		id, ok := e.Graph().Lookup(name)
		require.True(t, ok, "unknown state %q", name)
		require.True(t, e.IsInState(id), "expected to be in %s, active: %s", name, strings.Join(e.ActiveStates(), " > "))
	}
}

// RequireLeaf fails the test unless the current leaf is name.
func RequireLeaf[C any, E comparable](t require.TestingT, e *hsm.Engine[C, E], name string) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.Equal(t, name, e.CurrentStateName(), "current leaf")
}

// RequireHandled sends event and fails the test unless it was handled.
func RequireHandled[C any, E comparable](t require.TestingT, e *hsm.Engine[C, E], event E) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.True(t, e.HandleEvent(event), "event %v not handled in %s", event, e.CurrentStateName())
}

// RequireUnhandled sends event and fails the test if it was handled.
func RequireUnhandled[C any, E comparable](t require.TestingT, e *hsm.Engine[C, E], event E) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.False(t, e.HandleEvent(event), "event %v unexpectedly handled in %s", event, e.CurrentStateName())
}

// RequireTrace compares the recorder's trace with want and resets it.
func RequireTrace(t require.TestingT, rec *observe.Recorder, want ...string) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	require.Equal(t, want, rec.Trace())
	rec.Reset()
}
