package logging_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, logging.ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, logging.ParseLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, logging.ParseLevel("ERROR"))
	assert.Equal(t, zapcore.InfoLevel, logging.ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, logging.ParseLevel("PRODUCTION"))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, logging.FormatJSON, logging.ParseFormat("json", logging.FormatConsole))
	assert.Equal(t, logging.FormatConsole, logging.ParseFormat("pretty", logging.FormatConsole))
}

func TestNewToWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewTo(zapcore.AddSync(&buf), "WARN", logging.FormatJSON)
	l.Info("hidden")
	l.Warn("shown", zap.String("k", "v"))
	require.NoError(t, l.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(logging.EnvLevel, "ERROR")
	t.Setenv(logging.EnvFormat, "JSON")
	l := logging.NewFromEnv()
	assert.False(t, l.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sink := logging.NewZapSink(zap.New(core))

	sink.Log(hsm.Record{Severity: hsm.SeverityInfo, Component: "door", Instance: "i-1", Message: "transition A -> B"})
	sink.Log(hsm.Record{Severity: hsm.SeverityWarning, Component: "door", Instance: "i-1", Message: "not handled"})
	sink.Log(hsm.Record{Severity: hsm.SeverityError, Component: "door", Instance: "i-1", Message: "rejected"})

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "transition A -> B", entries[0].Message)
	assert.Equal(t, map[string]any{"component": "door", "instance": "i-1"}, entries[0].ContextMap())
}

func TestZapSinkWithEngine(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	b := hsm.NewGraphBuilder[*hsm.Context, string]()
	b.Name("Idle")
	g := b.MustBuild()
	e, err := hsm.New(g, 0, hsm.NewContext(), nil,
		hsm.WithSink(logging.NewZapSink(zap.New(core))), hsm.WithInstanceID("i-9"))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	assert.False(t, e.HandleEvent("poke"))

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, `event "poke" not handled in state Idle`, warnings[0].Message)
	assert.Equal(t, "i-9", warnings[0].ContextMap()["instance"])
	// Idle has no default transition, so initializing logs nothing.
	assert.Equal(t, 1, logs.Len())
}

func TestNilZapSinkDiscards(t *testing.T) {
	logging.NewZapSink(nil).Log(hsm.Record{Message: "dropped"})
}

func TestLogrSink(t *testing.T) {
	var lines []string
	l := funcr.New(func(prefix, args string) {
		lines = append(lines, strings.TrimSpace(prefix+" "+args))
	}, funcr.Options{Verbosity: 0})
	sink := logging.NewLogrSink(l)

	sink.Log(hsm.Record{Severity: hsm.SeverityInfo, Component: "door", Message: "verbose"})
	sink.Log(hsm.Record{Severity: hsm.SeverityWarning, Component: "door", Message: "not handled"})
	sink.Log(hsm.Record{Severity: hsm.SeverityError, Component: "door", Message: "rejected"})

	require.Len(t, lines, 2, fmt.Sprint(lines))
	assert.Contains(t, lines[0], `"msg"="not handled"`)
	assert.Contains(t, lines[0], `"severity"="WARNING"`)
	assert.Contains(t, lines[1], `"msg"="rejected"`)
	assert.Contains(t, lines[1], `"component"="door"`)
}
