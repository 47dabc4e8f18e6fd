package logging

import (
	"github.com/go-logr/logr"
	"go.uber.org/zap"

	"github.com/comalice/hsm"
)

// ZapSink writes engine diagnostics to a zap logger. INFO, WARNING and
// ERROR map to the zap levels of the same name; the record's component
// and instance become fields.
type ZapSink struct {
	l *zap.Logger
}

// NewZapSink wraps l. A nil logger discards everything.
func NewZapSink(l *zap.Logger) ZapSink {
	if l == nil {
		l = zap.NewNop()
	}
	return ZapSink{l: l}
}

// Log implements hsm.Sink.
func (s ZapSink) Log(r hsm.Record) {
	fields := []zap.Field{
		zap.String("component", r.Component),
		zap.String("instance", r.Instance),
	}
	switch r.Severity {
	case hsm.SeverityError:
		s.l.Error(r.Message, fields...)
	case hsm.SeverityWarning:
		s.l.Warn(r.Message, fields...)
	default:
		s.l.Info(r.Message, fields...)
	}
}

// LogrSink writes engine diagnostics to a logr.Logger. logr has no
// warning level, so warnings are logged at V(0) and info records at V(1);
// errors go through Error with a nil error.
type LogrSink struct {
	l logr.Logger
}

// NewLogrSink wraps l.
func NewLogrSink(l logr.Logger) LogrSink {
	return LogrSink{l: l}
}

// Log implements hsm.Sink.
func (s LogrSink) Log(r hsm.Record) {
	kv := []any{"component", r.Component, "instance", r.Instance, "severity", r.Severity.String()}
	switch r.Severity {
	case hsm.SeverityError:
		s.l.Error(nil, r.Message, kv...)
	case hsm.SeverityWarning:
		s.l.Info(r.Message, kv...)
	default:
		s.l.V(1).Info(r.Message, kv...)
	}
}
