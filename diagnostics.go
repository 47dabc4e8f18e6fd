package hsm

// Severity classifies a diagnostic record.
type Severity int

const (
	// SeverityInfo marks every matched event and every transition.
	SeverityInfo Severity = iota
	// SeverityWarning marks an event no state in the active chain handles.
	SeverityWarning
	// SeverityError marks a dispatch the engine refused to run.
	SeverityError
)

// String returns the label prefixed to log lines.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Record is one structured diagnostic emitted by an engine.
type Record struct {
	Severity  Severity
	Component string
	Instance  string
	Message   string
}

// Sink receives diagnostic records. Implementations must not panic;
// the engine never inspects the outcome of a Log call.
type Sink interface {
	Log(r Record)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(r Record)

// Log calls f(r).
func (f SinkFunc) Log(r Record) { f(r) }

// LabelSink adapts a (severityLabel, formattedMessage) callback.
func LabelSink(fn func(label, msg string)) Sink {
	return SinkFunc(func(r Record) {
		fn(r.Severity.String(), r.Message)
	})
}

// NopSink discards every record.
type NopSink struct{}

// Log does nothing.
func (NopSink) Log(Record) {}

// Outcome is the result of one dispatch attempt.
type Outcome string

const (
	OutcomeHandled   Outcome = "handled"
	OutcomeUnhandled Outcome = "unhandled"
	OutcomeRejected  Outcome = "rejected"
)

// TransitionKind distinguishes how a transition was triggered.
type TransitionKind string

const (
	KindExternal TransitionKind = "external"
	KindInternal TransitionKind = "internal"
	KindInitial  TransitionKind = "initial"
)

// EventRecord describes one HandleEvent call.
type EventRecord struct {
	Machine  string
	Instance string
	Event    string
	State    string // current state when the event arrived
	Outcome  Outcome
}

// TransitionRecord describes one executed transition.
type TransitionRecord struct {
	Machine  string
	Instance string
	Event    string // empty for initial transitions
	Kind     TransitionKind
	Source   string
	Target   string
	Exited   []string
	Entered  []string
}

// Observer is notified after every dispatch attempt and transition.
// Observers run synchronously on the dispatching goroutine.
type Observer interface {
	OnEvent(r EventRecord)
	OnTransition(r TransitionRecord)
}
