package hsm

type settings struct {
	sink       Sink
	name       string
	instanceID string
	observers  []Observer
}

// Option configures an Engine via the functional options pattern.
type Option func(*settings)

// WithSink sets the diagnostics sink. The default discards records.
func WithSink(s Sink) Option {
	return func(o *settings) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithName sets the component tag carried by every record.
// The default is the name of the engine's top state.
func WithName(name string) Option {
	return func(o *settings) {
		o.name = name
	}
}

// WithInstanceID overrides the random instance identifier.
func WithInstanceID(id string) Option {
	return func(o *settings) {
		o.instanceID = id
	}
}

// WithObserver adds an observer. May be given more than once.
func WithObserver(obs Observer) Option {
	return func(o *settings) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}
