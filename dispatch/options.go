package dispatch

// DefaultQueueSize is the buffer used when WithQueueSize is not given.
const DefaultQueueSize = 1000

type options[E any] struct {
	size    int
	sources []<-chan E
}

// Option configures a Queue.
type Option[E any] func(*options[E])

// WithQueueSize sets the number of events buffered ahead of the handler.
func WithQueueSize[E any](n int) Option[E] {
	return func(o *options[E]) {
		if n >= 0 {
			o.size = n
		}
	}
}

// WithSource pumps events from ch into the queue until ch is closed or
// the queue stops. May be given more than once.
func WithSource[E any](ch <-chan E) Option[E] {
	return func(o *options[E]) {
		if ch != nil {
			o.sources = append(o.sources, ch)
		}
	}
}
