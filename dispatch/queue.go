// Package dispatch serialises events for an engine that many goroutines
// feed. Every event, and every function passed to Do, runs on a single
// queue goroutine, so the engine sees one dispatch at a time.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrQueueFull is returned by Send when the buffer has no room.
	ErrQueueFull = errors.New("event queue full (backpressure)")
	// ErrStopped is returned once the queue goroutine has exited.
	ErrStopped = errors.New("queue stopped")
	// ErrStarted is returned by a second Start.
	ErrStarted = errors.New("queue already started")
)

// Handler consumes events. *hsm.Engine satisfies it.
type Handler[E any] interface {
	HandleEvent(e E) bool
}

type item[E any] struct {
	event E
	fn    func()
	reply chan bool
}

// Queue is a single-writer event queue in front of a Handler.
type Queue[E any] struct {
	h       Handler[E]
	items   chan item[E]
	sources []<-chan E

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	group   *errgroup.Group
	done    chan struct{}
	once    sync.Once
}

// New creates a queue. Events may be sent before Start; they are
// buffered up to the queue size.
func New[E any](h Handler[E], opts ...Option[E]) *Queue[E] {
	o := options[E]{size: DefaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue[E]{
		h:       h,
		items:   make(chan item[E], o.size),
		sources: o.sources,
		done:    make(chan struct{}),
	}
}

// Start launches the queue goroutine and one pump per source. The queue
// runs until Stop is called, ctx is cancelled or the handler panics.
func (q *Queue[E]) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return ErrStarted
	}
	select {
	case <-q.done:
		return ErrStopped
	default:
	}
	q.started = true

	ctx, q.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	q.group = g

	g.Go(func() error {
		defer q.close()
		return q.loop(gctx)
	})
	for _, src := range q.sources {
		g.Go(func() error {
			q.pump(gctx, src)
			return nil
		})
	}
	return nil
}

// Send enqueues e without waiting for it to be handled.
func (q *Queue[E]) Send(e E) error {
	select {
	case <-q.done:
		return ErrStopped
	default:
	}
	select {
	case q.items <- item[E]{event: e}:
		return nil
	default:
		return ErrQueueFull
	}
}

// SendSync enqueues e, waiting for room if needed, and returns the
// handler's result.
func (q *Queue[E]) SendSync(ctx context.Context, e E) (bool, error) {
	reply := make(chan bool, 1)
	if err := q.enqueue(ctx, item[E]{event: e, reply: reply}); err != nil {
		return false, err
	}
	return q.await(ctx, reply)
}

// Do runs fn on the queue goroutine, between two events, and waits for
// it to return. Use it to inspect the engine safely.
func (q *Queue[E]) Do(ctx context.Context, fn func()) error {
	reply := make(chan bool, 1)
	if err := q.enqueue(ctx, item[E]{fn: fn, reply: reply}); err != nil {
		return err
	}
	_, err := q.await(ctx, reply)
	return err
}

// Stop cancels the queue and waits for its goroutines. Events still
// buffered are discarded. The returned error is the first failure of
// the queue goroutine, if any.
func (q *Queue[E]) Stop() error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		q.close()
		return nil
	}
	q.cancel()
	q.mu.Unlock()
	return q.Wait()
}

// Wait blocks until the queue goroutine exits.
func (q *Queue[E]) Wait() error {
	q.mu.Lock()
	g := q.group
	q.mu.Unlock()
	if g == nil {
		<-q.done
		return nil
	}
	return g.Wait()
}

// Done is closed once the queue no longer accepts events.
func (q *Queue[E]) Done() <-chan struct{} {
	return q.done
}

func (q *Queue[E]) loop(ctx context.Context) error {
	for {
		select {
		case it := <-q.items:
			if ctx.Err() != nil {
				return nil
			}
			if err := q.run(it); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (q *Queue[E]) run(it item[E]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: handler panicked: %v", r)
		}
	}()
	if it.fn != nil {
		it.fn()
		it.reply <- true
		return nil
	}
	ok := q.h.HandleEvent(it.event)
	if it.reply != nil {
		it.reply <- ok
	}
	return nil
}

func (q *Queue[E]) pump(ctx context.Context, src <-chan E) {
	for {
		select {
		case e, ok := <-src:
			if !ok {
				return
			}
			if err := q.enqueue(ctx, item[E]{event: e}); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (q *Queue[E]) enqueue(ctx context.Context, it item[E]) error {
	select {
	case <-q.done:
		return ErrStopped
	default:
	}
	select {
	case q.items <- it:
		return nil
	case <-q.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[E]) await(ctx context.Context, reply <-chan bool) (bool, error) {
	select {
	case ok := <-reply:
		return ok, nil
	case <-q.done:
		select {
		case ok := <-reply:
			return ok, nil
		default:
			return false, ErrStopped
		}
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (q *Queue[E]) close() {
	q.once.Do(func() { close(q.done) })
}
