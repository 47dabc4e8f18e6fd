package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/comalice/hsm/dispatch"
)

// Defaults applied by New.
const (
	DefaultTickRate         = 16667 * time.Microsecond // 60 FPS
	DefaultMaxEventsPerTick = 1000
)

// ErrRunning is returned by a second Start.
var ErrRunning = errors.New("realtime: runtime already started")

// Config configures a Runtime.
type Config struct {
	TickRate         time.Duration // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxEventsPerTick int           // Batch capacity; Send fails beyond it

	// OnTick, if set, is called on the tick goroutine after every tick.
	OnTick func(TickReport)
}

// TickReport summarises one processed tick.
type TickReport struct {
	Tick     uint64
	Events   int
	Handled  int
	Duration time.Duration
}

// Runtime batches events and dispatches them to a handler once per tick.
type Runtime[E any] struct {
	h   dispatch.Handler[E]
	cfg Config

	mu      sync.Mutex
	batch   []queued[E]
	seq     uint64
	tickNum uint64

	// run serialises ticks, so hand-driven and timed ticks never overlap.
	run sync.Mutex

	cancel  context.CancelFunc
	stopped chan struct{}
	err     error
}

// New creates a runtime in front of h. Zero config fields take defaults.
func New[E any](h dispatch.Handler[E], cfg Config) *Runtime[E] {
	if cfg.MaxEventsPerTick <= 0 {
		cfg.MaxEventsPerTick = DefaultMaxEventsPerTick
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	return &Runtime[E]{
		h:     h,
		cfg:   cfg,
		batch: make([]queued[E], 0, cfg.MaxEventsPerTick),
	}
}

// Start launches the tick loop. It runs until Stop is called, ctx is
// cancelled or the handler panics.
func (rt *Runtime[E]) Start(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.stopped != nil {
		return ErrRunning
	}
	ctx, rt.cancel = context.WithCancel(ctx)
	rt.stopped = make(chan struct{})
	go rt.loop(ctx)
	return nil
}

// Stop ends the tick loop and waits for it. Events still batched are
// discarded. It returns the handler panic that ended the loop, if any.
func (rt *Runtime[E]) Stop() error {
	rt.mu.Lock()
	cancel, stopped := rt.cancel, rt.stopped
	rt.mu.Unlock()
	if stopped == nil {
		return nil
	}
	cancel()
	<-stopped
	return rt.err
}

// Send queues an event for the next tick with priority 0.
func (rt *Runtime[E]) Send(e E) error {
	return rt.SendWithPriority(e, 0)
}

// SendWithPriority queues an event for the next tick. Higher priorities
// are dispatched first.
func (rt *Runtime[E]) SendWithPriority(e E, priority int) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if len(rt.batch) >= rt.cfg.MaxEventsPerTick {
		return dispatch.ErrQueueFull
	}
	rt.batch = append(rt.batch, queued[E]{event: e, seq: rt.seq, priority: priority})
	rt.seq++
	return nil
}

// Pending returns the number of events waiting for the next tick.
func (rt *Runtime[E]) Pending() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.batch)
}

// TickNumber returns the number of ticks processed so far.
func (rt *Runtime[E]) TickNumber() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.tickNum
}

// Tick processes one tick immediately: every batched event, in order.
func (rt *Runtime[E]) Tick() TickReport {
	rt.run.Lock()
	defer rt.run.Unlock()

	start := time.Now()
	events := rt.collect()
	sortEvents(events)

	report := TickReport{Events: len(events)}
	for _, q := range events {
		if rt.h.HandleEvent(q.event) {
			report.Handled++
		}
	}
	report.Duration = time.Since(start)

	rt.mu.Lock()
	rt.tickNum++
	report.Tick = rt.tickNum
	rt.mu.Unlock()
	return report
}

// Do runs fn between ticks, for reading engine state safely.
func (rt *Runtime[E]) Do(fn func()) {
	rt.run.Lock()
	defer rt.run.Unlock()
	fn()
}

func (rt *Runtime[E]) collect() []queued[E] {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	events := rt.batch
	rt.batch = make([]queued[E], 0, rt.cfg.MaxEventsPerTick)
	return events
}

func (rt *Runtime[E]) loop(ctx context.Context) {
	defer close(rt.stopped)
	defer func() {
		if r := recover(); r != nil {
			rt.err = fmt.Errorf("realtime: handler panicked at tick %d: %v", rt.TickNumber()+1, r)
		}
	}()

	ticker := time.NewTicker(rt.cfg.TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := rt.Tick()
			if rt.cfg.OnTick != nil {
				rt.cfg.OnTick(report)
			}
		}
	}
}
