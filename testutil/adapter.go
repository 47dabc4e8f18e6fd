// Package testutil helps test code built on hsm engines: adapters that
// run the same checks against a directly driven engine and one behind a
// dispatch queue, plus testify-style assertions.
package testutil

import (
	"context"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/dispatch"
)

// RuntimeAdapter provides a common interface for a bare engine and a
// queued one. This allows running the same test suite on both.
type RuntimeAdapter[E comparable] interface {
	Start(ctx context.Context) error
	Stop() error
	SendEvent(event E) (bool, error)
	IsInState(name string) (bool, error)
	CurrentState() (string, error)
}

// DirectAdapter drives an engine on the calling goroutine.
type DirectAdapter[C any, E comparable] struct {
	e *hsm.Engine[C, E]
}

// NewDirectAdapter creates a new adapter for a bare engine.
func NewDirectAdapter[C any, E comparable](e *hsm.Engine[C, E]) *DirectAdapter[C, E] {
	return &DirectAdapter[C, E]{e: e}
}

func (a *DirectAdapter[C, E]) Start(context.Context) error {
	return a.e.Initialize()
}

func (a *DirectAdapter[C, E]) Stop() error {
	return nil
}

func (a *DirectAdapter[C, E]) SendEvent(event E) (bool, error) {
	return a.e.HandleEvent(event), nil
}

func (a *DirectAdapter[C, E]) IsInState(name string) (bool, error) {
	return inState(a.e, name), nil
}

func (a *DirectAdapter[C, E]) CurrentState() (string, error) {
	return a.e.CurrentStateName(), nil
}

// QueuedAdapter drives an engine through a dispatch.Queue; every call,
// including the state queries, runs on the queue goroutine.
type QueuedAdapter[C any, E comparable] struct {
	e *hsm.Engine[C, E]
	q *dispatch.Queue[E]
}

// NewQueuedAdapter creates a new adapter serialising access through a queue.
func NewQueuedAdapter[C any, E comparable](e *hsm.Engine[C, E], opts ...dispatch.Option[E]) *QueuedAdapter[C, E] {
	return &QueuedAdapter[C, E]{e: e, q: dispatch.New[E](e, opts...)}
}

func (a *QueuedAdapter[C, E]) Start(ctx context.Context) error {
	if err := a.q.Start(ctx); err != nil {
		return err
	}
	var err error
	if doErr := a.q.Do(ctx, func() { err = a.e.Initialize() }); doErr != nil {
		return doErr
	}
	return err
}

func (a *QueuedAdapter[C, E]) Stop() error {
	return a.q.Stop()
}

func (a *QueuedAdapter[C, E]) SendEvent(event E) (bool, error) {
	return a.q.SendSync(context.Background(), event)
}

// IsInState fails with dispatch.ErrStopped once the adapter is stopped.
func (a *QueuedAdapter[C, E]) IsInState(name string) (bool, error) {
	var in bool
	err := a.q.Do(context.Background(), func() { in = inState(a.e, name) })
	return in, err
}

// CurrentState fails with dispatch.ErrStopped once the adapter is stopped.
func (a *QueuedAdapter[C, E]) CurrentState() (string, error) {
	var s string
	err := a.q.Do(context.Background(), func() { s = a.e.CurrentStateName() })
	return s, err
}

func inState[C any, E comparable](e *hsm.Engine[C, E], name string) bool {
	id, ok := e.Graph().Lookup(name)
	return ok && e.IsInState(id)
}
