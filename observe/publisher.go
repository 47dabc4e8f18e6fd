package observe

import (
	"sync"
	"sync/atomic"

	"github.com/comalice/hsm"
)

// Notification is one published record. Exactly one of Event and
// Transition is set.
type Notification struct {
	Event      *hsm.EventRecord
	Transition *hsm.TransitionRecord
}

// ChannelPublisher is an hsm.Observer that forwards records to a channel.
// Publishing never blocks the engine: records that do not fit are
// dropped and counted.
type ChannelPublisher struct {
	mu      sync.RWMutex
	ch      chan<- Notification
	closed  bool
	dropped atomic.Uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- Notification) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// OnEvent implements hsm.Observer.
func (p *ChannelPublisher) OnEvent(e hsm.EventRecord) {
	p.publish(Notification{Event: &e})
}

// OnTransition implements hsm.Observer.
func (p *ChannelPublisher) OnTransition(t hsm.TransitionRecord) {
	p.publish(Notification{Transition: &t})
}

// Dropped reports how many records were discarded.
func (p *ChannelPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

// Close closes the output channel. Later records are dropped.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

func (p *ChannelPublisher) publish(n Notification) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.ch <- n:
	default:
		p.dropped.Add(1) // non-blocking drop
	}
}
