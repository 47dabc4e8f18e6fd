package realtime

import (
	"cmp"
	"slices"
)

// queued adds sequencing metadata for deterministic ordering.
type queued[E any] struct {
	event    E
	seq      uint64
	priority int
}

// sortEvents orders a batch: higher priority first, then submission order.
func sortEvents[E any](events []queued[E]) {
	slices.SortStableFunc(events, func(a, b queued[E]) int {
		if c := cmp.Compare(b.priority, a.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
}
