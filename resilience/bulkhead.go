package resilience

import (
	"context"
	"sync/atomic"
)

// Bulkhead caps how many calls run at once. Callers over the cap queue
// until a slot frees up or their context ends.
type Bulkhead struct {
	name    string
	slots   chan struct{}
	waiting atomic.Int64
}

// NewBulkhead creates a bulkhead admitting up to limit concurrent calls.
// A limit below one is raised to one.
func NewBulkhead(name string, limit int) *Bulkhead {
	return &Bulkhead{
		name:  name,
		slots: make(chan struct{}, max(limit, 1)),
	}
}

// Do runs fn once a slot is free. If ctx ends first, fn is not called and
// the context error is returned.
func (b *Bulkhead) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case b.slots <- struct{}{}:
	default:
		b.waiting.Add(1)
		select {
		case b.slots <- struct{}{}:
			b.waiting.Add(-1)
		case <-ctx.Done():
			b.waiting.Add(-1)
			return ctx.Err()
		}
	}
	defer func() { <-b.slots }()
	return fn()
}

// Name returns the bulkhead name.
func (b *Bulkhead) Name() string { return b.name }

// Limit returns the slot count.
func (b *Bulkhead) Limit() int { return cap(b.slots) }

// InFlight returns the number of calls holding a slot.
func (b *Bulkhead) InFlight() int { return len(b.slots) }

// Waiting returns the number of callers queued for a slot.
func (b *Bulkhead) Waiting() int { return int(b.waiting.Load()) }
