// Package timerpool recycles timers for the short waits the projector client
// performs between commands.
package timerpool

import (
	"context"
	"sync"
	"time"
)

var timers sync.Pool

// Get returns a timer that fires after d. Return it with Put.
func Get(d time.Duration) *time.Timer {
	if v := timers.Get(); v != nil {
		t, _ := v.(*time.Timer)
		if t.Reset(d) {
			// still active, drain so the caller doesn't see a stale tick
			select {
			case <-t.C:
			default:
			}
		}
		return t
	}

	return time.NewTimer(d)
}

// Put stops t and returns it to the pool. t must not be used afterwards.
func Put(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	timers.Put(t)
}

// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
// A non-positive d returns immediately.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := Get(d)
	defer Put(t)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
