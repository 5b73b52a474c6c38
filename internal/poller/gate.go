package poller

import (
	"context"
	"sync"
)

// Gate blocks the scheduler loop while paused.
//
// An open gate lets [Gate.Wait] return immediately. Closing it makes
// subsequent waits block until the gate is opened again or the context is
// cancelled. The zero value is not usable; use [NewGate].
type Gate struct {
	mu   sync.Mutex
	open chan struct{} // closed while the gate is open
}

// NewGate returns an open gate.
func NewGate() *Gate {
	ch := make(chan struct{})
	close(ch)
	return &Gate{open: ch}
}

// Close makes future waits block. Closing a closed gate is a no-op.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	select {
	case <-g.open:
		g.open = make(chan struct{})
	default:
	}
}

// Open releases every waiter. Opening an open gate is a no-op.
func (g *Gate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()

	select {
	case <-g.open:
	default:
		close(g.open)
	}
}

// IsOpen reports whether a wait would return immediately.
func (g *Gate) IsOpen() bool {
	g.mu.Lock()
	ch := g.open
	g.mu.Unlock()

	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the gate is open or ctx is done, returning ctx.Err()
// in the latter case.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		ch := g.open
		g.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}

		// the gate may have been closed again between Open and our wakeup
		if g.IsOpen() {
			return ctx.Err()
		}
	}
}
