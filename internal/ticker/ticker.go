// Package ticker runs repeating callbacks behind explicit handles so that
// every periodic job is stopped deterministically.
package ticker

import (
	"context"
	"sync"
	"time"
)

// Handle controls one running ticker.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Start calls fn every interval until Stop is called or ctx ends. If
// immediate is true fn also runs once before the first tick.
func Start(ctx context.Context, interval time.Duration, immediate bool, fn func(time.Time)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		if immediate {
			fn(time.Now())
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				fn(now)
			}
		}
	}()
	return h
}

// Stop cancels the ticker and waits for its goroutine to exit. It is safe to
// call more than once.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Done is closed once the ticker goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Group stops a set of handles together.
type Group struct {
	mu      sync.Mutex
	handles []*Handle
}

// Add registers h and returns it.
func (g *Group) Add(h *Handle) *Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handles = append(g.handles, h)
	return h
}

// Stop stops every registered handle.
func (g *Group) Stop() {
	g.mu.Lock()
	hs := g.handles
	g.handles = nil
	g.mu.Unlock()

	for _, h := range hs {
		h.Stop()
	}
}
