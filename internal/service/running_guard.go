package service

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// RunGuard: at most one export run at a time
// ─────────────────────────────────────────────────────────────

// RunGuard is held by a shell for the duration of a run so a second
// trigger is refused instead of running concurrently.
type RunGuard struct {
	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// TryLock marks a run as started. Returns false if one is already running.
func (g *RunGuard) TryLock() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	g.running = true
	g.wg.Add(1)
	return true
}

// Unlock marks the run as finished. Must be called after TryLock returns true.
func (g *RunGuard) Unlock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running {
		return
	}
	g.running = false
	g.wg.Done()
}

// Running reports whether a run is in progress.
func (g *RunGuard) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Wait blocks until the current run completes or ctx is cancelled.
func (g *RunGuard) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
