// Package timer implements an in-process trigger registrar on time.AfterFunc.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
)

type entry struct {
	at    time.Time
	timer *time.Timer
	gen   uint64
}

// Registrar keeps at most one pending timer per identifier. Due callbacks run
// on their own goroutine.
type Registrar struct {
	mu      sync.Mutex
	entries map[int32]*entry
	gen     uint64
	now     func() time.Time
}

var (
	_ platform.Registrar   = (*Registrar)(nil)
	_ platform.ArmedLister = (*Registrar)(nil)
)

// New creates an empty registrar.
func New() *Registrar {
	return &Registrar{entries: make(map[int32]*entry), now: time.Now}
}

// Arm schedules r.Fire(id) at the given instant, replacing any pending timer
// for id. Instants in the past fire immediately.
func (g *Registrar) Arm(ctx context.Context, id int32, at time.Time, r platform.Receiver) error {
	fireCtx := context.WithoutCancel(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.entries[id]; ok {
		old.timer.Stop()
	}
	g.gen++
	e := &entry{at: at, gen: g.gen}
	delay := at.Sub(g.now())
	if delay < 0 {
		delay = 0
	}
	e.timer = time.AfterFunc(delay, func() {
		g.mu.Lock()
		cur, ok := g.entries[id]
		if !ok || cur.gen != e.gen {
			g.mu.Unlock()
			return
		}
		delete(g.entries, id)
		g.mu.Unlock()
		r.Fire(fireCtx, id)
	})
	g.entries[id] = e
	return nil
}

// Disarm cancels the pending timer for id, if any.
func (g *Registrar) Disarm(_ context.Context, id int32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.entries[id]; ok {
		e.timer.Stop()
		delete(g.entries, id)
	}
	return nil
}

// Armed returns a snapshot of pending identifiers and their due instants.
func (g *Registrar) Armed() map[int32]time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int32]time.Time, len(g.entries))
	for id, e := range g.entries {
		out[id] = e.at
	}
	return out
}

// Stop cancels every pending timer.
func (g *Registrar) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, e := range g.entries {
		e.timer.Stop()
		delete(g.entries, id)
	}
}
