package workspace

import (
	"context"
	"log"
	"sync"
	"time"
)

// Registry hands out one workspace per session token.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu    sync.Mutex
	items map[string]*entry
}

type entry struct {
	ws       *Workspace
	lastSeen time.Time
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, now: time.Now, items: map[string]*entry{}}
}

// Get returns the workspace of token, creating it on first use.
func (r *Registry) Get(token string) *Workspace {
	key := KeyFor(token)
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.items[key]; ok {
		e.lastSeen = r.now()
		return e.ws
	}
	w := New(token, r.deps)
	r.items[key] = &entry{ws: w, lastSeen: r.now()}
	return w
}

// Drop closes and forgets the workspace of token.
func (r *Registry) Drop(token string) {
	key := KeyFor(token)
	r.mu.Lock()
	e, ok := r.items[key]
	delete(r.items, key)
	r.mu.Unlock()
	if ok {
		e.ws.UserInfo.Forget(e.ws.Context())
		e.ws.Close()
	}
}

// Evict closes the workspaces not requested for longer than idle. Workspaces
// with a chat watcher attached are kept.
func (r *Registry) Evict(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	var stale []*Workspace
	r.mu.Lock()
	for key, e := range r.items {
		if e.lastSeen.Before(cutoff) && !e.ws.Watched() {
			delete(r.items, key)
			stale = append(stale, e.ws)
		}
	}
	r.mu.Unlock()

	for _, w := range stale {
		w.Close()
	}
	return len(stale)
}

// Sweep runs Evict every interval until ctx is done.
func (r *Registry) Sweep(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(idle); n > 0 {
				log.Printf("Evicted %d idle workspaces.", n)
			}
		}
	}
}

// Len is the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Close drops every workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	items := r.items
	r.items = map[string]*entry{}
	r.mu.Unlock()
	for _, e := range items {
		e.ws.Close()
	}
}
