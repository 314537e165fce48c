package prms

import (
	"sync"
)

// observers fans a state snapshot out to subscribers. Callbacks run outside
// the owner's lock.
type observers[S any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(S)
}

func (o *observers[S]) add(fn func(S)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]func(S))
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.fns, id)
	}
}

func (o *observers[S]) notify(s S) {
	o.mu.Lock()
	fns := make([]func(S), 0, len(o.fns))
	for _, fn := range o.fns {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (o *observers[S]) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fns = nil
}

// inflight allows one outstanding call per named action.
type inflight struct {
	mu  sync.Mutex
	ops map[string]bool
}

func (g *inflight) acquire(op string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ops == nil {
		g.ops = make(map[string]bool)
	}
	if g.ops[op] {
		return nil, ErrInProgress
	}
	g.ops[op] = true
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.ops, op)
	}, nil
}
