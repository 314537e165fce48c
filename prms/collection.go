package prms

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/GyroTools/prms-connector-go/internals/http"
)

// State is a snapshot of a collection controller. Items keep the order the
// server returned them in.
type State[T any] struct {
	Items     []T
	Loading   bool
	LastError string
}

type draft interface {
	Validate() error
}

// Collection caches one server side list. It is never patched locally: every
// successful mutation is followed by a full reload.
type Collection[T any] struct {
	client *http.Client
	path   string
	logger zerolog.Logger

	mu      sync.Mutex
	state   State[T]
	loadSeq uint64
	closed  bool

	guard     inflight
	observers observers[State[T]]
}

func newCollection[T any](client *http.Client, path string, logger zerolog.Logger) *Collection[T] {
	return &Collection[T]{
		client: client,
		path:   path,
		logger: logger.With().Str("collection", path).Logger(),
		state:  State[T]{Items: []T{}},
	}
}

func (c *Collection[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collection[T]) snapshotLocked() State[T] {
	s := c.state
	s.Items = append(make([]T, 0, len(c.state.Items)), c.state.Items...)
	return s
}

// Subscribe registers fn for every state change and returns a function that
// removes it.
func (c *Collection[T]) Subscribe(fn func(State[T])) func() {
	return c.observers.add(fn)
}

// Close detaches the controller from its view. Calls still in flight finish
// but no longer change state or notify.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.observers.reset()
}

// update applies fn under the lock and publishes the result. It returns false
// when the controller was closed and nothing happened.
func (c *Collection[T]) update(fn func(*State[T])) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	fn(&c.state)
	s := c.snapshotLocked()
	c.mu.Unlock()

	c.observers.notify(s)
	return true
}

func (c *Collection[T]) fail(err error) {
	c.logger.Debug().Err(err).Msg("collection operation failed")
	c.update(func(s *State[T]) {
		s.LastError = err.Error()
	})
}

// Load replaces the items with the server's list. Only the most recently
// started load may publish, so a slow earlier response never overwrites a
// newer one.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	c.update(func(s *State[T]) {
		s.Loading = true
	})

	var items []T
	err := c.client.GetAndParse(ctx, c.path, &items)
	if items == nil {
		items = []T{}
	}

	c.mu.Lock()
	if c.closed || seq != c.loadSeq {
		c.mu.Unlock()
		c.logger.Debug().Uint64("seq", seq).Msg("dropping stale load result")
		return err
	}
	c.state.Loading = false
	if err != nil {
		c.state.LastError = err.Error()
	} else {
		c.state.Items = items
		c.state.LastError = ""
	}
	s := c.snapshotLocked()
	c.mu.Unlock()

	c.observers.notify(s)
	if err != nil {
		c.logger.Debug().Err(err).Msg("load failed")
	}
	return err
}

func (c *Collection[T]) create(ctx context.Context, d draft) error {
	return c.mutate(ctx, "create", func(ctx context.Context) error {
		if err := d.Validate(); err != nil {
			return err
		}
		return c.client.PostAndParse(ctx, c.path, d, nil)
	})
}

// mutate runs one guarded write followed by a resynchronising load. Only one
// write per controller may be outstanding.
func (c *Collection[T]) mutate(ctx context.Context, op string, call func(context.Context) error) error {
	if c.isClosed() {
		return ErrClosed
	}
	release, err := c.guard.acquire("write")
	if err != nil {
		c.logger.Debug().Str("op", op).Msg("write already in progress")
		return err
	}
	defer release()

	if err := call(ctx); err != nil {
		c.fail(err)
		return err
	}
	err = c.Load(ctx)
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (c *Collection[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
