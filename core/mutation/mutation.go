// Package mutation coordinates confirmed-write-then-refresh operations against the remote API.
package mutation

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrInFlight     = errors.New("une opération identique est déjà en cours")
	ErrNotConfirmed = errors.New("opération annulée : non confirmée")
)

type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
	KindToggle Kind = "toggle"
)

type State string

const (
	StateIdle             State = "idle"
	StateInFlight         State = "in_flight"
	StateSuccess          State = "success"
	StateCacheInvalidated State = "cache_invalidated"
	StateFailure          State = "failure"
)

// Invalidator is the part of the cache a Coordinator needs.
type Invalidator interface {
	Invalidate(resource string)
}

// Mutation describes one write.
type Mutation struct {
	// Key identifies the logical target, e.g. "notes|KIAM-2026-0001|conduite".
	// Two mutations with the same non-empty key never run concurrently.
	Key       string
	Kind      Kind
	Resources []string // cache resources to invalidate on success
	Do        func(ctx context.Context) error
	// Confirm is required for KindDelete; the mutation is only issued when it returns true.
	Confirm func() bool
}

// Transition is reported to observers on every state change.
type Transition struct {
	Key  string
	Kind Kind
	From State
	To   State
	Err  error
}

// Coordinator runs mutations: on success the affected resources are invalidated and the
// refresh callback is called, on failure the error is returned untouched. There is no retry.
type Coordinator struct {
	cache   Invalidator
	refresh func(ctx context.Context, resources []string)

	mu        sync.Mutex
	inFlight  map[string]bool
	observers []func(Transition)
}

func NewCoordinator(cache Invalidator) *Coordinator {
	return &Coordinator{
		cache:    cache,
		inFlight: make(map[string]bool),
	}
}

// OnRefresh registers the callback called after a successful mutation has invalidated the cache.
func (c *Coordinator) OnRefresh(fn func(ctx context.Context, resources []string)) {
	c.mu.Lock()
	c.refresh = fn
	c.mu.Unlock()
}

// OnChange registers an observer of state transitions.
func (c *Coordinator) OnChange(fn func(Transition)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

func (c *Coordinator) emit(m Mutation, from, to State, err error) {
	c.mu.Lock()
	observers := make([]func(Transition), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	t := Transition{Key: m.Key, Kind: m.Kind, From: from, To: to, Err: err}
	for _, fn := range observers {
		fn(t)
	}
}

// InFlight reports whether a mutation with key is currently running.
func (c *Coordinator) InFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight[key]
}

func (c *Coordinator) acquire(key string) bool {
	if key == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[key] {
		return false
	}
	c.inFlight[key] = true
	return true
}

func (c *Coordinator) release(key string) {
	if key == "" {
		return
	}
	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
}

// Run executes m.
func (c *Coordinator) Run(ctx context.Context, m Mutation) error {
	if m.Kind == KindDelete && (m.Confirm == nil || !m.Confirm()) {
		return ErrNotConfirmed
	}
	if !c.acquire(m.Key) {
		return ErrInFlight
	}
	defer c.release(m.Key)

	c.emit(m, StateIdle, StateInFlight, nil)
	if err := m.Do(ctx); err != nil {
		c.emit(m, StateInFlight, StateFailure, err)
		c.emit(m, StateFailure, StateIdle, nil)
		return err
	}
	c.emit(m, StateInFlight, StateSuccess, nil)

	if c.cache != nil {
		for _, res := range m.Resources {
			c.cache.Invalidate(res)
		}
	}
	c.emit(m, StateSuccess, StateCacheInvalidated, nil)

	c.mu.Lock()
	refresh := c.refresh
	c.mu.Unlock()
	if refresh != nil && ctx.Err() == nil {
		refresh(ctx, m.Resources)
	}
	c.emit(m, StateCacheInvalidated, StateIdle, nil)
	return nil
}

// Confirmed is a Confirm func for callers that already asked (e.g. a -yes flag).
func Confirmed() bool { return true }
