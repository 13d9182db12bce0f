package fastctx

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Store owns one state value and the listeners interested in it.
//
// Get returns the last committed snapshot. Set merges a Partial into the
// current state, commits it and notifies every listener subscribed at the
// time of the call before returning. Each Set is one cycle: nothing is
// batched or coalesced.
type Store[S any] struct {
	id   uint64
	name string

	// state is the committed value.
	state S

	// mu protects state. It is never held while listeners run.
	mu sync.RWMutex

	subs subscriberSet

	// ctx is the context of the scope that created the store.
	ctx context.Context

	logger   *slog.Logger
	observer Observer
}

// NewStore creates a standalone store holding initial.
func NewStore[S any](initial S, opts ...Option) *Store[S] {
	return newStore(context.Background(), initial, newConfig(opts))
}

func newStore[S any](ctx context.Context, initial S, cfg config) *Store[S] {
	id := nextID()
	return &Store[S]{
		id:       id,
		name:     cfg.name,
		state:    initial,
		ctx:      ctx,
		logger:   cfg.logger.With("store", cfg.name, "store_id", id),
		observer: cfg.observer,
	}
}

// ID returns the unique identifier for this store.
func (s *Store[S]) ID() uint64 {
	return s.id
}

// Name returns the store name.
func (s *Store[S]) Name() string {
	return s.name
}

// Get returns the current committed state.
//
// The returned value is a snapshot. Reference-typed fields (slices, maps,
// pointers) are shared with the store and must not be modified in place;
// write through Set instead.
func (s *Store[S]) Get() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set shallow-merges p into the current state, commits the result and
// synchronously notifies every listener.
//
// Listeners are taken from a snapshot made before fan-out: a listener added
// during fan-out first hears the next Set, and a listener removed during
// fan-out is not called afterwards. A listener may call Set itself, which
// runs a nested, independent cycle. If a listener panics the panic
// propagates; the observer still sees the Set finish.
func (s *Store[S]) Set(p Partial[S]) {
	start := time.Now()

	s.mu.Lock()
	s.state = Merge(s.state, p)
	s.mu.Unlock()

	subs := s.subs.snapshot()
	fields := p.Fields()
	done := s.observer.SetStarted(SetEvent{
		Context:     s.ctx,
		Store:       s.name,
		Fields:      fields,
		Subscribers: len(subs),
	})

	notified := 0
	defer func() {
		elapsed := time.Since(start)
		done(SetResult{Notified: notified, Duration: elapsed})
		s.logger.Debug("store set",
			"fields", fields,
			"subscribers", len(subs),
			"notified", notified,
			"duration", elapsed)
	}()

	for _, l := range subs {
		if !s.subs.contains(l.ID()) {
			continue
		}
		notified++
		l.Notify()
	}
}

// Update computes a partial update from the current state and applies it
// with Set. fn must not call back into the store.
func (s *Store[S]) Update(fn func(S) Partial[S]) {
	s.Set(fn(s.Get()))
}

// Subscribe registers l for future notifications and returns a function that
// removes it. Subscribing a listener whose ID is already registered has no
// effect; the returned function still removes it.
func (s *Store[S]) Subscribe(l Listener) Unsubscribe {
	if l == nil {
		return func() {}
	}

	id := l.ID()
	if s.subs.add(l) {
		s.observer.SubscriptionsChanged(s.name, 1)
		s.logger.Debug("listener subscribed", "listener_id", id)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if s.subs.remove(id) {
				s.observer.SubscriptionsChanged(s.name, -1)
				s.logger.Debug("listener unsubscribed", "listener_id", id)
			}
		})
	}
}

// SubscribeFunc registers fn as a new listener.
func (s *Store[S]) SubscribeFunc(fn func()) Unsubscribe {
	return s.Subscribe(ListenerFunc(fn))
}

// Subscribers returns the number of registered listeners.
func (s *Store[S]) Subscribers() int {
	return s.subs.len()
}
