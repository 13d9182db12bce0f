package fastctx

// Listener is anything that can be notified when a store commits a new state.
type Listener interface {
	// Notify is called once per Set, after the new state is committed.
	Notify()

	// ID returns a unique identifier for this listener.
	// Subscriptions are deduplicated by ID.
	ID() uint64
}

// Unsubscribe removes a subscription. Calls after the first are no-ops.
type Unsubscribe func()

type funcListener struct {
	id uint64
	fn func()
}

func (l *funcListener) Notify()    { l.fn() }
func (l *funcListener) ID() uint64 { return l.id }

// ListenerFunc wraps fn in a Listener with a fresh ID.
func ListenerFunc(fn func()) Listener {
	return &funcListener{id: nextID(), fn: fn}
}
