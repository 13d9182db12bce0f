package fastctx

import (
	"context"
	"time"
)

// SetEvent describes one Set call.
type SetEvent struct {
	// Context is the context the store's scope was activated with, or
	// context.Background for standalone stores. Tracing observers parent
	// their spans on it.
	Context context.Context

	// Store is the store name.
	Store string

	// Fields lists the fields present in the partial update.
	Fields []string

	// Subscribers is the number of listeners in the notification snapshot.
	Subscribers int
}

// SetResult is reported when the fan-out of a Set finished.
type SetResult struct {
	// Notified is the number of listeners actually invoked.
	Notified int

	// Duration covers merge, commit and fan-out.
	Duration time.Duration
}

// Observer receives instrumentation callbacks from stores, scopes and
// bindings. Implementations must be cheap and must not call back into the
// store.
type Observer interface {
	// SetStarted is called after the merge is committed and before fan-out.
	// The returned func is called once fan-out finished.
	SetStarted(e SetEvent) func(SetResult)

	// SelectorEvaluated is called each time a binding re-runs its selector.
	SelectorEvaluated(store string, changed bool)

	// SubscriptionsChanged is called with +1 or -1 when a listener is added
	// to or removed from a store.
	SubscriptionsChanged(store string, delta int)

	// ScopesChanged is called with +1 when a scope is activated and -1 when
	// it is closed.
	ScopesChanged(store string, delta int)
}

// NopObserver ignores every callback.
type NopObserver struct{}

func (NopObserver) SetStarted(SetEvent) func(SetResult) { return func(SetResult) {} }
func (NopObserver) SelectorEvaluated(string, bool) {}
func (NopObserver) SubscriptionsChanged(string, int) {}
func (NopObserver) ScopesChanged(string, int) {}

type multiObserver []Observer

// Observers returns an Observer that forwards to every non-nil observer in
// order.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return NopObserver{}
	case 1:
		return out[0]
	}
	return out
}

func (m multiObserver) SetStarted(e SetEvent) func(SetResult) {
	done := make([]func(SetResult), len(m))
	for i, o := range m {
		done[i] = o.SetStarted(e)
	}
	return func(r SetResult) {
		for i := len(done) - 1; i >= 0; i-- {
			done[i](r)
		}
	}
}

func (m multiObserver) SelectorEvaluated(store string, changed bool) {
	for _, o := range m {
		o.SelectorEvaluated(store, changed)
	}
}

func (m multiObserver) SubscriptionsChanged(store string, delta int) {
	for _, o := range m {
		o.SubscriptionsChanged(store, delta)
	}
}

func (m multiObserver) ScopesChanged(store string, delta int) {
	for _, o := range m {
		o.ScopesChanged(store, delta)
	}
}
