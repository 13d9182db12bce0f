package fastctx

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// BindOption configures a Binding.
type BindOption[V any] func(*bindConfig[V])

type bindConfig[V any] struct {
	equal    func(V, V) bool
	onChange func(V)
}

// WithEquals sets the equality used to decide whether a re-evaluated
// projection changed. The default is == for basic types and
// reflect.DeepEqual otherwise.
func WithEquals[V any](fn func(a, b V) bool) BindOption[V] {
	return func(c *bindConfig[V]) {
		c.equal = fn
	}
}

// OnChange sets the callback invoked with the new projection each time it
// changes. It runs synchronously inside the store's Set and may itself call
// Set or Mutate.
func OnChange[V any](fn func(V)) BindOption[V] {
	return func(c *bindConfig[V]) {
		c.onChange = fn
	}
}

// Binding is a consumer's subscription to one projection of a store.
//
// On every Set the selector is re-run against the fresh state. The cached
// projection, and the OnChange callback, are only updated when the result
// differs from the previous one. The selector is never skipped; only
// propagation of an unchanged result is.
type Binding[S, V any] struct {
	id       uint64
	store    *Store[S]
	selector func(S) V
	equal    func(V, V) bool
	onChange func(V)

	value V
	mu    sync.Mutex

	evaluations atomic.Uint64
	changes     atomic.Uint64

	closed        atomic.Bool
	closeOnce     sync.Once
	unsubscribe   Unsubscribe
	removeCleanup func()

	logger *slog.Logger
}

// Bind resolves c's innermost active scope from ctx and binds selector to
// its store. The binding is released when Close is called or when the scope
// is closed, whichever happens first.
//
// Bind returns ErrNoActiveScope if ctx carries no active scope of c.
func Bind[S, V any](ctx context.Context, c *Context[S], selector func(S) V, opts ...BindOption[V]) (*Binding[S, V], error) {
	scope, err := c.scope(ctx)
	if err != nil {
		return nil, err
	}

	b := newBinding(scope.store, selector, opts)
	b.removeCleanup = scope.owner.onCleanup(b.Close)
	return b, nil
}

// BindStore binds selector directly to a store, without a scope. The caller
// must Close the binding.
func BindStore[S, V any](store *Store[S], selector func(S) V, opts ...BindOption[V]) *Binding[S, V] {
	return newBinding(store, selector, opts)
}

func newBinding[S, V any](store *Store[S], selector func(S) V, opts []BindOption[V]) *Binding[S, V] {
	if selector == nil {
		panic("fastctx: Bind called with nil selector")
	}

	var cfg bindConfig[V]
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.equal == nil {
		cfg.equal = defaultEquals[V]
	}

	b := &Binding[S, V]{
		id:       nextID(),
		store:    store,
		selector: selector,
		equal:    cfg.equal,
		onChange: cfg.onChange,
	}
	b.logger = store.logger.With("binding_id", b.id)
	b.value = selector(store.Get())
	b.evaluations.Add(1)
	b.unsubscribe = store.Subscribe(b)
	return b
}

// ID returns the unique identifier for this binding. It is also the
// listener ID used for the store subscription.
func (b *Binding[S, V]) ID() uint64 {
	return b.id
}

// Notify re-runs the selector against the current state. It is called by the
// store; consumers do not call it.
func (b *Binding[S, V]) Notify() {
	if b.closed.Load() {
		return
	}

	next := b.selector(b.store.Get())
	b.evaluations.Add(1)

	b.mu.Lock()
	changed := !b.equal(b.value, next)
	if changed {
		b.value = next
	}
	b.mu.Unlock()

	b.store.observer.SelectorEvaluated(b.store.name, changed)
	if !changed {
		return
	}
	b.changes.Add(1)
	if b.onChange != nil {
		b.onChange(next)
	}
}

// Get returns the current projection. It returns ErrStaleBinding after the
// binding or its scope was closed.
func (b *Binding[S, V]) Get() (V, error) {
	if b.closed.Load() {
		var zero V
		return zero, ErrStaleBinding.WithDetailf("binding %d on store %q", b.id, b.store.name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, nil
}

// Mutate forwards p to the store's Set. It returns ErrStaleBinding after the
// binding or its scope was closed.
func (b *Binding[S, V]) Mutate(p Partial[S]) error {
	if b.closed.Load() {
		return ErrStaleBinding.WithDetailf("binding %d on store %q", b.id, b.store.name)
	}
	b.store.Set(p)
	return nil
}

// Close releases the store subscription. It is safe to call more than once
// and is called automatically when the binding's scope closes.
func (b *Binding[S, V]) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		b.unsubscribe()
		if b.removeCleanup != nil {
			b.removeCleanup()
		}
		b.logger.Debug("binding closed",
			"evaluations", b.evaluations.Load(),
			"changes", b.changes.Load())
	})
}

// Closed reports whether the binding has been released.
func (b *Binding[S, V]) Closed() bool {
	return b.closed.Load()
}

// Evaluations returns how many times the selector ran, including the
// initial evaluation.
func (b *Binding[S, V]) Evaluations() uint64 {
	return b.evaluations.Load()
}

// Changes returns how many re-evaluations produced a changed projection.
func (b *Binding[S, V]) Changes() uint64 {
	return b.changes.Load()
}

// Use reads one projection from c's innermost active scope without keeping
// a subscription, returning the value and the store's Set.
func Use[S, V any](ctx context.Context, c *Context[S], selector func(S) V) (V, func(Partial[S]), error) {
	store, err := c.Lookup(ctx)
	if err != nil {
		var zero V
		return zero, nil, err
	}
	return selector(store.Get()), store.Set, nil
}

// FieldBinding is a Binding on one struct field selected by name.
type FieldBinding[S any] struct {
	*Binding[S, any]
	name string
}

// BindField binds the field of S named name (fastctx tag, json tag or Go
// name). It returns ErrUnknownField or ErrNotStruct for a bad name, and
// ErrNoActiveScope outside a scope of c.
func BindField[S any](ctx context.Context, c *Context[S], name string, opts ...BindOption[any]) (*FieldBinding[S], error) {
	canonical, err := fieldName[S](name)
	if err != nil {
		return nil, err
	}
	selector, err := SelectField[S](name)
	if err != nil {
		return nil, err
	}
	b, err := Bind(ctx, c, selector, opts...)
	if err != nil {
		return nil, err
	}
	return &FieldBinding[S]{Binding: b, name: canonical}, nil
}

// Name returns the canonical field name.
func (f *FieldBinding[S]) Name() string {
	return f.name
}

// Set writes v to the bound field. The value is checked like Fields does.
func (f *FieldBinding[S]) Set(v any) error {
	if f.Closed() {
		return ErrStaleBinding.WithDetailf("field binding %q", f.name)
	}
	p, err := Fields[S](map[string]any{f.name: v})
	if err != nil {
		return err
	}
	return f.Mutate(p)
}
