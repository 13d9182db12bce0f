package fastctx

import "context"

// Context is a reusable store definition: the factory behind every scope of
// one kind of state. It holds the initial state and options; stores only
// exist inside scopes activated with Provide or Run.
//
// Example:
//
//	var PersonStore = fastctx.Create(Person{}, fastctx.WithName("person"))
//
//	func handle(ctx context.Context) error {
//	    return PersonStore.Run(ctx, func(ctx context.Context, _ *fastctx.Scope[Person]) error {
//	        return renderForm(ctx) // consumers call fastctx.Bind(ctx, PersonStore, ...)
//	    })
//	}
type Context[S any] struct {
	// key uniquely identifies this definition in the scope tree.
	key any

	initial S
	cfg     config
}

// contextKey wraps Context to create a unique key type.
type contextKey[S any] struct {
	ctx *Context[S]
}

// Create creates a store definition with an initial state. Each call
// returns an independent definition: scopes of one are never visible to
// lookups of another, even for the same S.
func Create[S any](initial S, opts ...Option) *Context[S] {
	c := &Context[S]{
		initial: initial,
		cfg:     newConfig(opts),
	}
	c.key = contextKey[S]{ctx: c}
	return c
}

// Name returns the definition name.
func (c *Context[S]) Name() string {
	return c.cfg.name
}

// Initial returns the initial state used by Provide.
func (c *Context[S]) Initial() S {
	return c.initial
}

// Provide activates a scope holding a new store with the definition's
// initial state. The returned context carries the scope; pass it to every
// consumer. The caller must Close the scope.
func (c *Context[S]) Provide(ctx context.Context) (context.Context, *Scope[S]) {
	return c.ProvideWith(ctx, c.initial)
}

// ProvideWith is Provide with an explicit initial state.
//
// If ctx already carries an active scope (of any definition) the new scope
// is nested in it: closing the outer scope closes this one too, and lookups
// through the returned context resolve this scope before outer ones.
func (c *Context[S]) ProvideWith(ctx context.Context, initial S) (context.Context, *Scope[S]) {
	if ctx == nil {
		ctx = context.Background()
	}

	// A closed owner still links to its ancestors; nest under the nearest
	// live one.
	parent := ownerFrom(ctx)
	for parent != nil && parent.isDisposed() {
		parent = parent.parent
	}
	o := newOwner(parent)
	ctx = withOwner(ctx, o)

	s := &Scope[S]{
		def:    c,
		owner:  o,
		store:  newStore(ctx, initial, c.cfg),
		logger: c.cfg.logger.With("store", c.cfg.name, "scope_id", o.id),
	}
	o.setValue(c.key, s)

	c.cfg.observer.ScopesChanged(c.cfg.name, 1)
	o.onCleanup(func() {
		c.cfg.observer.ScopesChanged(c.cfg.name, -1)
		s.logger.Debug("scope closed")
	})
	s.logger.Debug("scope activated", "nested", parent != nil)

	return ctx, s
}

// Run activates a scope, calls fn with it and closes the scope on every
// exit path, including a panic in fn.
func (c *Context[S]) Run(ctx context.Context, fn func(context.Context, *Scope[S]) error) error {
	return c.RunWith(ctx, c.initial, fn)
}

// RunWith is Run with an explicit initial state.
func (c *Context[S]) RunWith(ctx context.Context, initial S, fn func(context.Context, *Scope[S]) error) error {
	ctx, scope := c.ProvideWith(ctx, initial)
	defer scope.Close()
	return fn(ctx, scope)
}

// Lookup resolves the store of the innermost active scope of this definition
// reachable from ctx. It returns ErrNoActiveScope if there is none, including
// when the scope that ctx was derived from has been closed.
func (c *Context[S]) Lookup(ctx context.Context) (*Store[S], error) {
	s, err := c.scope(ctx)
	if err != nil {
		return nil, err
	}
	return s.store, nil
}

// MustLookup is like Lookup but panics on error.
func (c *Context[S]) MustLookup(ctx context.Context) *Store[S] {
	s, err := c.Lookup(ctx)
	if err != nil {
		panic(err)
	}
	return s
}

func (c *Context[S]) scope(ctx context.Context) (*Scope[S], error) {
	o := ownerFrom(ctx)
	if o == nil {
		return nil, ErrNoActiveScope.WithDetailf("definition %q: context carries no scope", c.cfg.name)
	}
	v, ok := o.lookup(c.key)
	if !ok {
		return nil, ErrNoActiveScope.WithDetailf("definition %q has no active scope in this context", c.cfg.name)
	}
	return v.(*Scope[S]), nil
}
