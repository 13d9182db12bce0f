package fastctx

import "log/slog"

// Scope is one activation of a Context. It owns exactly one Store for its
// lifetime.
type Scope[S any] struct {
	def    *Context[S]
	owner  *owner
	store  *Store[S]
	logger *slog.Logger
}

// ID returns the unique identifier for this scope.
func (s *Scope[S]) ID() uint64 {
	return s.owner.id
}

// Store returns the scope's store.
func (s *Scope[S]) Store() *Store[S] {
	return s.store
}

// Close tears the scope down: nested scopes are closed first, then every
// binding created in this scope is released. The store becomes unreachable
// to lookups. Later calls are no-ops.
func (s *Scope[S]) Close() {
	s.owner.dispose()
}

// Closed reports whether the scope has been closed, directly or through an
// enclosing scope.
func (s *Scope[S]) Closed() bool {
	return s.owner.isDisposed()
}
