// Package fastctx provides shared mutable state with per-consumer selection.
//
// A Store holds one state value and a set of listeners. Writes are shallow
// partial merges: every field named in the Partial replaces the current one,
// every other field is retained. Each Set is one synchronous merge+notify
// cycle.
//
// # Core Types
//
// Store[S] is the state container:
//
//	s := fastctx.NewStore(Person{})
//	s.Set(First.Set("Jane"))   // shallow merge, notifies listeners
//	p := s.Get()               // committed snapshot
//
// Context[S] is a reusable store definition that can be activated as a scope
// and discovered by consumers through a context.Context:
//
//	var PersonStore = fastctx.Create(Person{}, fastctx.WithName("person"))
//
//	ctx, scope := PersonStore.Provide(ctx)
//	defer scope.Close()
//
// Binding[S, V] is a consumer that depends on one projection of the state. It
// re-runs its selector on every Set and reports only changed results:
//
//	b, err := fastctx.Bind(ctx, PersonStore, Last.Get,
//	    fastctx.OnChange(func(last string) { redraw(last) }))
//	if err != nil {
//	    return err // fastctx.ErrNoActiveScope outside Provide
//	}
//	defer b.Close()
//
//	_ = b.Mutate(First.Set("Ann")) // redraw is not called, Last did not change
//
// # Partial Updates
//
// Partial[S] values come from typed lenses (NewField), from a map of field
// names (Fields) or from a struct of pointer fields (PatchOf). Merging is
// never deep: a nested struct field is replaced as a whole.
//
// # Concurrency
//
// The model is single-threaded and cooperative. Locks only guard memory and
// are never held while listeners run, so a listener may call Set (a nested
// cycle) or Subscribe/Unsubscribe (effective from the next pass). Callers that
// share a store across goroutines should serialise access on one goroutine.
package fastctx
