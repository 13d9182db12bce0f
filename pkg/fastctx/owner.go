package fastctx

import (
	"context"
	"sync"
	"sync/atomic"
)

// owner is one activated scope in the scope tree. Disposing an owner
// disposes its children first (last created first), then runs its cleanups
// in reverse registration order.
type owner struct {
	id uint64

	// parent is nil for a root scope.
	parent *owner

	children   []*owner
	childrenMu sync.Mutex

	// cleanups are keyed so a binding closed early can deregister itself.
	cleanups   map[uint64]func()
	cleanupSeq []uint64
	cleanupsMu sync.Mutex

	// values maps definition keys to their store for this scope.
	values   map[any]any
	valuesMu sync.RWMutex

	disposed atomic.Bool
}

// ownerKey is the context.Context key holding the innermost *owner.
type ownerKey struct{}

func newOwner(parent *owner) *owner {
	o := &owner{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		parent.addChild(o)
	}
	return o
}

// ownerFrom returns the innermost owner carried by ctx, or nil.
func ownerFrom(ctx context.Context) *owner {
	if ctx == nil {
		return nil
	}
	o, _ := ctx.Value(ownerKey{}).(*owner)
	return o
}

func withOwner(ctx context.Context, o *owner) context.Context {
	return context.WithValue(ctx, ownerKey{}, o)
}

func (o *owner) isDisposed() bool {
	return o.disposed.Load()
}

func (o *owner) addChild(child *owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()
	o.children = append(o.children, child)
}

func (o *owner) removeChild(child *owner) {
	o.childrenMu.Lock()
	defer o.childrenMu.Unlock()

	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}

// onCleanup registers fn to run when the owner is disposed and returns a
// function that deregisters it. If the owner is already disposed fn runs
// immediately.
func (o *owner) onCleanup(fn func()) (remove func()) {
	if o.disposed.Load() {
		fn()
		return func() {}
	}

	id := nextID()
	o.cleanupsMu.Lock()
	if o.cleanups == nil {
		o.cleanups = make(map[uint64]func())
	}
	o.cleanups[id] = fn
	o.cleanupSeq = append(o.cleanupSeq, id)
	o.cleanupsMu.Unlock()

	return func() {
		o.cleanupsMu.Lock()
		defer o.cleanupsMu.Unlock()
		if _, ok := o.cleanups[id]; !ok {
			return
		}
		delete(o.cleanups, id)
		for i, v := range o.cleanupSeq {
			if v == id {
				o.cleanupSeq = append(o.cleanupSeq[:i], o.cleanupSeq[i+1:]...)
				break
			}
		}
	}
}

func (o *owner) setValue(key, value any) {
	o.valuesMu.Lock()
	defer o.valuesMu.Unlock()

	if o.values == nil {
		o.values = make(map[any]any)
	}
	o.values[key] = value
}

// lookup returns the value for key from the nearest live owner, walking up
// the parent chain and skipping disposed owners.
func (o *owner) lookup(key any) (any, bool) {
	for cur := o; cur != nil; cur = cur.parent {
		if cur.disposed.Load() {
			continue
		}
		cur.valuesMu.RLock()
		v, ok := cur.values[key]
		cur.valuesMu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// dispose disposes children in reverse order, then runs cleanups in reverse
// order. Later calls are no-ops.
func (o *owner) dispose() {
	if o.disposed.Swap(true) {
		return
	}

	if o.parent != nil {
		o.parent.removeChild(o)
	}

	o.childrenMu.Lock()
	children := o.children
	o.children = nil
	o.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].dispose()
	}

	o.cleanupsMu.Lock()
	seq := o.cleanupSeq
	cleanups := o.cleanups
	o.cleanupSeq = nil
	o.cleanups = nil
	o.cleanupsMu.Unlock()

	for i := len(seq) - 1; i >= 0; i-- {
		if fn, ok := cleanups[seq[i]]; ok {
			fn()
		}
	}

	o.valuesMu.Lock()
	o.values = nil
	o.valuesMu.Unlock()
}
