package fastctx

import (
	"sync"
	"testing"
)

type person struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

var (
	firstField = NewField("first", func(p *person) *string { return &p.First })
	lastField  = NewField("last", func(p *person) *string { return &p.Last })
)

// testListener counts notifications.
type testListener struct {
	id    uint64
	mu    sync.Mutex
	count int
	onFn  func()
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) Notify() {
	l.mu.Lock()
	l.count++
	fn := l.onFn
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (l *testListener) ID() uint64 { return l.id }

func (l *testListener) getCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// recordingObserver records observer callbacks.
type recordingObserver struct {
	mu            sync.Mutex
	sets          []SetEvent
	results       []SetResult
	evaluations   int
	changed       int
	subscriptions int
	scopes        int
}

func (r *recordingObserver) SetStarted(e SetEvent) func(SetResult) {
	r.mu.Lock()
	r.sets = append(r.sets, e)
	r.mu.Unlock()
	return func(res SetResult) {
		r.mu.Lock()
		r.results = append(r.results, res)
		r.mu.Unlock()
	}
}

func (r *recordingObserver) SelectorEvaluated(_ string, changed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluations++
	if changed {
		r.changed++
	}
}

func (r *recordingObserver) SubscriptionsChanged(_ string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscriptions += delta
}

func (r *recordingObserver) ScopesChanged(_ string, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes += delta
}

func mustGet[V any](t *testing.T, get func() (V, error)) V {
	t.Helper()
	v, err := get()
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	return v
}
