package fastctx

import (
	"context"
	"errors"
	"testing"
)

func TestBindWithoutScope(t *testing.T) {
	def := Create(person{})

	for i := 0; i < 3; i++ {
		b, err := Bind(context.Background(), def, firstField.Get)
		if !errors.Is(err, ErrNoActiveScope) {
			t.Fatalf("attempt %d: err = %v, want ErrNoActiveScope", i, err)
		}
		if b != nil {
			t.Fatal("binding should be nil on error")
		}
	}
}

func TestBindInitialValue(t *testing.T) {
	def := Create(person{First: "Ann"})
	ctx, scope := def.Provide(context.Background())
	defer scope.Close()

	b, err := Bind(ctx, def, firstField.Get)
	if err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if got := mustGet(t, b.Get); got != "Ann" {
		t.Errorf("Get() = %q, want Ann", got)
	}
	if b.Evaluations() != 1 {
		t.Errorf("Evaluations() = %d, want 1", b.Evaluations())
	}
	if scope.Store().Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", scope.Store().Subscribers())
	}
}

func TestSelectorIsolation(t *testing.T) {
	def := Create(person{})
	ctx, scope := def.Provide(context.Background())
	defer scope.Close()

	var lastChanges int
	b, err := Bind(ctx, def, lastField.Get, OnChange(func(string) { lastChanges++ }))
	if err != nil {
		t.Fatalf("Bind error: %v", err)
	}

	if err := b.Mutate(firstField.Set("X")); err != nil {
		t.Fatalf("Mutate error: %v", err)
	}

	if got := mustGet(t, b.Get); got != "" {
		t.Errorf("last = %q, want unchanged", got)
	}
	if lastChanges != 0 {
		t.Errorf("OnChange called %d times for an unrelated field", lastChanges)
	}
	// The selector still ran: no missed updates.
	if b.Evaluations() != 2 {
		t.Errorf("Evaluations() = %d, want 2", b.Evaluations())
	}
	if b.Changes() != 0 {
		t.Errorf("Changes() = %d, want 0", b.Changes())
	}
}

func TestEndToEndScenario(t *testing.T) {
	def := Create(person{First: "", Last: ""}, WithName("person"))
	ctx, scope := def.Provide(context.Background())
	defer scope.Close()

	first, err := Bind(ctx, def, firstField.Get)
	if err != nil {
		t.Fatalf("Bind first: %v", err)
	}
	last, err := Bind(ctx, def, lastField.Get)
	if err != nil {
		t.Fatalf("Bind last: %v", err)
	}

	if err := first.Mutate(firstField.Set("Ann")); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if got := mustGet(t, first.Get); got != "Ann" {
		t.Errorf("first = %q, want Ann", got)
	}
	if got := mustGet(t, last.Get); got != "" {
		t.Errorf("last = %q, want empty", got)
	}

	if err := first.Mutate(lastField.Set("Lee")); err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if got := mustGet(t, first.Get); got != "Ann" {
		t.Errorf("first = %q, want Ann", got)
	}
	if got := mustGet(t, last.Get); got != "Lee" {
		t.Errorf("last = %q, want Lee", got)
	}
	if got := scope.Store().Get(); got != (person{First: "Ann", Last: "Lee"}) {
		t.Errorf("state = %+v", got)
	}
}

func TestOnChangeReceivesNewValue(t *testing.T) {
	store := NewStore(person{})
	var got []string
	b := BindStore(store, firstField.Get, OnChange(func(v string) { got = append(got, v) }))
	defer b.Close()

	store.Set(firstField.Set("a"))
	store.Set(lastField.Set("z"))
	store.Set(firstField.Set("a"))
	store.Set(firstField.Set("b"))

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("OnChange values = %v, want [a b]", got)
	}
}

func TestWithEquals(t *testing.T) {
	store := NewStore(person{})
	sameLength := func(a, b string) bool { return len(a) == len(b) }

	var calls int
	b := BindStore(store, firstField.Get,
		WithEquals(sameLength),
		OnChange(func(string) { calls++ }))
	defer b.Close()

	store.Set(firstField.Set("ab"))
	store.Set(firstField.Set("cd"))

	if calls != 1 {
		t.Errorf("OnChange calls = %d, want 1", calls)
	}
	if got := mustGet(t, b.Get); got != "ab" {
		t.Errorf("Get() = %q, want ab (equal under custom equality)", got)
	}
}

func TestDerivedSelector(t *testing.T) {
	store := NewStore(person{})
	full := func(p person) string { return p.First + " " + p.Last }

	b := BindStore(store, full)
	defer b.Close()

	store.Set(firstField.Set("Ann").And(lastField.Set("Lee")))
	if got := mustGet(t, b.Get); got != "Ann Lee" {
		t.Errorf("Get() = %q", got)
	}
}

func TestSliceProjectionUsesDeepEqual(t *testing.T) {
	type list struct{ Items []int }
	items := NewField("items", func(l *list) *[]int { return &l.Items })

	store := NewStore(list{Items: []int{1}})
	var calls int
	b := BindStore(store, items.Get, OnChange(func([]int) { calls++ }))
	defer b.Close()

	store.Set(items.Set([]int{1}))
	store.Set(items.Set([]int{1, 2}))

	if calls != 1 {
		t.Errorf("OnChange calls = %d, want 1", calls)
	}
}

func TestBindingClose(t *testing.T) {
	def := Create(person{})
	ctx, scope := def.Provide(context.Background())
	defer scope.Close()

	b, err := Bind(ctx, def, firstField.Get)
	if err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	b.Close()
	b.Close()

	if !b.Closed() {
		t.Error("binding should be closed")
	}
	if scope.Store().Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", scope.Store().Subscribers())
	}
	if _, err := b.Get(); !errors.Is(err, ErrStaleBinding) {
		t.Errorf("Get err = %v, want ErrStaleBinding", err)
	}
	if err := b.Mutate(firstField.Set("x")); !errors.Is(err, ErrStaleBinding) {
		t.Errorf("Mutate err = %v, want ErrStaleBinding", err)
	}
	if scope.Store().Get().First != "" {
		t.Error("stale Mutate must not write to the store")
	}

	// Closing early deregisters the scope cleanup.
	if n := len(scope.owner.cleanupSeq); n != 1 {
		t.Errorf("scope cleanups = %d, want 1 (scope's own)", n)
	}
}

func TestScopeCloseReleasesBindings(t *testing.T) {
	def := Create(person{})
	ctx, scope := def.Provide(context.Background())
	store := scope.Store()

	a, _ := Bind(ctx, def, firstField.Get)
	b, _ := Bind(ctx, def, lastField.Get)
	if store.Subscribers() != 2 {
		t.Fatalf("Subscribers() = %d, want 2", store.Subscribers())
	}

	scope.Close()

	if store.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after scope close, want 0", store.Subscribers())
	}
	for _, closed := range []bool{a.Closed(), b.Closed()} {
		if !closed {
			t.Error("bindings should be closed with their scope")
		}
	}
	if _, err := a.Get(); !errors.Is(err, ErrStaleBinding) {
		t.Errorf("err = %v, want ErrStaleBinding", err)
	}
}

func TestNestedScopeCloseReleasesInnerBindingsOnly(t *testing.T) {
	def := Create(person{})
	outerCtx, outer := def.Provide(context.Background())
	defer outer.Close()
	innerCtx, inner := def.Provide(outerCtx)

	outerBinding, _ := Bind(outerCtx, def, firstField.Get)
	innerBinding, _ := Bind(innerCtx, def, firstField.Get)

	inner.Close()

	if !innerBinding.Closed() {
		t.Error("inner binding should be closed")
	}
	if outerBinding.Closed() {
		t.Error("outer binding should stay open")
	}
	if inner.Store() == outer.Store() {
		t.Error("nested scopes should own distinct stores")
	}
}

func TestBindingMutateFromOnChange(t *testing.T) {
	store := NewStore(person{})

	// Mirror first into last from inside a notification.
	mirror := BindStore(store, firstField.Get)
	mirror.onChange = func(v string) {
		_ = mirror.Mutate(lastField.Set(v))
	}
	defer mirror.Close()

	var lastSeen []string
	last := BindStore(store, lastField.Get, OnChange(func(v string) { lastSeen = append(lastSeen, v) }))
	defer last.Close()

	store.Set(firstField.Set("Ann"))

	if got := store.Get(); got != (person{First: "Ann", Last: "Ann"}) {
		t.Errorf("state = %+v", got)
	}
	if len(lastSeen) != 1 || lastSeen[0] != "Ann" {
		t.Errorf("last binding saw %v, want exactly [Ann]", lastSeen)
	}
}

func TestBindingObserver(t *testing.T) {
	obs := &recordingObserver{}
	store := NewStore(person{}, WithObserver(obs))

	b := BindStore(store, firstField.Get)
	store.Set(firstField.Set("a"))
	store.Set(lastField.Set("b"))
	b.Close()

	if obs.evaluations != 2 || obs.changed != 1 {
		t.Errorf("evaluations=%d changed=%d, want 2/1", obs.evaluations, obs.changed)
	}
	if obs.subscriptions != 0 {
		t.Errorf("net subscriptions = %d, want 0", obs.subscriptions)
	}
}

func TestNilSelectorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil selector")
		}
	}()
	BindStore[person, string](NewStore(person{}), nil)
}

func TestUse(t *testing.T) {
	def := Create(person{First: "Ann"})

	if _, _, err := Use(context.Background(), def, firstField.Get); !errors.Is(err, ErrNoActiveScope) {
		t.Errorf("err = %v, want ErrNoActiveScope", err)
	}

	ctx, scope := def.Provide(context.Background())
	defer scope.Close()

	v, set, err := Use(ctx, def, firstField.Get)
	if err != nil {
		t.Fatalf("Use error: %v", err)
	}
	if v != "Ann" {
		t.Errorf("value = %q, want Ann", v)
	}
	set(lastField.Set("Lee"))
	if scope.Store().Get().Last != "Lee" {
		t.Error("mutate returned by Use should write to the store")
	}
	if scope.Store().Subscribers() != 0 {
		t.Error("Use should not keep a subscription")
	}
}

func TestBindField(t *testing.T) {
	def := Create(person{})
	ctx, scope := def.Provide(context.Background())
	defer scope.Close()

	var seen []any
	fb, err := BindField(ctx, def, "First", OnChange(func(v any) { seen = append(seen, v) }))
	if err != nil {
		t.Fatalf("BindField error: %v", err)
	}
	if fb.Name() != "first" {
		t.Errorf("Name() = %q, want canonical json name", fb.Name())
	}

	if err := fb.Set("Ann"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if got := mustGet(t, fb.Get); got != "Ann" {
		t.Errorf("Get() = %v, want Ann", got)
	}
	if len(seen) != 1 || seen[0] != "Ann" {
		t.Errorf("OnChange saw %v", seen)
	}

	if err := fb.Set(42); !errors.Is(err, ErrFieldType) {
		t.Errorf("err = %v, want ErrFieldType", err)
	}

	fb.Close()
	if err := fb.Set("x"); !errors.Is(err, ErrStaleBinding) {
		t.Errorf("err = %v, want ErrStaleBinding", err)
	}
}

func TestBindFieldErrors(t *testing.T) {
	def := Create(person{})
	if _, err := BindField(context.Background(), def, "first"); !errors.Is(err, ErrNoActiveScope) {
		t.Errorf("err = %v, want ErrNoActiveScope", err)
	}

	ctx, scope := def.Provide(context.Background())
	defer scope.Close()
	if _, err := BindField(ctx, def, "middle"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
}
