package fastctx

// Field is a typed lens on one field of S.
//
//	var First = fastctx.NewField("first", func(p *Person) *string { return &p.First })
//
//	store.Set(First.Set("Jane"))
//	b, _ := fastctx.Bind(ctx, People, First.Get)
type Field[S, V any] struct {
	name string
	ref  func(*S) *V
}

// NewField creates a lens. ref must return a pointer into the struct it is
// given. NewField panics if ref is nil.
func NewField[S, V any](name string, ref func(*S) *V) Field[S, V] {
	if ref == nil {
		panic("fastctx: NewField called with nil accessor for " + name)
	}
	return Field[S, V]{name: name, ref: ref}
}

// Name returns the field name reported in Partial.Fields.
func (f Field[S, V]) Name() string {
	return f.name
}

// Get reads the field from a snapshot. It is a pure selector.
func (f Field[S, V]) Get(s S) V {
	return *f.ref(&s)
}

// Set returns a Partial overwriting this field with v.
func (f Field[S, V]) Set(v V) Partial[S] {
	ref := f.ref
	return Update(f.name, func(s *S) {
		*ref(s) = v
	})
}
