package fastctx

// Partial is a shallow update of S: an ordered list of field overwrites.
// Fields not named in a Partial keep their current value when merged.
//
// The zero Partial is empty; merging it leaves the state unchanged.
type Partial[S any] struct {
	updates []fieldUpdate[S]
}

type fieldUpdate[S any] struct {
	field string
	apply func(*S)
}

// Update returns a Partial overwriting one field. apply receives a pointer to
// a shallow copy of the current state and must only assign the named field.
// Prefer NewField, Fields or PatchOf.
func Update[S any](field string, apply func(*S)) Partial[S] {
	return Partial[S]{updates: []fieldUpdate[S]{{field: field, apply: apply}}}
}

// Fields returns the names of the fields overwritten by p, in order and
// without duplicates.
func (p Partial[S]) Fields() []string {
	if len(p.updates) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(p.updates))
	out := make([]string, 0, len(p.updates))
	for _, u := range p.updates {
		if _, ok := seen[u.field]; ok {
			continue
		}
		seen[u.field] = struct{}{}
		out = append(out, u.field)
	}
	return out
}

// Has reports whether p overwrites field.
func (p Partial[S]) Has(field string) bool {
	for _, u := range p.updates {
		if u.field == field {
			return true
		}
	}
	return false
}

// Empty reports whether p overwrites nothing.
func (p Partial[S]) Empty() bool {
	return len(p.updates) == 0
}

// And returns a Partial applying p then each of more. When several overwrite
// the same field the last one wins.
func (p Partial[S]) And(more ...Partial[S]) Partial[S] {
	n := len(p.updates)
	for _, m := range more {
		n += len(m.updates)
	}
	out := make([]fieldUpdate[S], 0, n)
	out = append(out, p.updates...)
	for _, m := range more {
		out = append(out, m.updates...)
	}
	return Partial[S]{updates: out}
}

// Merge returns current with every field named in p overwritten.
// The merge is shallow: a field holding a struct, slice or map is replaced as
// a whole, never merged recursively.
func Merge[S any](current S, p Partial[S]) S {
	next := current
	for _, u := range p.updates {
		u.apply(&next)
	}
	return next
}
