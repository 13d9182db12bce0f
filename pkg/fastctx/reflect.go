package fastctx

import (
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// structField describes one settable field of a state struct.
type structField struct {
	index int
	name  string // canonical name reported in Partial.Fields
	typ   reflect.Type
}

type structInfo struct {
	fields []structField
	exact  map[string]int // tag names and Go names
	folded map[string]int // lower-cased names
}

// structCache maps reflect.Type to *structInfo.
var structCache sync.Map

// structInfoOf resolves the settable fields of t. Names are looked up by
// fastctx tag, json tag and Go name, then case-insensitively.
func structInfoOf(t reflect.Type) (*structInfo, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, ErrNotStruct.WithDetailf("%v", t)
	}
	if cached, ok := structCache.Load(t); ok {
		return cached.(*structInfo), nil
	}

	info := &structInfo{
		exact:  make(map[string]int),
		folded: make(map[string]int),
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tagName := tagValue(f.Tag.Get("fastctx"))
		jsonName := tagValue(f.Tag.Get("json"))

		canonical := f.Name
		switch {
		case tagName != "":
			canonical = tagName
		case jsonName != "":
			canonical = jsonName
		}

		pos := len(info.fields)
		info.fields = append(info.fields, structField{index: i, name: canonical, typ: f.Type})
		for _, n := range []string{tagName, jsonName} {
			if n == "" {
				continue
			}
			if _, taken := info.exact[n]; !taken {
				info.exact[n] = pos
			}
		}
		for _, n := range []string{tagName, jsonName, f.Name} {
			if n == "" {
				continue
			}
			if _, taken := info.folded[strings.ToLower(n)]; !taken {
				info.folded[strings.ToLower(n)] = pos
			}
		}
	}
	// Go names only claim exact keys no tag already claimed.
	for pos, sf := range info.fields {
		goName := t.Field(sf.index).Name
		if _, taken := info.exact[goName]; !taken {
			info.exact[goName] = pos
		}
	}

	actual, _ := structCache.LoadOrStore(t, info)
	return actual.(*structInfo), nil
}

func tagValue(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

func (si *structInfo) lookup(name string) (structField, bool) {
	if pos, ok := si.exact[name]; ok {
		return si.fields[pos], true
	}
	if pos, ok := si.folded[strings.ToLower(name)]; ok {
		return si.fields[pos], true
	}
	return structField{}, false
}

func stateInfo[S any]() (*structInfo, error) {
	return structInfoOf(reflect.TypeFor[S]())
}

// coerce converts v to t when it is assignable, when both share a kind
// (named string types, for example), or when both are numeric and the value
// converts without loss.
func coerce(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	if v.Type().AssignableTo(t) {
		return v, true
	}
	if !v.Type().ConvertibleTo(t) {
		return reflect.Value{}, false
	}
	if v.Kind() == t.Kind() {
		return v.Convert(t), true
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) {
		return convertNumeric(v, t)
	}
	return reflect.Value{}, false
}

// convertNumeric converts between numeric kinds only when the value survives:
// no overflow, no dropped fraction and no negative into an unsigned field.
func convertNumeric(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	const (
		two63 = float64(1 << 63)
		two64 = float64(1 << 64)
	)

	out := reflect.New(t).Elem()
	switch {
	case v.CanInt():
		n := v.Int()
		switch {
		case out.CanInt():
			if out.OverflowInt(n) {
				return reflect.Value{}, false
			}
			out.SetInt(n)
		case out.CanUint():
			if n < 0 || out.OverflowUint(uint64(n)) {
				return reflect.Value{}, false
			}
			out.SetUint(uint64(n))
		default:
			out.SetFloat(float64(n))
		}

	case v.CanUint():
		u := v.Uint()
		switch {
		case out.CanInt():
			if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
				return reflect.Value{}, false
			}
			out.SetInt(int64(u))
		case out.CanUint():
			if out.OverflowUint(u) {
				return reflect.Value{}, false
			}
			out.SetUint(u)
		default:
			out.SetFloat(float64(u))
		}

	default:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			if out.CanFloat() {
				out.SetFloat(f)
				return out, true
			}
			return reflect.Value{}, false
		}
		switch {
		case out.CanInt():
			if f != math.Trunc(f) || f < -two63 || f >= two63 || out.OverflowInt(int64(f)) {
				return reflect.Value{}, false
			}
			out.SetInt(int64(f))
		case out.CanUint():
			if f != math.Trunc(f) || f < 0 || f >= two64 || out.OverflowUint(uint64(f)) {
				return reflect.Value{}, false
			}
			out.SetUint(uint64(f))
		default:
			if out.OverflowFloat(f) {
				return reflect.Value{}, false
			}
			out.SetFloat(f)
		}
	}
	return out, true
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func setField[S any](sf structField, v reflect.Value) Partial[S] {
	return Update(sf.name, func(s *S) {
		reflect.ValueOf(s).Elem().Field(sf.index).Set(v)
	})
}

// Fields builds a Partial from field names to values. Keys resolve against
// the fastctx tag, the json tag or the Go name of S's exported fields, then
// case-insensitively. Values must be assignable to the field, of the same
// kind, or numeric and representable in the field without loss: 1.5 into an
// int, -1 into a uint or 300 into an int8 is ErrFieldType. A nil value
// zeroes a nilable field.
//
// Keys are applied in sorted order so Partial.Fields is deterministic.
func Fields[S any](values map[string]any) (Partial[S], error) {
	info, err := stateInfo[S]()
	if err != nil {
		return Partial[S]{}, err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var p Partial[S]
	for _, k := range keys {
		sf, ok := info.lookup(k)
		if !ok {
			return Partial[S]{}, ErrUnknownField.WithDetailf("%q in %v", k, reflect.TypeFor[S]())
		}
		v, ok := coerce(reflect.ValueOf(values[k]), sf.typ)
		if !ok {
			return Partial[S]{}, ErrFieldType.WithDetailf("%q wants %v, got %T", k, sf.typ, values[k])
		}
		p = p.And(setField[S](sf, v))
	}
	return p, nil
}

// PatchOf builds a Partial from a patch struct whose exported fields are
// pointers named like fields of S. A nil pointer means the field is absent:
//
//	type PersonPatch struct {
//	    First *string
//	    Last  *string
//	}
//
//	p, err := fastctx.PatchOf[Person](PersonPatch{First: &name})
//
// patch may also be a pointer to such a struct; a nil pointer is an empty
// Partial.
func PatchOf[S, P any](patch P) (Partial[S], error) {
	info, err := stateInfo[S]()
	if err != nil {
		return Partial[S]{}, err
	}

	pv := reflect.ValueOf(&patch).Elem()
	for pv.Kind() == reflect.Pointer || pv.Kind() == reflect.Interface {
		if pv.IsNil() {
			return Partial[S]{}, nil
		}
		pv = pv.Elem()
	}
	if pv.Kind() != reflect.Struct {
		return Partial[S]{}, ErrNotStruct.WithDetailf("patch %v", pv.Type())
	}
	patchInfo, err := structInfoOf(pv.Type())
	if err != nil {
		return Partial[S]{}, err
	}

	var p Partial[S]
	for _, pf := range patchInfo.fields {
		goName := pv.Type().Field(pf.index).Name
		if pf.typ.Kind() != reflect.Pointer {
			return Partial[S]{}, ErrFieldType.WithDetailf("patch field %s must be a pointer, got %v", goName, pf.typ)
		}
		sf, ok := info.lookup(pf.name)
		if !ok {
			sf, ok = info.lookup(goName)
		}
		if !ok {
			return Partial[S]{}, ErrUnknownField.WithDetailf("patch field %s in %v", goName, reflect.TypeFor[S]())
		}
		if !pf.typ.Elem().AssignableTo(sf.typ) {
			return Partial[S]{}, ErrFieldType.WithDetailf("patch field %s is %v, %q wants %v", goName, pf.typ, sf.name, sf.typ)
		}

		fv := pv.Field(pf.index)
		if fv.IsNil() {
			continue
		}
		// Copy now so later writes through the patch pointer do not leak in.
		v := reflect.New(sf.typ).Elem()
		v.Set(fv.Elem())
		p = p.And(setField[S](sf, v))
	}
	return p, nil
}

// SelectField returns a selector reading one field of S by name.
func SelectField[S any](name string) (func(S) any, error) {
	info, err := stateInfo[S]()
	if err != nil {
		return nil, err
	}
	sf, ok := info.lookup(name)
	if !ok {
		return nil, ErrUnknownField.WithDetailf("%q in %v", name, reflect.TypeFor[S]())
	}
	return func(s S) any {
		return reflect.ValueOf(s).Field(sf.index).Interface()
	}, nil
}

// fieldName returns the canonical name for key in S.
func fieldName[S any](key string) (string, error) {
	info, err := stateInfo[S]()
	if err != nil {
		return "", err
	}
	sf, ok := info.lookup(key)
	if !ok {
		return "", ErrUnknownField.WithDetailf("%q in %v", key, reflect.TypeFor[S]())
	}
	return sf.name, nil
}
