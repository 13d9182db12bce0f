package fastctx

import (
	"errors"
	"reflect"
	"testing"
)

type address struct {
	City string
	Zip  string
}

type profile struct {
	Name    string   `fastctx:"name"`
	Age     int      `json:"age,omitempty"`
	Tags    []string `json:"tags"`
	Home    address
	Nick    *string
	Ignored string `json:"-"`
	Visits  uint
	Level   int8
	Score   float32
	secret  string
}

func TestPartialFields(t *testing.T) {
	p := firstField.Set("a").And(lastField.Set("b"), firstField.Set("c"))

	if got := p.Fields(); !reflect.DeepEqual(got, []string{"first", "last"}) {
		t.Errorf("Fields() = %v", got)
	}
	if !p.Has("last") || p.Has("middle") {
		t.Error("Has() mismatch")
	}
	if p.Empty() {
		t.Error("Empty() = true for non-empty partial")
	}
	if !(Partial[person]{}).Empty() {
		t.Error("zero Partial should be empty")
	}
	if (Partial[person]{}).Fields() != nil {
		t.Error("zero Partial should have nil Fields")
	}
}

func TestMergeIsShallow(t *testing.T) {
	current := profile{Home: address{City: "Oslo", Zip: "0150"}, Tags: []string{"a"}}

	homeField := NewField("home", func(p *profile) *address { return &p.Home })
	next := Merge(current, homeField.Set(address{City: "Bergen"}))

	// Nested struct replaced as a whole: Zip is not carried over.
	if next.Home != (address{City: "Bergen"}) {
		t.Errorf("Home = %+v, want whole replacement", next.Home)
	}
	if current.Home.City != "Oslo" {
		t.Error("Merge modified the input state")
	}
	if &next.Tags[0] != &current.Tags[0] {
		t.Error("untouched slice field should be shared, not copied")
	}
}

func TestNewFieldNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil accessor")
		}
	}()
	NewField[person, string]("first", nil)
}

func TestFieldLens(t *testing.T) {
	if firstField.Name() != "first" {
		t.Errorf("Name() = %q", firstField.Name())
	}
	if got := lastField.Get(person{Last: "Lee"}); got != "Lee" {
		t.Errorf("Get() = %q", got)
	}
}

func TestFieldsByName(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		want    profile
		wantErr error
	}{
		{
			name:   "fastctx tag",
			values: map[string]any{"name": "Ann"},
			want:   profile{Name: "Ann"},
		},
		{
			name:   "json tag with options",
			values: map[string]any{"age": 41},
			want:   profile{Age: 41},
		},
		{
			name:   "go name",
			values: map[string]any{"Home": address{City: "Oslo"}},
			want:   profile{Home: address{City: "Oslo"}},
		},
		{
			name:   "case insensitive",
			values: map[string]any{"HOME": address{Zip: "1"}},
			want:   profile{Home: address{Zip: "1"}},
		},
		{
			name:   "json dash still reachable by go name",
			values: map[string]any{"Ignored": "x"},
			want:   profile{Ignored: "x"},
		},
		{
			name:   "numeric conversion",
			values: map[string]any{"age": int64(7)},
			want:   profile{Age: 7},
		},
		{
			name:   "integral float into int",
			values: map[string]any{"age": float64(42)},
			want:   profile{Age: 42},
		},
		{
			name:   "int into uint",
			values: map[string]any{"Visits": 3},
			want:   profile{Visits: 3},
		},
		{
			name:   "int into float",
			values: map[string]any{"Score": 2},
			want:   profile{Score: 2},
		},
		{
			name:    "fractional float into int",
			values:  map[string]any{"age": 1.5},
			wantErr: ErrFieldType,
		},
		{
			name:    "negative into uint",
			values:  map[string]any{"Visits": -1},
			wantErr: ErrFieldType,
		},
		{
			name:    "negative float into uint",
			values:  map[string]any{"Visits": -2.0},
			wantErr: ErrFieldType,
		},
		{
			name:    "int overflows int8",
			values:  map[string]any{"Level": 300},
			wantErr: ErrFieldType,
		},
		{
			name:    "uint overflows int8",
			values:  map[string]any{"Level": uint64(128)},
			wantErr: ErrFieldType,
		},
		{
			name:    "float overflows float32",
			values:  map[string]any{"Score": 1e300},
			wantErr: ErrFieldType,
		},
		{
			name:    "float beyond int64",
			values:  map[string]any{"age": 1e19},
			wantErr: ErrFieldType,
		},
		{
			name:   "nil zeroes nilable field",
			values: map[string]any{"tags": nil},
			want:   profile{},
		},
		{
			name:    "unknown field",
			values:  map[string]any{"middle": "x"},
			wantErr: ErrUnknownField,
		},
		{
			name:    "unexported field",
			values:  map[string]any{"secret": "x"},
			wantErr: ErrUnknownField,
		},
		{
			name:    "type mismatch",
			values:  map[string]any{"name": 5},
			wantErr: ErrFieldType,
		},
		{
			name:    "nil for non-nilable",
			values:  map[string]any{"age": nil},
			wantErr: ErrFieldType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Fields[profile](tt.values)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := Merge(profile{}, p); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Merge = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFieldsCanonicalNamesSorted(t *testing.T) {
	p, err := Fields[profile](map[string]any{"Name": "a", "AGE": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Keys sorted as given ("AGE" < "Name"), reported by canonical name.
	if got := p.Fields(); !reflect.DeepEqual(got, []string{"age", "name"}) {
		t.Errorf("Fields() = %v", got)
	}
}

func TestFieldsNotStruct(t *testing.T) {
	if _, err := Fields[int](map[string]any{"x": 1}); !errors.Is(err, ErrNotStruct) {
		t.Errorf("err = %v, want ErrNotStruct", err)
	}
	if _, err := Fields[*person](map[string]any{"first": "x"}); !errors.Is(err, ErrNotStruct) {
		t.Errorf("pointer state: err = %v, want ErrNotStruct", err)
	}
}

type personPatch struct {
	First *string `json:"first"`
	Last  *string
}

func TestPatchOf(t *testing.T) {
	name := "Jane"
	p, err := PatchOf[person](personPatch{First: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Merge(person{First: "x", Last: "keep"}, p)
	if got != (person{First: "Jane", Last: "keep"}) {
		t.Errorf("Merge = %+v", got)
	}

	// Patch values are copied when the Partial is built.
	name = "changed"
	if again := Merge(person{}, p); again.First != "Jane" {
		t.Errorf("First = %q, want Jane", again.First)
	}
}

func TestPatchOfPointerAndNil(t *testing.T) {
	last := "Lee"
	p, err := PatchOf[person](&personPatch{Last: &last})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.Fields(); !reflect.DeepEqual(got, []string{"last"}) {
		t.Errorf("Fields() = %v", got)
	}

	empty, err := PatchOf[person]((*personPatch)(nil))
	if err != nil || !empty.Empty() {
		t.Errorf("nil patch: partial=%v err=%v", empty.Fields(), err)
	}
}

func TestPatchOfErrors(t *testing.T) {
	type nonPointer struct{ First string }
	type unknown struct{ Middle *string }
	type wrongType struct{ First *int }

	if _, err := PatchOf[person](nonPointer{}); !errors.Is(err, ErrFieldType) {
		t.Errorf("non-pointer field: err = %v", err)
	}
	if _, err := PatchOf[person](unknown{}); !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown field: err = %v", err)
	}
	if _, err := PatchOf[person](wrongType{}); !errors.Is(err, ErrFieldType) {
		t.Errorf("wrong type: err = %v", err)
	}
	if _, err := PatchOf[person](42); !errors.Is(err, ErrNotStruct) {
		t.Errorf("non-struct patch: err = %v", err)
	}
}

func TestSelectField(t *testing.T) {
	sel, err := SelectField[person]("last")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sel(person{Last: "Lee"}); got != "Lee" {
		t.Errorf("selector = %v", got)
	}

	if _, err := SelectField[person]("middle"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
}
