// Package form is a two-field demo built on fastctx: a text input and a
// display per field, each bound to one field of a shared Person store, so a
// keystroke in one input only re-renders the consumers of that field.
package form

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vango-dev/fastctx/pkg/fastctx"
)

// Person is the form state.
type Person struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Field lenses.
var (
	First = fastctx.NewField("first", func(p *Person) *string { return &p.First })
	Last  = fastctx.NewField("last", func(p *Person) *string { return &p.Last })
)

// NewForm creates the store definition for a Person form. Options are
// applied after the default name "form".
func NewForm(opts ...fastctx.Option) *fastctx.Context[Person] {
	return fastctx.Create(Person{}, append([]fastctx.Option{fastctx.WithName("form")}, opts...)...)
}

// consumer is the shared part of TextInput and Display: a binding on one
// string field plus a render counter.
type consumer struct {
	kind    string
	label   string
	field   fastctx.Field[Person, string]
	binding *fastctx.Binding[Person, string]
	out     io.Writer

	mu      sync.Mutex
	renders int
	last    string
}

func newConsumer(ctx context.Context, form *fastctx.Context[Person], kind, label string, field fastctx.Field[Person, string], w io.Writer) (*consumer, error) {
	if w == nil {
		w = io.Discard
	}
	c := &consumer{kind: kind, label: label, field: field, out: w}

	b, err := fastctx.Bind(ctx, form, field.Get, fastctx.OnChange(c.render))
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", label, kind, err)
	}
	c.binding = b

	v, err := b.Get()
	if err != nil {
		return nil, err
	}
	c.render(v)
	return c, nil
}

func (c *consumer) render(v string) {
	c.mu.Lock()
	c.renders++
	c.last = v
	c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s rendering: %q\n", c.label, c.kind, v)
}

// Value returns the last rendered value.
func (c *consumer) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Renders returns how many times the consumer rendered, the initial render
// included.
func (c *consumer) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// Close releases the binding.
func (c *consumer) Close() {
	c.binding.Close()
}

// TextInput edits one field.
type TextInput struct {
	*consumer
}

// NewTextInput binds an input for field to the innermost form scope in ctx.
func NewTextInput(ctx context.Context, form *fastctx.Context[Person], label string, field fastctx.Field[Person, string], w io.Writer) (*TextInput, error) {
	c, err := newConsumer(ctx, form, "input", label, field, w)
	if err != nil {
		return nil, err
	}
	return &TextInput{consumer: c}, nil
}

// Type replaces the field value, as if the user typed it.
func (t *TextInput) Type(value string) error {
	return t.binding.Mutate(t.field.Set(value))
}

// Display shows one field read-only.
type Display struct {
	*consumer
}

// NewDisplay binds a display for field to the innermost form scope in ctx.
func NewDisplay(ctx context.Context, form *fastctx.Context[Person], label string, field fastctx.Field[Person, string], w io.Writer) (*Display, error) {
	c, err := newConsumer(ctx, form, "display", label, field, w)
	if err != nil {
		return nil, err
	}
	return &Display{consumer: c}, nil
}
