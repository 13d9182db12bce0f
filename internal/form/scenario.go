package form

import (
	"context"
	"fmt"
	"io"

	"github.com/vango-dev/fastctx/pkg/fastctx"
)

// Result summarises a scenario run.
type Result struct {
	State          Person
	FirstRenders   int
	LastRenders    int
	FirstDisplay   string
	LastDisplay    string
	DisplayRenders [2]int
}

// RunScenario activates a form scope, mounts an input and a display per
// field, types "Ann" into first and then "Lee" into last, and reports what
// re-rendered. Progress is written to w.
func RunScenario(ctx context.Context, w io.Writer, opts ...fastctx.Option) (Result, error) {
	if w == nil {
		w = io.Discard
	}
	form := NewForm(opts...)

	var res Result
	err := form.Run(ctx, func(ctx context.Context, scope *fastctx.Scope[Person]) error {
		firstIn, err := NewTextInput(ctx, form, "First", First, w)
		if err != nil {
			return err
		}
		lastIn, err := NewTextInput(ctx, form, "Last", Last, w)
		if err != nil {
			return err
		}
		firstOut, err := NewDisplay(ctx, form, "First", First, w)
		if err != nil {
			return err
		}
		lastOut, err := NewDisplay(ctx, form, "Last", Last, w)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "-- type first=Ann")
		if err := firstIn.Type("Ann"); err != nil {
			return err
		}
		if lastOut.Value() != "" {
			return fmt.Errorf("last display changed to %q on a first-name update", lastOut.Value())
		}

		fmt.Fprintln(w, "-- type last=Lee")
		if err := lastIn.Type("Lee"); err != nil {
			return err
		}

		res = Result{
			State:          scope.Store().Get(),
			FirstRenders:   firstIn.Renders(),
			LastRenders:    lastIn.Renders(),
			FirstDisplay:   firstOut.Value(),
			LastDisplay:    lastOut.Value(),
			DisplayRenders: [2]int{firstOut.Renders(), lastOut.Renders()},
		}
		fmt.Fprintf(w, "-- state %+v\n", res.State)
		return nil
	})
	return res, err
}
