package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fastctx/internal/form"
	"github.com/vango-dev/fastctx/internal/logging"
	"github.com/vango-dev/fastctx/pkg/fastctx"
)

func demoCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the two-field form scenario",
		Long: `Mount an input and a display for each of first and last name, type
into first and then last, and print every render. Only the consumers of
the edited field re-render.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger(cmd.ErrOrStderr(), logging.ParseLevel(root.logLevel))

			out := cmd.OutOrStdout()
			res, err := form.RunScenario(cmd.Context(), out, fastctx.WithLogger(logger))
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  First: %d input renders, %d display renders\n", res.FirstRenders, res.DisplayRenders[0])
			fmt.Fprintf(out, "  Last:  %d input renders, %d display renders\n", res.LastRenders, res.DisplayRenders[1])
			return nil
		},
	}
}
