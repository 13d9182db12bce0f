package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	ferrors "github.com/vango-dev/fastctx/internal/errors"
	"github.com/vango-dev/fastctx/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootOptions struct {
	logLevel string
	envFiles []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "fastctx",
		Short: "Scoped stores with per-field subscriptions",
		Long: `fastctx holds shared state in a scoped store and lets each consumer
bind to one slice of it, so an update only re-renders the consumers
whose slice changed.

  demo   run the two-field form scenario
  serve  expose a form store over HTTP and WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides FASTCTX_LOG_LEVEL")
	rootCmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Env files read before the process environment")

	rootCmd.AddCommand(
		demoCmd(opts),
		serveCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if !logging.IsTerminal(stderr) {
		ferrors.DisableColors()
	}

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		ferrors.PrintError(stderr, err)
		return 1
	}
	return 0
}
