package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fastctx/internal/config"
	"github.com/vango-dev/fastctx/internal/logging"
	"github.com/vango-dev/fastctx/internal/server"
	"github.com/vango-dev/fastctx/pkg/fastctx"
	"github.com/vango-dev/fastctx/pkg/observe"
)

func serveCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a form store over HTTP and WebSocket",
		Long: `Serve one form store. Fields are read and written over HTTP and
streamed over WebSocket. Configuration comes from FASTCTX_* variables.

Examples:
  fastctx serve
  fastctx serve --addr :9000 --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.envFiles...)
			if err != nil {
				return err
			}
			if root.logLevel != "" {
				cfg.LogLevel = root.logLevel
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.NewLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
			slog.SetDefault(logger)

			observer := fastctx.Observers(
				observe.NewMetrics(observe.WithNamespace(cfg.Namespace)),
				observe.NewTracing(observe.WithTracerName(cfg.TracerName)),
			)

			srv, err := server.New(cfg,
				server.WithLogger(logger),
				server.WithStoreOptions(fastctx.WithObserver(observer)),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address; overrides FASTCTX_ADDR")
	return cmd
}
