package fastctx

import "log/slog"

// config holds store settings shared by Store and Context.
type config struct {
	name     string
	logger   *slog.Logger
	observer Observer
}

// Option configures a Store or a Context.
type Option func(*config)

// WithName sets the name used in logs, metrics and errors.
// Default: "store".
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the structured logger.
// If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithObserver sets the instrumentation observer. Use Observers to combine
// several.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}

func newConfig(opts []Option) config {
	c := config{name: "store"}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.name == "" {
		c.name = "store"
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.observer == nil {
		c.observer = NopObserver{}
	}
	return c
}
