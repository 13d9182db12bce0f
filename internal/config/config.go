package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	ferrors "github.com/vango-dev/fastctx/internal/errors"
)

const (
	// EnvPrefix prefixes every environment variable read by this package.
	EnvPrefix = "FASTCTX_"

	// DefaultAddr is the default server listen address.
	DefaultAddr = ":8080"

	// DefaultMetricsPath is the default Prometheus endpoint.
	DefaultMetricsPath = "/metrics"
)

// Config is the demo server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string `env:"ADDR" envDefault:":8080"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// MetricsPath is where Prometheus metrics are served. Empty disables it.
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`

	// Namespace is the Prometheus metrics namespace.
	Namespace string `env:"METRICS_NAMESPACE" envDefault:"fastctx"`

	// TracerName is the OpenTelemetry tracer name.
	TracerName string `env:"TRACER_NAME" envDefault:"fastctx"`

	// ReadBufferSize is the WebSocket read buffer size in bytes.
	ReadBufferSize int `env:"WS_READ_BUFFER_SIZE" envDefault:"1024"`

	// WriteBufferSize is the WebSocket write buffer size in bytes.
	WriteBufferSize int `env:"WS_WRITE_BUFFER_SIZE" envDefault:"1024"`
}

// Load reads the given .env files, overlays the process environment and
// parses the result. Missing files are skipped.
func Load(files ...string) (*Config, error) {
	vars, err := readEnvFiles(files)
	if err != nil {
		return nil, err
	}
	for k, v := range env.ToMap(os.Environ()) {
		vars[k] = v
	}
	return Parse(vars)
}

// Parse builds a Config from an environment map and validates it. A nil map
// reads the process environment.
func Parse(environ map[string]string) (*Config, error) {
	var cfg Config
	err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return nil, ferrors.New("F050").Wrap(fmt.Errorf("parse env: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	vars := make(map[string]string)
	for _, path := range files {
		if path == "" {
			continue
		}
		m, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, ferrors.New("F050").
				WithDetailf("reading %s", path).
				Wrap(err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}
	return vars, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return ferrors.New("F050").WithDetail("FASTCTX_ADDR must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return ferrors.New("F050").
			WithDetailf("log level %q is not recognised", c.LogLevel).
			WithSuggestion("Set FASTCTX_LOG_LEVEL or --log-level to debug, info, warn or error")
	}
	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		return ferrors.New("F050").
			WithDetailf("FASTCTX_METRICS_PATH %q must start with /", c.MetricsPath)
	}
	if c.ReadBufferSize < 0 || c.WriteBufferSize < 0 {
		return ferrors.New("F050").WithDetail("WebSocket buffer sizes must not be negative")
	}
	return nil
}
