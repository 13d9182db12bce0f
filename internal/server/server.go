package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/fastctx/internal/config"
	"github.com/vango-dev/fastctx/internal/form"
	"github.com/vango-dev/fastctx/pkg/fastctx"
)

const shutdownTimeout = 10 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler replaces the promhttp.Handler served on the metrics
// path.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStoreOptions passes options to the form store definition.
func WithStoreOptions(opts ...fastctx.Option) Option {
	return func(s *Server) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// Server serves one form scope.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   http.Handler
	storeOpts []fastctx.Option

	form  *fastctx.Context[form.Person]
	ctx   context.Context
	scope *fastctx.Scope[form.Person]
	loop  *Loop

	router   chi.Router
	upgrader websocket.Upgrader

	mu      sync.Mutex
	streams map[string]*stream

	closeOnce sync.Once
}

// New creates a server and activates its form scope. A nil cfg is parsed
// from the process environment.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.Parse(nil); err != nil {
			return nil, err
		}
	}

	s := &Server{
		cfg:     cfg,
		logger:  slog.Default(),
		metrics: promhttp.Handler(),
		streams: make(map[string]*stream),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.form = form.NewForm(append([]fastctx.Option{fastctx.WithLogger(s.logger)}, s.storeOpts...)...)
	s.loop = NewLoop(DefaultQueueSize, s.logger)
	if err := s.loop.Do(func() {
		s.ctx, s.scope = s.form.Provide(context.Background())
	}); err != nil {
		s.loop.Close()
		return nil, err
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/state", s.handleState)
	r.Get("/fields/{name}", s.handleGetField)
	r.Put("/fields/{name}", s.handlePutField)
	r.Get("/ws/{name}", s.handleStream)
	if s.cfg.MetricsPath != "" && s.metrics != nil {
		r.Handle(s.cfg.MetricsPath, s.metrics)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// State returns the current form state.
func (s *Server) State() (form.Person, error) {
	var st form.Person
	err := s.loop.Do(func() {
		st = s.scope.Store().Get()
	})
	return st, err
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.Close()
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts the HTTP server down and
// closes the scope.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by Shutdown.
		s.closeStreams()
		err := httpServer.Shutdown(shutdownCtx)
		s.Close()
		if err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
		s.logger.Info("server shutdown complete")
		return nil
	}
}

// Close ends all streams, closes the scope and stops the loop.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.closeStreams()
		_ = s.loop.Do(s.scope.Close)
		s.loop.Close()
	})
}

func (s *Server) track(st *stream) {
	s.mu.Lock()
	s.streams[st.id] = st
	s.mu.Unlock()
}

func (s *Server) untrack(st *stream) {
	s.mu.Lock()
	delete(s.streams, st.id)
	s.mu.Unlock()
}

func (s *Server) closeStreams() {
	s.mu.Lock()
	streams := make([]*stream, 0, len(s.streams))
	for _, st := range s.streams {
		streams = append(streams, st)
	}
	s.mu.Unlock()

	for _, st := range streams {
		st.close(websocket.CloseGoingAway)
	}
}
