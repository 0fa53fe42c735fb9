package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/csheth/prepboard/internal/config"
	"github.com/csheth/prepboard/internal/llm"
	"github.com/csheth/prepboard/internal/logger"
)

const serviceName = "prepboard-relay"

// Options configures the relay HTTP server.
type Options struct {
	Addr              string
	MaxRequestBytes   int64
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowOrigins      []string
	// Tracing is "", "stdout" or "otlp".
	Tracing string
	// LessonTimeout bounds a single provider call; zero leaves it to the client.
	LessonTimeout time.Duration
}

// OptionsFromConfig maps the relay and llm config sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.Relay.Addr,
		MaxRequestBytes:   cfg.Relay.MaxRequestBytes,
		ReadHeaderTimeout: cfg.Relay.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.Relay.IdleTimeout.Duration,
		ShutdownTimeout:   cfg.Relay.ShutdownTimeout.Duration,
		AllowOrigins:      cfg.Relay.AllowOrigins,
		Tracing:           cfg.Relay.Tracing,
		LessonTimeout:     cfg.LLM.Timeout.Duration,
	}
}

// Server exposes a lesson provider over HTTP for browsers and remote terminals.
type Server struct {
	opts   Options
	client llm.Client
	log    *logger.Logger
	engine *gin.Engine
}

func New(opts Options, client llm.Client, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = 10 << 20
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}
	s := &Server{opts: opts, client: client, log: log}
	s.engine = s.routes()
	return s
}

// Handler returns the gin engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	if s.opts.Tracing != "" {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(requestID())
	r.Use(accessLog(s.log))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.fail(c, fmt.Errorf("panic: %v", recovered))
	}))
	r.Use(corsFor(s.opts.AllowOrigins))

	r.GET("/healthz", s.health)
	api := r.Group("/api")
	{
		api.POST("/lesson", s.lesson)
	}
	return r
}

func corsFor(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", headerRequestID},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln and shuts down gracefully once ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	shutdownTracing, err := setupTracing(ctx, s.opts.Tracing, s.log)
	if err != nil {
		ln.Close()
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			s.log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		IdleTimeout:       s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("relay listening", "addr", ln.Addr().String(), "provider", s.client.Name())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		s.log.Info("relay shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
