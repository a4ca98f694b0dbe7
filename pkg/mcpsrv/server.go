package mcpsrv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/usestring/threatfox/internal/mcp"
	"github.com/usestring/threatfox/internal/mcp/tools"
	"github.com/usestring/threatfox/internal/query"
	"github.com/usestring/threatfox/pkg/client"
)

const metricsShutdownTimeout = 5 * time.Second

// Server is the ThreatFox MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal    *mcp.Server
	deps        *Deps
	metricsAddr string
	metrics     http.Handler
}

// NewServer creates a new MCP server with builtin ThreatFox tools.
//
// The client parameter is required; the server does not close it.
// Use functional options to add custom tools, metrics, etc.
func NewServer(c *client.Client, opts ...Option) (*Server, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}

	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	engine := query.NewEngine()
	toolDeps := &tools.Deps{
		Client:   c,
		Resolver: cfg.resolver,
		Query:    engine,
	}
	// Same values, different type for the public API
	deps := &Deps{
		Client:   c,
		Resolver: cfg.resolver,
		Query:    engine,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}
	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, internalOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	s := &Server{
		internal: internal,
		deps:     deps,
	}
	if cfg.metricsAddr != "" && cfg.gatherer != nil {
		s.metricsAddr = cfg.metricsAddr
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
		s.metrics = mux
	}
	return s, nil
}

// Run starts the MCP server with stdio transport and, when configured, the
// metrics endpoint. The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.metrics != nil {
		stop, err := s.serveMetrics()
		if err != nil {
			return err
		}
		defer stop()
	}
	return s.internal.Run(ctx)
}

func (s *Server) serveMetrics() (func(), error) {
	ln, err := net.Listen("tcp", s.metricsAddr)
	if err != nil {
		return nil, fmt.Errorf("listening for metrics on %s: %w", s.metricsAddr, err)
	}

	srv := &http.Server{
		Handler:           s.metrics,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	slog.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("metrics server shutdown", "error", err)
		}
	}, nil
}

// MetricsHandler returns the /metrics handler, or nil when metrics are disabled.
func (s *Server) MetricsHandler() http.Handler {
	return s.metrics
}

// MCPServer returns the underlying MCP server, e.g. to connect an in-memory transport.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}
