// Package mcphealth checks whether remote MCP servers are reachable and lists
// the tools they advertise, over HTTP, MCP or the command line.
package mcphealth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jonchun/mcphealth/config"
	"github.com/jonchun/mcphealth/probe"
	"github.com/jonchun/mcphealth/server"
)

const (
	// DefaultListenAddr is used when neither the config file nor the
	// environment sets listen_addr.
	DefaultListenAddr = ":8080"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

type Config struct {
	// ConfigPath overrides the config file location. If empty,
	// $XDG_CONFIG_HOME/mcphealth/config.yaml is read.
	ConfigPath string

	// Logger is the structured logger shared by the prober and servers. If nil,
	// a discard logger is used.
	Logger *slog.Logger

	// Observer receives probe telemetry. If nil, nothing is recorded.
	Observer probe.Observer

	// HTTPClient is the base client for outbound probes. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client

	// AttemptTimeout, when non-nil, overrides attempt_timeout from the config file.
	AttemptTimeout *time.Duration

	// Name overrides the MCP server implementation name (default: "mcphealth").
	Name string

	// Version overrides the MCP server implementation version (default: "0.1.0").
	Version string
}

// Service is a configured prober plus the settings its servers need.
type Service struct {
	Prober     *probe.Prober
	ListenAddr string

	logger     *slog.Logger
	httpOpts   []server.HTTPOption
	serverOpts server.ServerOptions
}

// New builds a Service, loading settings from the config file and environment.
func New(cfg Config) (*Service, error) {
	userCfg, err := loadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var probeOpts []probe.Option
	if userCfg.AttemptTimeout != nil {
		probeOpts = append(probeOpts, probe.WithAttemptTimeout(userCfg.AttemptTimeout.Duration()))
	}
	if cfg.AttemptTimeout != nil {
		probeOpts = append(probeOpts, probe.WithAttemptTimeout(*cfg.AttemptTimeout))
	}
	if userCfg.ClientVersion != nil {
		probeOpts = append(probeOpts, probe.WithClientVersion(*userCfg.ClientVersion))
	}
	if cfg.HTTPClient != nil {
		probeOpts = append(probeOpts, probe.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Observer != nil {
		probeOpts = append(probeOpts, probe.WithObserver(cfg.Observer))
	}

	var httpOpts []server.HTTPOption
	if userCfg.RequestTimeout != nil {
		httpOpts = append(httpOpts, server.WithRequestTimeout(userCfg.RequestTimeout.Duration()))
	}
	if userCfg.MaxBodyBytes != nil {
		httpOpts = append(httpOpts, server.WithMaxBodyBytes(*userCfg.MaxBodyBytes))
	}

	listenAddr := DefaultListenAddr
	if userCfg.ListenAddr != nil {
		listenAddr = *userCfg.ListenAddr
	}

	return &Service{
		Prober:     probe.NewProber(logger, probeOpts...),
		ListenAddr: listenAddr,
		logger:     logger,
		httpOpts:   httpOpts,
		serverOpts: server.ServerOptions{Name: cfg.Name, Version: cfg.Version},
	}, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// Handler returns the HTTP surface: the probe endpoint, /healthz and the MCP
// endpoint at /mcp.
func (s *Service) Handler() http.Handler {
	mcpHandler := server.NewMCPHandler(s.Prober, s.logger, s.serverOpts)
	opts := append([]server.HTTPOption{server.WithMCPHandler(mcpHandler)}, s.httpOpts...)
	return server.NewHTTPServer(s.Prober, s.logger, opts...).Router()
}

// Serve serves Handler on ln until ctx is done, then shuts down gracefully.
// It returns early with an error if ln stops accepting.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan struct{})
	shutdownErr := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.InfoContext(ctx, "serve", "addr", ln.Addr().String())
	err := srv.Serve(ln)
	close(done)
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}
	// Serve returns as soon as Shutdown starts; wait for the drain.
	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr, or s.ListenAddr when addr is empty, and
// serves until ctx is done.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.ListenAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// RunStdio serves the MCP tool over stdin/stdout.
func (s *Service) RunStdio(ctx context.Context) error {
	return server.RunStdio(ctx, s.Prober, s.logger, s.serverOpts)
}

// RunStdio creates a service from cfg and runs it over stdin/stdout.
func RunStdio(ctx context.Context, cfg Config) error {
	svc, err := New(cfg)
	if err != nil {
		return err
	}
	return svc.RunStdio(ctx)
}
