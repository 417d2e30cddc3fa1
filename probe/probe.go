// Package probe checks whether a remote MCP server is reachable and lists the
// tools it advertises.
package probe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultAttemptTimeout = 15 * time.Second

// Tool is the projection of a remote tool reported to callers.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"inputSchema"`
}

// Result is the outcome of a probe that did not fail. Ready results carry the
// remote tools in catalog order; otherwise Reason says why the server is not
// ready.
type Result struct {
	Ready     bool
	Tools     []Tool
	Reason    string
	Transport TransportKind
}

type Prober struct {
	transports     []Transport
	attemptTimeout time.Duration
	httpClient     *http.Client
	clientVersion  string
	observer       Observer
	logger         *slog.Logger
}

type Option func(*Prober)

// WithTransports replaces the transport preference order.
func WithTransports(transports ...Transport) Option {
	return func(p *Prober) { p.transports = transports }
}

// WithAttemptTimeout bounds each transport attempt. Zero disables the bound.
func WithAttemptTimeout(d time.Duration) Option {
	return func(p *Prober) { p.attemptTimeout = d }
}

// WithHTTPClient sets the base client used by the default transports.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Prober) { p.httpClient = c }
}

// WithClientVersion sets the client version advertised by the default transports.
func WithClientVersion(v string) Option {
	return func(p *Prober) { p.clientVersion = v }
}

func WithObserver(o Observer) Option {
	return func(p *Prober) {
		if o != nil {
			p.observer = o
		}
	}
}

func NewProber(logger *slog.Logger, opts ...Option) *Prober {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Prober{
		attemptTimeout: defaultAttemptTimeout,
		clientVersion:  defaultClientVersion,
		observer:       nopObserver{},
		logger:         logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.transports == nil {
		p.transports = DefaultTransports(p.httpClient, p.clientVersion)
	}
	return p
}

// AttemptTimeout reports the per-attempt bound in effect.
func (p *Prober) AttemptTimeout() time.Duration { return p.attemptTimeout }

// Probe connects to req.URL, preferring earlier transports and falling back on
// failure, reads the tool catalog and closes the session.
//
// A missing URL returns ErrURLRequired. Fatal failures are *URLError,
// *ConnectError, *CatalogError or *CloseError. A catalog without a tools
// collection is a NotReady result with a nil error.
func (p *Prober) Probe(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	id := uuid.NewString()
	logger := p.logger.With("probe_id", id, "url", req.URL)
	ctx = p.observer.StartProbe(ctx, id)

	res, err := p.probe(ctx, logger, id, req)

	outcome := OutcomeOf(res, err)
	attrs := []any{
		"outcome", string(outcome),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if res.Transport != "" {
		attrs = append(attrs, "transport", string(res.Transport))
	}
	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
	case res.Ready:
		attrs = append(attrs, "tools", len(res.Tools))
	default:
		attrs = append(attrs, "reason", res.Reason)
	}
	logger.InfoContext(ctx, "probe", attrs...)

	p.observer.ObserveProbe(ctx, ProbeObservation{
		ProbeID:   id,
		Outcome:   outcome,
		Transport: transportOf(res, err),
		ToolCount: len(res.Tools),
		Started:   start,
		Duration:  time.Since(start),
		Err:       err,
	})
	return res, err
}

func (p *Prober) probe(ctx context.Context, logger *slog.Logger, id string, req Request) (Result, error) {
	if req.URL == "" {
		return Result{}, ErrURLRequired
	}
	endpoint, err := parseEndpoint(req.URL)
	if err != nil {
		return Result{}, err
	}

	a, err := p.connect(ctx, logger, id, endpoint, FlattenHeaders(req.Headers))
	if err != nil {
		return Result{}, err
	}
	defer a.cancel()

	catalog, err := a.session.ListTools(a.ctx, &mcp.ListToolsParams{})
	if err != nil {
		_ = a.session.Close()
		return Result{Transport: a.kind}, &CatalogError{Transport: a.kind, Err: err}
	}
	if err := a.session.Close(); err != nil {
		return Result{Transport: a.kind}, &CloseError{Transport: a.kind, Err: err}
	}

	if catalog == nil || catalog.Tools == nil {
		return Result{Reason: ReasonNoTools, Transport: a.kind}, nil
	}
	logger.DebugContext(ctx, "probe.tools", "transport", string(a.kind), "tools", len(catalog.Tools))
	return Result{Ready: true, Tools: projectTools(catalog.Tools), Transport: a.kind}, nil
}

// attempt is a connected session together with the deadline that bounds it.
type attempt struct {
	ctx     context.Context
	cancel  context.CancelFunc
	session Session
	kind    TransportKind
}

func (p *Prober) connect(ctx context.Context, logger *slog.Logger, id, endpoint string, headers map[string]string) (*attempt, error) {
	if len(p.transports) == 0 {
		return nil, errors.New("no transports configured")
	}

	var lastErr error
	for i, t := range p.transports {
		attemptCtx, cancel := p.attemptContext(ctx)
		start := time.Now()
		session, err := t.Connect(attemptCtx, endpoint, headers)
		p.observer.ObserveAttempt(ctx, AttemptObservation{
			ProbeID:   id,
			Transport: t.Kind(),
			Success:   err == nil,
			Started:   start,
			Duration:  time.Since(start),
			Err:       err,
		})
		if err == nil {
			logger.InfoContext(ctx, "probe.attempt",
				"transport", string(t.Kind()),
				"outcome", "connected",
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return &attempt{ctx: attemptCtx, cancel: cancel, session: session, kind: t.Kind()}, nil
		}
		cancel()
		lastErr = &ConnectError{Transport: t.Kind(), Err: err}

		last := i == len(p.transports)-1 || ctx.Err() != nil
		outcome := "fallback"
		if last {
			outcome = "error"
		}
		logger.InfoContext(ctx, "probe.attempt",
			"transport", string(t.Kind()),
			"outcome", outcome,
			"error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if last {
			break
		}
	}
	return nil, lastErr
}

func (p *Prober) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.attemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.attemptTimeout)
}

func projectTools(tools []*mcp.Tool) []Tool {
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if t == nil {
			continue
		}
		out = append(out, Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return out
}

func transportOf(res Result, err error) TransportKind {
	var connectErr *ConnectError
	if errors.As(err, &connectErr) {
		return connectErr.Transport
	}
	return res.Transport
}
