package probe

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TransportKind names a transport generation.
type TransportKind string

const (
	TransportStreamable TransportKind = "streamable-http"
	TransportSSE        TransportKind = "sse"
)

const defaultClientVersion = "1.0.0"

// Session is an established client session. *mcp.ClientSession satisfies it.
type Session interface {
	ListTools(ctx context.Context, params *mcp.ListToolsParams) (*mcp.ListToolsResult, error)
	Close() error
}

// Transport opens a session to endpoint using one transport generation.
// Implementations may ignore headers they cannot attach.
type Transport interface {
	Kind() TransportKind
	Connect(ctx context.Context, endpoint string, headers map[string]string) (Session, error)
}

// Streamable connects with the streamable HTTP transport and attaches the
// caller's headers to every request the session makes.
type Streamable struct {
	// HTTPClient is the base client. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// ClientVersion is advertised in the initialize handshake.
	ClientVersion string
}

func (s *Streamable) Kind() TransportKind { return TransportStreamable }

func (s *Streamable) Connect(ctx context.Context, endpoint string, headers map[string]string) (Session, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "streamable-http-client",
		Version: versionOrDefault(s.ClientVersion),
	}, nil)
	transport := &mcp.StreamableClientTransport{
		Endpoint:   endpoint,
		HTTPClient: withHeaders(s.HTTPClient, headers),
	}
	return client.Connect(ctx, transport, nil)
}

// SSE connects with the legacy HTTP+SSE transport. Caller headers are not
// attached.
type SSE struct {
	HTTPClient    *http.Client
	ClientVersion string
}

func (s *SSE) Kind() TransportKind { return TransportSSE }

func (s *SSE) Connect(ctx context.Context, endpoint string, _ map[string]string) (Session, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "sse-client",
		Version: versionOrDefault(s.ClientVersion),
	}, nil)
	transport := &mcp.SSEClientTransport{
		Endpoint:   endpoint,
		HTTPClient: s.HTTPClient,
	}
	return client.Connect(ctx, transport, nil)
}

// DefaultTransports returns the streamable transport followed by the SSE
// fallback.
func DefaultTransports(base *http.Client, clientVersion string) []Transport {
	return []Transport{
		&Streamable{HTTPClient: base, ClientVersion: clientVersion},
		&SSE{HTTPClient: base, ClientVersion: clientVersion},
	}
}

func versionOrDefault(v string) string {
	if v == "" {
		return defaultClientVersion
	}
	return v
}

// headerRoundTripper sets fixed headers on every outgoing request.
type headerRoundTripper struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}

func withHeaders(base *http.Client, headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return base
	}
	if base == nil {
		base = http.DefaultClient
	}
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	clone := *base
	clone.Transport = &headerRoundTripper{base: next, headers: headers}
	return &clone
}
