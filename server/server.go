// Package server exposes the prober over HTTP and as an MCP tool.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonchun/mcphealth/probe"
)

// Prober checks a remote MCP endpoint. *probe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, req probe.Request) (probe.Result, error)
}

type ProbeInput struct {
	URL     string         `json:"url" jsonschema:"Absolute http(s) URL of the MCP server to probe"`
	Headers []probe.Header `json:"headers,omitempty" jsonschema:"Headers attached to the streamable HTTP attempt; later keys win"`
}

type ProbeOutput struct {
	Ready     bool         `json:"ready"`
	Tools     []probe.Tool `json:"tools,omitempty"`
	Error     string       `json:"error,omitempty"`
	Transport string       `json:"transport,omitempty"`
}

type ServerOptions struct {
	// Name is the MCP server implementation name. Default: "mcphealth".
	Name string
	// Version is the MCP server implementation version. Default: "0.1.0".
	Version string
}

func NewMCPServer(prober Prober, logger *slog.Logger, opts ...ServerOptions) *mcp.Server {
	name := "mcphealth"
	version := "0.1.0"
	if len(opts) > 0 {
		if opts[0].Name != "" {
			name = opts[0].Name
		}
		if opts[0].Version != "" {
			version = opts[0].Version
		}
	}
	srv := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, &mcp.ServerOptions{Logger: logger})

	mcp.AddTool(srv, &mcp.Tool{
		Name: "probe_mcp_server",
		Description: "Check whether a remote MCP server is reachable and list the tools it advertises. " +
			"Tries the streamable HTTP transport first and falls back to the legacy SSE transport. " +
			"Custom headers are only sent with the streamable HTTP attempt.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(true),
		},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ProbeInput) (*mcp.CallToolResult, ProbeOutput, error) {
		res, err := prober.Probe(ctx, probe.Request{URL: in.URL, Headers: in.Headers})
		if err != nil {
			return nil, ProbeOutput{}, err
		}
		return nil, ProbeOutput{
			Ready:     res.Ready,
			Tools:     res.Tools,
			Error:     res.Reason,
			Transport: string(res.Transport),
		}, nil
	})

	return srv
}

func RunStdio(ctx context.Context, prober Prober, logger *slog.Logger, opts ...ServerOptions) error {
	server := NewMCPServer(prober, logger, opts...)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("run mcp stdio server: %w", err)
	}
	return nil
}

// NewMCPHandler returns an http.Handler serving the MCP tool over streamable HTTP.
func NewMCPHandler(prober Prober, logger *slog.Logger, opts ...ServerOptions) http.Handler {
	srv := NewMCPServer(prober, logger, opts...)
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return srv
	}, nil)
}

func boolPtr(b bool) *bool { return &b }
