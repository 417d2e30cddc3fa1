package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jonchun/mcphealth/probe"
)

const (
	ProbePath  = "/api/mcp-health"
	HealthPath = "/healthz"
	MCPPath    = "/mcp"

	defaultRequestTimeout = 60 * time.Second
	defaultMaxBodyBytes   = 1 << 20

	unknownError       = "Unknown error"
	invalidRequestBody = "invalid request body"
)

// HTTPServer serves the probe endpoint and, optionally, the MCP endpoint.
type HTTPServer struct {
	prober         Prober
	logger         *slog.Logger
	requestTimeout time.Duration
	maxBodyBytes   int64
	mcpHandler     http.Handler
	router         *chi.Mux
}

type HTTPOption func(*HTTPServer)

func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPServer) { s.requestTimeout = d }
}

func WithMaxBodyBytes(n int64) HTTPOption {
	return func(s *HTTPServer) { s.maxBodyBytes = n }
}

// WithMCPHandler mounts h at /mcp.
func WithMCPHandler(h http.Handler) HTTPOption {
	return func(s *HTTPServer) { s.mcpHandler = h }
}

func NewHTTPServer(prober Prober, logger *slog.Logger, opts ...HTTPOption) *HTTPServer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &HTTPServer{
		prober:         prober,
		logger:         logger,
		requestTimeout: defaultRequestTimeout,
		maxBodyBytes:   defaultMaxBodyBytes,
		router:         chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	s.router.Get(HealthPath, s.handleHealth)
	s.router.Post(ProbePath, s.handleProbe)
	if s.mcpHandler != nil {
		s.router.Handle(MCPPath, s.mcpHandler)
	}

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *HTTPServer) Router() http.Handler { return s.router }

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleProbe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	var req probe.Request
	// An empty body is treated like a body without a url.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		// Well-formed JSON with a mistyped field is a failed probe, not a bad body.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			writeJSON(w, http.StatusServiceUnavailable, notReadyResponse{Error: fmt.Sprintf("decode request: %v", err)})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalidRequestBody})
		return
	}

	// An expired deadline surfaces as a probe error and is answered with 503.
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	res, err := s.prober.Probe(ctx, req)
	status, body := Render(res, err)
	writeJSON(w, status, body)
}

type readyResponse struct {
	Ready bool         `json:"ready"`
	Tools []probe.Tool `json:"tools"`
}

type notReadyResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Render maps a probe outcome to the HTTP status and JSON body of the probe
// endpoint: 400 for a missing URL, 503 for NotReady results and fatal errors,
// 200 otherwise.
func Render(res probe.Result, err error) (int, any) {
	switch {
	case errors.Is(err, probe.ErrURLRequired):
		return http.StatusBadRequest, errorResponse{Error: probe.ErrURLRequired.Error()}
	case err != nil:
		return http.StatusServiceUnavailable, notReadyResponse{Error: errorMessage(err)}
	case !res.Ready:
		reason := res.Reason
		if reason == "" {
			reason = probe.ReasonNoTools
		}
		return http.StatusServiceUnavailable, notReadyResponse{Error: reason}
	default:
		tools := res.Tools
		if tools == nil {
			tools = []probe.Tool{}
		}
		return http.StatusOK, readyResponse{Ready: true, Tools: tools}
	}
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
