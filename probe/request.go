package probe

import (
	"errors"
	"net/url"
	"strings"
)

// Header is one caller-supplied request header. The sequence form keeps the
// caller's ordering so duplicate keys resolve deterministically.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Request describes the remote MCP endpoint to probe.
type Request struct {
	URL     string   `json:"url"`
	Headers []Header `json:"headers,omitempty"`
}

// FlattenHeaders maps headers into a key/value set. Entries with an empty key
// are skipped and later entries overwrite earlier ones with the same key.
func FlattenHeaders(headers []Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		if h.Key == "" {
			continue
		}
		out[h.Key] = h.Value
	}
	return out
}

func parseEndpoint(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", &URLError{URL: raw, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return "", &URLError{URL: raw, Err: errors.New("must be an absolute URL")}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", &URLError{URL: raw, Err: errors.New("unsupported scheme " + u.Scheme)}
	}
	return u.String(), nil
}
