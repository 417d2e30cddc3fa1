package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonchun/mcphealth"
	"github.com/jonchun/mcphealth/probe"
	"github.com/jonchun/mcphealth/server"
)

const (
	exitUsage    = 1
	exitNotReady = 2
)

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe URL",
		Short: "Probe an MCP server once and print the result as JSON",
		Long: "probe connects to URL over streamable HTTP, falling back to SSE, and prints the same\n" +
			"JSON body the HTTP endpoint would return. Exits 0 when ready and 2 otherwise.",
		Args: cobra.ExactArgs(1),
		RunE: runProbe,
	}
	cmd.Flags().StringArrayP("header", "H", nil, `Request header as "Key: Value" (repeatable)`)
	cmd.Flags().Duration("timeout", 0, "Per-attempt timeout (default: attempt_timeout from config)")
	cmd.Flags().String("config", "", "Path to config.yaml")
	return cmd
}

func runProbe(cmd *cobra.Command, args []string) error {
	rawHeaders, _ := cmd.Flags().GetStringArray("header")
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	headers, err := parseHeaders(rawHeaders)
	if err != nil {
		return exitError(exitUsage, "%v", err)
	}

	cfg := mcphealth.Config{
		ConfigPath: configPath,
		Logger:     newLogger(cmd, verbose),
		Version:    version,
	}
	if cmd.Flags().Changed("timeout") {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		if timeout < 0 {
			return exitError(exitUsage, "--timeout must be non-negative")
		}
		cfg.AttemptTimeout = &timeout
	}

	svc, err := mcphealth.New(cfg)
	if err != nil {
		return exitError(exitUsage, "%v", err)
	}

	res, probeErr := svc.Prober.Probe(cmd.Context(), probe.Request{URL: args[0], Headers: headers})
	status, body := server.Render(res, probeErr)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		return err
	}

	switch status {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return exitError(exitUsage, "%v", probeErr)
	default:
		return exitError(exitNotReady, "not ready")
	}
}

// parseHeaders turns curl-style "Key: Value" flags into request headers.
func parseHeaders(raw []string) ([]probe.Header, error) {
	headers := make([]probe.Header, 0, len(raw))
	for _, h := range raw {
		key, value, ok := strings.Cut(h, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Key: Value\"", h)
		}
		headers = append(headers, probe.Header{Key: key, Value: strings.TrimSpace(value)})
	}
	return headers, nil
}
