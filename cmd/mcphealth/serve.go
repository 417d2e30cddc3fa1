package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/jonchun/mcphealth"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP health check server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Listen address (default: listen_addr from config, or :8080)")
	cmd.Flags().String("config", "", "Path to config.yaml")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	svc, cleanup, err := newService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return svc.ListenAndServe(cmd.Context(), addr)
}

func newStdioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Serve the probe_mcp_server tool over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE:  runStdio,
	}
	cmd.Flags().String("config", "", "Path to config.yaml")
	return cmd
}

func runStdio(cmd *cobra.Command, _ []string) error {
	svc, cleanup, err := newService(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	err = svc.RunStdio(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newService builds the service shared by serve and stdio. The returned
// cleanup flushes pending spans.
func newService(cmd *cobra.Command) (*mcphealth.Service, func(), error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	configPath, _ := cmd.Flags().GetString("config")
	logger := newLogger(cmd, verbose)

	observer, shutdown, err := setupTelemetry(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	}

	svc, err := mcphealth.New(mcphealth.Config{
		ConfigPath: configPath,
		Logger:     logger,
		Observer:   observer,
		Version:    version,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}
