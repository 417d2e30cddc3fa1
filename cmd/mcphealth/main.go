// Command mcphealth probes MCP servers and serves the prober over HTTP or stdio.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcphealth",
		Short: "Health checks for MCP servers",
		Long:  "mcphealth connects to an MCP server over streamable HTTP or SSE and reports whether it lists any tools.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("mcphealth version %s\n", version))

	root.AddCommand(newServeCmd())
	root.AddCommand(newStdioCmd())
	root.AddCommand(newProbeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcphealth version %s\n", version)
		},
	}
}
