package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jonchun/mcphealth/observe"
)

const instrumentationName = "github.com/jonchun/mcphealth"

func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// setupTelemetry installs an OTLP span exporter when OTEL_EXPORTER_OTLP_ENDPOINT
// is set and returns an observer bound to the global providers.
func setupTelemetry(ctx context.Context) (*observe.ProbeObserver, func(context.Context) error, error) {
	shutdown := func(context.Context) error { return nil }

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		exporter, err := otlptracehttp.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otelapi.SetTracerProvider(tp)
		shutdown = tp.Shutdown
	}

	observer, err := observe.NewProbeObserver(
		otelapi.GetMeterProvider().Meter(instrumentationName),
		otelapi.GetTracerProvider().Tracer(instrumentationName),
	)
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, fmt.Errorf("initialize probe observability: %w", err)
	}
	return observer, shutdown, nil
}
