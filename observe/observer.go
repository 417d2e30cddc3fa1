// Package observe records probe telemetry into OpenTelemetry.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonchun/mcphealth/probe"
)

// ProbeObserver turns probe observations into metrics and spans.
type ProbeObserver struct {
	tracer trace.Tracer

	attempts metric.Int64Counter
	probes   metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewProbeObserver creates an observer bound to the provided meter/tracer.
// A nil tracer disables spans.
func NewProbeObserver(meter metric.Meter, tracer trace.Tracer) (*ProbeObserver, error) {
	attempts, err := meter.Int64Counter(
		"mcphealth.probe.attempts",
		metric.WithDescription("Number of transport connect attempts"),
	)
	if err != nil {
		return nil, err
	}
	probes, err := meter.Int64Counter(
		"mcphealth.probe.results",
		metric.WithDescription("Number of finished probes by outcome"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"mcphealth.probe.latency",
		metric.WithDescription("Probe latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ProbeObserver{
		tracer:   tracer,
		attempts: attempts,
		probes:   probes,
		latency:  latency,
	}, nil
}

type probeSpanKey struct{}

// StartProbe opens the mcp.probe span. Attempt spans recorded with the
// returned context are its children; ObserveProbe ends it.
func (o *ProbeObserver) StartProbe(ctx context.Context, probeID string) context.Context {
	if o == nil || o.tracer == nil {
		return ctx
	}
	ctx, span := o.tracer.Start(ctx, "mcp.probe",
		trace.WithAttributes(attribute.String("probe_id", probeID)),
	)
	return context.WithValue(ctx, probeSpanKey{}, span)
}

// ObserveAttempt records one transport connect attempt.
func (o *ProbeObserver) ObserveAttempt(ctx context.Context, obs probe.AttemptObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("transport", string(obs.Transport)),
		attribute.Bool("success", obs.Success),
	}
	o.attempts.Add(ctx, 1, metric.WithAttributes(attrs...))

	if o.tracer == nil {
		return
	}
	_, span := o.tracer.Start(ctx, "mcp.probe.attempt",
		trace.WithTimestamp(obs.Started),
		trace.WithAttributes(append(attrs, attribute.String("probe_id", obs.ProbeID))...),
	)
	if obs.Err != nil {
		span.RecordError(obs.Err)
		span.SetStatus(codes.Error, obs.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(obs.Started.Add(obs.Duration)))
}

// ObserveProbe records one finished probe.
func (o *ProbeObserver) ObserveProbe(ctx context.Context, obs probe.ProbeObservation) {
	if o == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("outcome", string(obs.Outcome)),
	}
	if obs.Transport != "" {
		attrs = append(attrs, attribute.String("transport", string(obs.Transport)))
	}
	options := metric.WithAttributes(attrs...)
	o.probes.Add(ctx, 1, options)
	o.latency.Record(ctx, obs.Duration.Seconds(), options)

	span, ok := ctx.Value(probeSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	span.SetAttributes(append(attrs, attribute.Int("tool_count", obs.ToolCount))...)
	if obs.Err != nil {
		span.RecordError(obs.Err)
		span.SetStatus(codes.Error, obs.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

var _ probe.Observer = (*ProbeObserver)(nil)
