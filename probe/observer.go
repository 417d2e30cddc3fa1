package probe

import (
	"context"
	"time"
)

// AttemptObservation describes one transport connect attempt.
type AttemptObservation struct {
	ProbeID   string
	Transport TransportKind
	Success   bool
	Started   time.Time
	Duration  time.Duration
	Err       error
}

// ProbeObservation describes one finished probe.
type ProbeObservation struct {
	ProbeID   string
	Outcome   Outcome
	Transport TransportKind
	ToolCount int
	Started   time.Time
	Duration  time.Duration
	Err       error
}

// Observer receives probe telemetry. Implementations must be safe for
// concurrent use.
//
// StartProbe is called before the first attempt. The context it returns is
// passed to ObserveAttempt and ObserveProbe for the same probe.
type Observer interface {
	StartProbe(ctx context.Context, probeID string) context.Context
	ObserveAttempt(ctx context.Context, obs AttemptObservation)
	ObserveProbe(ctx context.Context, obs ProbeObservation)
}

type nopObserver struct{}

func (nopObserver) StartProbe(ctx context.Context, _ string) context.Context { return ctx }
func (nopObserver) ObserveAttempt(context.Context, AttemptObservation) {}
func (nopObserver) ObserveProbe(context.Context, ProbeObservation)     {}
