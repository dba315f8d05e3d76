package boardio

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/nasa-jpl/axisctl/scheduler"
)

// TickSource delivers the current-measurement signal to an axis worker. A
// real board implements this with a timer/ADC interrupt wired directly to
// scheduler.Signal.Send; TickSource exists so axis.Axis doesn't need to
// know which.
type TickSource interface {
	// Start begins delivering ticks to sig until ctx is cancelled.
	Start(ctx context.Context, sig *scheduler.Signal)
}

// SimTickSource paces a scheduler.Signal at a fixed rate using
// golang.org/x/time/rate. It stands in for the hardware ISR in tests and
// in the cmd/axissim demo.
type SimTickSource struct {
	// Rate is the tick frequency in Hz, e.g. 8000 for an 8kHz current loop.
	Rate float64
}

// Start runs the paced tick loop. It returns when ctx is cancelled.
func (s *SimTickSource) Start(ctx context.Context, sig *scheduler.Signal) {
	r := s.Rate
	if r <= 0 {
		r = 8000
	}
	limiter := rate.NewLimiter(rate.Limit(r), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		sig.Send()
	}
}

// MissingTickSource never sends a signal. It's used in tests to exercise
// the ControlLoopMissed path deterministically.
type MissingTickSource struct{}

// Start blocks until ctx is cancelled without ever sending.
func (MissingTickSource) Start(ctx context.Context, _ *scheduler.Signal) {
	<-ctx.Done()
}
