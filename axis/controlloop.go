package axis

import (
	"context"
	"time"
)

// phCurrentMeasTimeout bounds how long ControlLoopDriver waits for the
// current-measurement signal before declaring ControlLoopMissed (outside
// Idle) or looping back around (inside Idle). Named after the source
// firmware's PH_CURRENT_MEAS_TIMEOUT constant.
const phCurrentMeasTimeout = 10 * time.Millisecond

// tickBody is the per-tick callback supplied by whichever AxisStateMachine
// handler is currently active. It returns false to request the control
// loop exit (either due to a detected error, or because the handler has
// completed its work).
type tickBody func(ctx context.Context) bool

// runControlLoop blocks the calling goroutine and, synchronized to the
// current-measurement signal, repeatedly runs the per-tick sequence:
// wait for the signal, bump the loop counter, run updates and safety
// checks, then the handler's own tick body. It returns when body returns
// false, when an external state
// change becomes pending, or when ctx is cancelled.
func (a *Axis) runControlLoop(ctx context.Context, body tickBody) {
	for {
		if ctx.Err() != nil {
			return
		}

		ok, err := a.sig.Wait(ctx, phCurrentMeasTimeout)
		if err != nil {
			return
		}
		if !ok {
			// missed signal
			if a.chain.current() != Idle {
				a.err.add(ErrControlLoopMissed)
				return
			}
			// Idle tolerates missed signals by definition; loop back
			// around and keep waiting.
			continue
		}

		a.loopCounter.Add(1)

		if !a.doUpdates() {
			return
		}
		if !a.doChecks() {
			return
		}

		if !body(ctx) {
			return
		}

		if a.RequestedState() != Undefined {
			return
		}
	}
}
