package axis

import (
	"context"
	"testing"
	"time"
)

func TestRunControlLoopMissedSignalSetsErrorOutsideIdle(t *testing.T) {
	a := newTestAxis(Collaborators{}, Config{}, HWConfig{})
	a.chain.load([]State{ClosedLoopControl})

	called := false
	a.runControlLoop(context.Background(), func(ctx context.Context) bool {
		called = true
		return true
	})

	if called {
		t.Fatal("tick body should never run when the signal never arrives")
	}
	if a.Error()&ErrControlLoopMissed == 0 {
		t.Fatal("runControlLoop should set ErrControlLoopMissed on a missed signal outside Idle")
	}
}

func TestRunControlLoopToleratesMissedSignalWhileIdle(t *testing.T) {
	a := newTestAxis(Collaborators{}, Config{}, HWConfig{})
	a.chain.load([]State{Idle})

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	a.runControlLoop(ctx, func(ctx context.Context) bool {
		return true
	})

	if a.Error()&ErrControlLoopMissed != 0 {
		t.Fatal("runControlLoop should tolerate a missed signal while Idle")
	}
}

func TestRunControlLoopExitsOnTickBodyFalse(t *testing.T) {
	a := newTestAxis(Collaborators{}, Config{}, HWConfig{})
	a.chain.load([]State{Idle})

	a.sig.Send()
	ticks := 0
	a.runControlLoop(context.Background(), func(ctx context.Context) bool {
		ticks++
		return false
	})

	if ticks != 1 {
		t.Fatalf("tick body ran %d times, want exactly 1 before the loop exits", ticks)
	}
}

func TestRunControlLoopExitsWhenStateRequestArrives(t *testing.T) {
	a := newTestAxis(Collaborators{}, Config{}, HWConfig{})
	a.chain.load([]State{Idle})

	ticks := 0
	a.sig.Send()
	a.RequestState(ClosedLoopControl)
	a.runControlLoop(context.Background(), func(ctx context.Context) bool {
		ticks++
		return true
	})

	if ticks != 1 {
		t.Fatalf("tick body ran %d times, want exactly 1 before a pending request breaks the loop", ticks)
	}
}
