package axis

import (
	"testing"

	"github.com/nasa-jpl/axisctl/hw"
)

func TestSingleEndstopHomingGoesStraightToMoveToZero(t *testing.T) {
	min := &fakeEndstopState{}
	enc := &fakeEncoder{shadowCount: 1234}
	ctrl := &fakeController{}
	a := newTestAxis(Collaborators{
		Encoder:    enc,
		Controller: ctrl,
		MinEndstop: newEndstop(true, min),
	}, Config{}, HWConfig{})
	a.MinEndstop.Offset = 10

	a.startHoming()
	min.asserted = true

	if !a.runHoming() {
		t.Fatal("runHoming should succeed on a min-endstop transition")
	}
	if a.HomingStateValue() != HomingMoveToZero {
		t.Fatalf("HomingStateValue() = %s, want MoveToZero", a.HomingStateValue())
	}
	if enc.shadowCount != 10 {
		t.Fatalf("encoder linear count = %d, want the min endstop's configured offset (10)", enc.shadowCount)
	}
	if ctrl.posSetpoint != 0 {
		t.Fatalf("controller pos setpoint = %v, want 0 after homing to the min endstop", ctrl.posSetpoint)
	}
}

func TestFindMinTransitionsOnZeroVelocityTimeoutWithoutPhysicalSwitch(t *testing.T) {
	enc := &fakeEncoder{shadowCount: 77}
	ctrl := &fakeController{}
	min := &hw.Endstop{Enabled: true, MinMsHoming: 10} // unbound: no physical switch
	a := newTestAxis(Collaborators{
		Encoder:    enc,
		Controller: ctrl,
		MinEndstop: min,
	}, Config{}, HWConfig{TickRateHz: 1000})
	a.MinEndstop.Offset = 5

	a.startHoming()
	if !a.runHoming() {
		t.Fatal("runHoming should succeed while still waiting out the zero-velocity timeout")
	}
	if a.HomingStateValue() != HomingActive {
		t.Fatalf("HomingStateValue() = %s, want still Homing before the timeout elapses", a.HomingStateValue())
	}

	a.loopCounter.Store(a.loopCounterCheck)
	if !a.runHoming() {
		t.Fatal("runHoming should succeed once the zero-velocity timeout elapses")
	}
	if a.HomingStateValue() != HomingMoveToZero {
		t.Fatalf("HomingStateValue() = %s, want MoveToZero once the soft stop is detected", a.HomingStateValue())
	}
	if enc.shadowCount != 5 {
		t.Fatalf("encoder linear count = %d, want the min endstop's configured offset (5)", enc.shadowCount)
	}
}

func TestDualEndstopHomingSeeksMaxAfterMin(t *testing.T) {
	min := &fakeEndstopState{}
	max := &fakeEndstopState{}
	enc := &fakeEncoder{}
	ctrl := &fakeController{homingSpeed: 5}
	a := newTestAxis(Collaborators{
		Encoder:    enc,
		Controller: ctrl,
		MinEndstop: newEndstop(true, min),
		MaxEndstop: newEndstop(true, max),
	}, Config{}, HWConfig{})

	a.startHoming()
	min.asserted = true
	if !a.runHoming() {
		t.Fatal("runHoming should succeed on a min-endstop transition")
	}
	if a.HomingStateValue() != HomingActive {
		t.Fatalf("HomingStateValue() = %s, want still Homing (seeking max) with a paired max endstop", a.HomingStateValue())
	}
	if ctrl.velSetpoint != ctrl.homingSpeed {
		t.Fatalf("velSetpoint = %v, want homingSpeed (%v) while seeking the max endstop", ctrl.velSetpoint, ctrl.homingSpeed)
	}

	enc.shadowCount = 10000
	max.asserted = true
	if !a.runHoming() {
		t.Fatal("runHoming should succeed on a max-endstop transition")
	}
	if a.HomingStateValue() != HomingMoveToZero {
		t.Fatalf("HomingStateValue() = %s, want MoveToZero once both endstops are found", a.HomingStateValue())
	}
}

func TestMoveToZeroReplansEveryTickUntilMinAsserted(t *testing.T) {
	min := &fakeEndstopState{}
	enc := &fakeEncoder{}
	ctrl := &fakeController{homingSpeed: 2}
	traj := &fakeTrajectory{}
	a := newTestAxis(Collaborators{
		Encoder:    enc,
		Controller: ctrl,
		Trajectory: traj,
		MinEndstop: newEndstop(true, min),
	}, Config{}, HWConfig{})
	a.homingState.Store(int32(HomingMoveToZero))

	if !a.runMoveToZero() {
		t.Fatal("runMoveToZero should succeed while still approaching zero")
	}
	if !traj.planned {
		t.Fatal("runMoveToZero should (re-)plan a trapezoidal profile every tick it's active")
	}
	if a.HomingStateValue() != HomingMoveToZero {
		t.Fatalf("HomingStateValue() = %s, want still MoveToZero before the min endstop reasserts", a.HomingStateValue())
	}

	min.asserted = true
	if !a.runMoveToZero() {
		t.Fatal("runMoveToZero should succeed on completion")
	}
	if a.HomingStateValue() != HomingInactive {
		t.Fatalf("HomingStateValue() = %s, want Inactive once the min endstop reasserts", a.HomingStateValue())
	}
}

func TestEndstopGuardFailsWhenEnabledAndAsserted(t *testing.T) {
	min := &fakeEndstopState{asserted: true}
	a := newTestAxis(Collaborators{MinEndstop: newEndstop(true, min)}, Config{}, HWConfig{})

	if a.runEndstopGuard() {
		t.Fatal("runEndstopGuard should fail when an enabled min endstop is asserted")
	}
	if a.Error()&ErrMinEndstopPressed == 0 {
		t.Fatal("runEndstopGuard should set ErrMinEndstopPressed")
	}
}

func TestEndstopGuardPassesWhenDisabled(t *testing.T) {
	min := &fakeEndstopState{asserted: true}
	a := newTestAxis(Collaborators{MinEndstop: newEndstop(false, min)}, Config{}, HWConfig{})

	if !a.runEndstopGuard() {
		t.Fatal("runEndstopGuard should ignore a disabled endstop even if physically asserted")
	}
}
