package axis

import (
	"context"
	"testing"
)

func newTestAxis(c Collaborators, cfg Config, hwCfg HWConfig) *Axis {
	return New(c, cfg, hwCfg)
}

func TestDispatchUnknownStateSetsInvalidState(t *testing.T) {
	a := newTestAxis(Collaborators{}, Config{}, HWConfig{})
	a.chain.load([]State{State(999)})

	ok := a.dispatch(context.Background())
	if ok {
		t.Fatal("dispatch of an unrecognized state should fail")
	}
	if a.Error()&ErrInvalidState == 0 {
		t.Fatal("dispatch of an unrecognized state should set ErrInvalidState")
	}
}

func TestDispatchMotorCalibrationSuccess(t *testing.T) {
	m := &fakeMotor{calibrateOK: true}
	a := newTestAxis(Collaborators{Motor: m}, Config{}, HWConfig{})
	a.chain.load([]State{MotorCalibration})

	if !a.dispatch(context.Background()) {
		t.Fatal("dispatch should succeed when RunCalibration succeeds")
	}
	if !m.IsCalibrated() {
		t.Fatal("motor should be calibrated after a successful MotorCalibration dispatch")
	}
}

func TestDispatchMotorCalibrationFailure(t *testing.T) {
	m := &fakeMotor{calibrateOK: false}
	a := newTestAxis(Collaborators{Motor: m}, Config{}, HWConfig{})
	a.chain.load([]State{MotorCalibration})

	if a.dispatch(context.Background()) {
		t.Fatal("dispatch should fail when RunCalibration fails")
	}
}

func TestIterateFallsToIdleOnDispatchFailure(t *testing.T) {
	m := &fakeMotor{calibrateOK: false}
	a := newTestAxis(Collaborators{Motor: m}, Config{}, HWConfig{})
	a.RequestState(MotorCalibration)

	a.iterate(context.Background())

	if a.CurrentState() != Idle {
		t.Fatalf("CurrentState() = %s, want Idle after a failed handler", a.CurrentState())
	}
}

func TestIterateAdvancesChainOnDispatchSuccess(t *testing.T) {
	m := &fakeMotor{calibrateOK: true}
	a := newTestAxis(Collaborators{Motor: m}, Config{}, HWConfig{})
	a.chain.load([]State{MotorCalibration, Idle})

	a.iterate(context.Background())

	if a.CurrentState() != Idle {
		t.Fatalf("CurrentState() = %s, want Idle after MotorCalibration advances", a.CurrentState())
	}
}

func TestExpandRequestStartupSequence(t *testing.T) {
	enc := &fakeEncoder{useIndex: true}
	a := newTestAxis(Collaborators{Encoder: enc}, Config{
		StartupMotorCalibration:         true,
		StartupEncoderIndexSearch:       true,
		StartupEncoderOffsetCalibration: true,
		StartupClosedLoopControl:        true,
		StartupHoming:                   true,
	}, HWConfig{})

	a.expandRequest(StartupSequence)

	want := []State{MotorCalibration, EncoderIndexSearch, EncoderOffsetCalibration, Homing, ClosedLoopControl, Idle}
	for _, s := range want {
		if a.chain.current() != s {
			t.Fatalf("chain.current() = %s, want %s", a.chain.current(), s)
		}
		a.chain.advance()
	}
}

func TestExpandRequestFullCalibrationSequence(t *testing.T) {
	enc := &fakeEncoder{useIndex: true}
	a := newTestAxis(Collaborators{Encoder: enc}, Config{
		StartupEncoderIndexSearch: true,
		// StartupMotorCalibration deliberately left false: Full
		// calibration always calibrates the motor regardless.
	}, HWConfig{})

	a.expandRequest(FullCalibrationSequence)

	want := []State{MotorCalibration, EncoderIndexSearch, EncoderOffsetCalibration, Idle}
	for _, s := range want {
		if a.chain.current() != s {
			t.Fatalf("chain.current() = %s, want %s", a.chain.current(), s)
		}
		a.chain.advance()
	}
}

func TestExpandRequestFullCalibrationSequenceSkipsIndexSearchWithoutUseIndex(t *testing.T) {
	enc := &fakeEncoder{useIndex: false}
	a := newTestAxis(Collaborators{Encoder: enc}, Config{
		StartupEncoderIndexSearch: true,
	}, HWConfig{})

	a.expandRequest(FullCalibrationSequence)

	want := []State{MotorCalibration, EncoderOffsetCalibration, Idle}
	for _, s := range want {
		if a.chain.current() != s {
			t.Fatalf("chain.current() = %s, want %s", a.chain.current(), s)
		}
		a.chain.advance()
	}
}

func TestExpandRequestHomingChain(t *testing.T) {
	a := newTestAxis(Collaborators{}, Config{}, HWConfig{})
	a.expandRequest(Homing)

	want := []State{Homing, ClosedLoopControl, Idle}
	for _, s := range want {
		if a.chain.current() != s {
			t.Fatalf("chain.current() = %s, want %s", a.chain.current(), s)
		}
		a.chain.advance()
	}
}

func TestExpandRequestClearsInvalidStateError(t *testing.T) {
	a := newTestAxis(Collaborators{}, Config{}, HWConfig{})
	a.err.add(ErrInvalidState)

	a.expandRequest(Idle)

	if a.Error()&ErrInvalidState != 0 {
		t.Fatal("expandRequest should clear the error bitset for a freshly loaded chain")
	}
}

func TestValidatePrerequisitesForcesUndefinedWithoutMotorCalibration(t *testing.T) {
	m := &fakeMotor{calibrated: false}
	a := newTestAxis(Collaborators{Motor: m}, Config{}, HWConfig{})
	a.chain.load([]State{ClosedLoopControl})

	a.validatePrerequisites()

	if a.CurrentState() != Undefined {
		t.Fatalf("CurrentState() = %s, want Undefined when motor isn't calibrated", a.CurrentState())
	}
}

func TestValidatePrerequisitesPassesWhenSatisfied(t *testing.T) {
	m := &fakeMotor{calibrated: true}
	enc := &fakeEncoder{ready: true}
	a := newTestAxis(Collaborators{Motor: m, Encoder: enc}, Config{}, HWConfig{})
	a.chain.load([]State{ClosedLoopControl})

	a.validatePrerequisites()

	if a.CurrentState() != ClosedLoopControl {
		t.Fatalf("CurrentState() = %s, want ClosedLoopControl to remain once prerequisites are satisfied", a.CurrentState())
	}
}

type armFailMotor struct {
	fakeMotor
}

func (m *armFailMotor) Arm() bool { return false }

func TestRunSensorlessControlLoopFailsWhenMotorArmFails(t *testing.T) {
	m := &armFailMotor{}
	a := newTestAxis(Collaborators{Motor: m}, Config{}, HWConfig{})

	if a.runSensorlessControlLoop(context.Background()) {
		t.Fatal("runSensorlessControlLoop should fail when Motor.Arm() returns false")
	}
	if a.Error()&ErrMotorArmFailed == 0 {
		t.Fatal("runSensorlessControlLoop should set ErrMotorArmFailed on an arm failure")
	}
}

func TestRunClosedLoopControlLoopFailsWhenMotorArmFails(t *testing.T) {
	m := &armFailMotor{}
	a := newTestAxis(Collaborators{Motor: m}, Config{}, HWConfig{})

	if a.runClosedLoopControlLoop(context.Background()) {
		t.Fatal("runClosedLoopControlLoop should fail when Motor.Arm() returns false")
	}
	if a.Error()&ErrMotorArmFailed == 0 {
		t.Fatal("runClosedLoopControlLoop should set ErrMotorArmFailed on an arm failure")
	}
}

func TestRunIdleLoopDisarmsMotorEvenWithCancelledContext(t *testing.T) {
	m := &fakeMotor{armed: true}
	a := newTestAxis(Collaborators{Motor: m}, Config{}, HWConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a.runIdleLoop(ctx)

	if m.armed {
		t.Fatal("runIdleLoop should unconditionally disarm the motor on entry")
	}
}
