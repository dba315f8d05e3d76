package axis

import (
	"context"

	"github.com/nasa-jpl/axisctl/hw"
)

// dispatch sends control to the handler for the current state and
// returns its success/failure.
func (a *Axis) dispatch(ctx context.Context) bool {
	switch a.chain.current() {
	case MotorCalibration:
		return a.Motor != nil && a.Motor.RunCalibration(ctx)
	case EncoderIndexSearch:
		return a.Encoder != nil && a.Encoder.RunIndexSearch(ctx)
	case EncoderOffsetCalibration:
		return a.Encoder != nil && a.Encoder.RunOffsetCalibration(ctx)
	case Homing:
		return a.Controller != nil && a.Controller.HomeAxis(ctx)
	case SensorlessControl:
		if !a.runSensorlessSpinUp(ctx) {
			return false
		}
		return a.runSensorlessControlLoop(ctx)
	case ClosedLoopControl:
		return a.runClosedLoopControlLoop(ctx)
	case Idle:
		return a.runIdleLoop(ctx)
	default:
		a.err.add(ErrInvalidState)
		return false
	}
}

// runSensorlessControlLoop implements run_sensorless_control_loop.
func (a *Axis) runSensorlessControlLoop(ctx context.Context) bool {
	if a.Motor != nil && !a.Motor.Arm() {
		a.err.add(ErrMotorArmFailed)
		return false
	}
	if a.cfg().EnableStepDir {
		a.stepDir.Enable()
	}
	defer a.stepDir.Disable()

	ok := true
	a.runControlLoop(ctx, func(ctx context.Context) bool {
		if a.Controller.ControlMode() >= hw.ControlModePosition {
			a.err.add(ErrPosCtrlDuringSensorless)
			ok = false
			return false
		}
		var outCurrent float64
		if !a.Controller.Update(a.Sensorless.PLLPos(), a.Sensorless.VelEstimate(), &outCurrent) {
			a.err.add(ErrControllerFailed)
			ok = false
			return false
		}
		if !a.Motor.Update(outCurrent, a.Sensorless.Phase()) {
			a.err.add(ErrMotorFailed)
			ok = false
			return false
		}
		return true
	})
	return ok
}

// runClosedLoopControlLoop implements run_closed_loop_control_loop,
// including hosting HomingSubMachine.
func (a *Axis) runClosedLoopControlLoop(ctx context.Context) bool {
	if a.Motor != nil && !a.Motor.Arm() {
		a.err.add(ErrMotorArmFailed)
		return false
	}
	if a.cfg().EnableStepDir {
		a.stepDir.Enable()
	}
	defer a.stepDir.Disable()

	a.startHoming()

	ok := true
	a.runControlLoop(ctx, func(ctx context.Context) bool {
		var outCurrent float64
		if !a.Controller.Update(a.Encoder.PosEstimate(), a.Encoder.VelEstimate(), &outCurrent) {
			a.err.add(ErrControllerFailed)
			ok = false
			return false
		}
		if !a.Motor.Update(outCurrent, a.Encoder.Phase()) {
			a.err.add(ErrMotorFailed)
			ok = false
			return false
		}

		if a.HomingStateValue() != HomingInactive {
			if !a.runHoming() {
				ok = false
				return false
			}
			return true
		}
		if !a.runEndstopGuard() {
			ok = false
			return false
		}
		return true
	})
	return ok
}

// runIdleLoop implements run_idle_loop: disarm PWM unconditionally at
// entry (safety-critical, synchronous) and leave it
// disarmed for as long as Idle remains current -- the next non-idle
// handler is responsible for its own re-arm attempt on entry, so Idle
// never leaves PWM energized behind an otherwise-quiescent loop.
func (a *Axis) runIdleLoop(ctx context.Context) bool {
	if a.Motor != nil {
		a.Motor.Disarm()
	}
	a.runControlLoop(ctx, func(ctx context.Context) bool {
		return true
	})
	return true
}
