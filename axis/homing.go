package axis

import "github.com/nasa-jpl/axisctl/hw"

// ticksFor converts a millisecond duration into a loop-counter tick count
// at the axis's configured tick rate (min_ms_homing * tick_rate / 1000).
func (a *Axis) ticksFor(ms int64) uint64 {
	rate := a.hwConfig.TickRateHz
	if rate <= 0 {
		rate = 8000
	}
	return uint64(float64(ms) * rate / 1000.0)
}

// startHoming initializes the homing sub-state for entry into
// ClosedLoopControl's run_closed_loop_control_loop: phase 1, seek min
// endstop, finding_min_endstop = true.
func (a *Axis) startHoming() {
	a.homingState.Store(int32(HomingActive))
	a.findingMin = true
	if a.MinEndstop != nil {
		a.loopCounterCheck = a.loopCounter.Load() + a.ticksFor(a.MinEndstop.MinMsHoming)
	}
}

// foundEnd is the zero-velocity-sustained-past-deadline predicate shared
// by both homing phases.
func (a *Axis) foundEnd() bool {
	if a.Encoder == nil {
		return false
	}
	return a.Encoder.VelEstimate() == 0 && a.loopCounter.Load() >= a.loopCounterCheck
}

// runHoming drives the HomingSubMachine for one tick. It is only called
// from inside run_closed_loop_control_loop's tick body when
// homing_state != Inactive. Returns false on failure, consistent with
// other tick bodies.
func (a *Axis) runHoming() bool {
	switch HomingState(a.homingState.Load()) {
	case HomingActive:
		if a.findingMin {
			return a.runFindMin()
		}
		return a.runFindMax()
	case HomingMoveToZero:
		return a.runMoveToZero()
	default:
		return true
	}
}

// runFindMin is homing phase 1: seek the min endstop.
func (a *Axis) runFindMin() bool {
	if a.MinEndstop == nil {
		a.homingState.Store(int32(HomingInactive))
		return true
	}

	transition := a.MinEndstop.Asserted()
	if !transition {
		transition = a.foundEnd()
	}
	if !transition {
		return true
	}

	a.MinEndstop.OffsetFromHome = float64(a.Encoder.ShadowCount())

	if a.MaxEndstop != nil && a.MaxEndstop.Enabled {
		a.Controller.SetVelIntegratorCurrent(0)
		a.Controller.SetVelSetpoint(a.Controller.HomingSpeed(), 0)
		a.loopCounterCheck = a.loopCounter.Load() + a.ticksFor(a.MaxEndstop.MinMsHoming)
		a.findingMin = false
		return true
	}

	a.Encoder.SetLinearCount(int64(a.MinEndstop.Offset))
	a.Controller.SetPosSetpoint(0, 0, 0)
	a.homingState.Store(int32(HomingMoveToZero))
	return true
}

// runFindMax is homing phase 2: seek the max endstop (or home-offset
// target), only reached when MaxEndstop is enabled.
func (a *Axis) runFindMax() bool {
	transition := a.MaxEndstop.Asserted()
	if !transition {
		transition = a.foundEnd()
	}
	if !transition {
		return true
	}

	totalCPR := float64(a.Encoder.ShadowCount()) - a.MinEndstop.OffsetFromHome

	if a.MinEndstop.HomePercentage > 0 {
		a.MinEndstop.OffsetFromHome = -totalCPR * (a.MinEndstop.HomePercentage / 100)
		a.MaxEndstop.OffsetFromHome = totalCPR + a.MinEndstop.OffsetFromHome
		a.Encoder.SetLinearCount(int64(-a.MinEndstop.OffsetFromHome))
	} else {
		a.MinEndstop.OffsetFromHome = a.MinEndstop.Offset
		a.MaxEndstop.OffsetFromHome = totalCPR + a.MinEndstop.Offset
		a.Encoder.SetLinearCount(int64(a.MinEndstop.Offset))
	}

	a.Controller.SetPosSetpoint(0, 0, 0)
	a.homingState.Store(int32(HomingMoveToZero))
	return true
}

// runMoveToZero is homing phase 3. It re-plans a trapezoidal profile to
// position 0 every tick for as long as the min endstop remains
// unasserted -- a documented quirk, preserved verbatim rather than
// "fixed" to a one-shot plan.
func (a *Axis) runMoveToZero() bool {
	if a.MinEndstop != nil && a.MinEndstop.Asserted() {
		a.homingState.Store(int32(HomingInactive))
		return true
	}

	homingSpeed := a.Controller.HomingSpeed()
	if a.Trajectory != nil && a.Encoder != nil {
		a.Trajectory.PlanTrapezoidal(0, a.Encoder.PosEstimate(), a.Encoder.VelEstimate(), homingSpeed, homingSpeed/4, homingSpeed/4)
	}
	a.Controller.SetControlMode(hw.ControlModeTrajectory)
	a.Controller.SetTrajStartLoopCount(a.loopCounter.Load())
	return true
}

// runEndstopGuard is the normal (non-homing) tick's endstop guard.
func (a *Axis) runEndstopGuard() bool {
	if a.MinEndstop != nil && a.MinEndstop.Enabled && a.MinEndstop.Asserted() {
		a.err.add(ErrMinEndstopPressed)
		return false
	}
	if a.MaxEndstop != nil && a.MaxEndstop.Enabled && a.MaxEndstop.Asserted() {
		a.err.add(ErrMaxEndstopPressed)
		return false
	}
	return true
}
