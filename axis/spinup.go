package axis

import (
	"context"
	"math"
)

// wrapPMPi wraps a radian value into [-pi, +pi).
func wrapPMPi(x float64) float64 {
	const twoPi = 2 * math.Pi
	y := math.Mod(x+math.Pi, twoPi)
	if y < 0 {
		y += twoPi
	}
	return y - math.Pi
}

// runSensorlessSpinUp is the two-stage open-loop ramp-up routine,
// executed as one blocking call driven tick-by-tick by
// ControlLoopDriver. Returns false (with MotorFailed set) if the motor
// rejects a commanded update at any point, true on a clean handoff to
// closed-loop sensorless control.
func (a *Axis) runSensorlessSpinUp(ctx context.Context) bool {
	ok := true
	rampUpTime := a.cfg().RampUpTime.Seconds()
	if rampUpTime <= 0 {
		rampUpTime = 1
	}
	tickPeriod := 1.0 / tickRateOrDefault(a.hwConfig.TickRateHz)

	// stage 1: current spiral
	x := 0.0
	a.runControlLoop(ctx, func(ctx context.Context) bool {
		phase := wrapPMPi(a.cfg().RampUpDistance * x)
		iMag := a.cfg().SpinUpCurrent * x
		if !a.Motor.Update(iMag, phase) {
			a.err.add(ErrMotorFailed)
			ok = false
			return false
		}
		x += tickPeriod / rampUpTime
		if x >= 1.0 {
			return false
		}
		return true
	})
	if !ok || a.err.load() != 0 {
		return false
	}

	// stage 2: phase acceleration
	vel := a.cfg().RampUpDistance / rampUpTime
	phase := wrapPMPi(a.cfg().RampUpDistance)
	a.runControlLoop(ctx, func(ctx context.Context) bool {
		vel += a.cfg().SpinUpAcceleration * tickPeriod
		phase = wrapPMPi(phase + vel*tickPeriod)
		iMag := a.cfg().SpinUpCurrent
		if !a.Motor.Update(iMag, phase) {
			a.err.add(ErrMotorFailed)
			ok = false
			return false
		}
		if vel >= a.cfg().SpinUpTargetVel {
			return false
		}
		return true
	})
	if !ok || a.err.load() != 0 {
		return false
	}

	a.Controller.SetVelSetpointRaw(a.cfg().SpinUpTargetVel)
	return true
}

func tickRateOrDefault(hz float64) float64 {
	if hz <= 0 {
		return 8000
	}
	return hz
}
