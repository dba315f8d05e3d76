// Package hw defines the collaborator contracts the axis package depends
// on: Motor, Encoder, SensorlessEstimator, Controller, TrapezoidalTrajectory,
// and Endstop. These mirror the corpus's small per-capability interface
// convention (Mover, Enabler, Speeder) rather than one large device
// interface, so that a board integrator's real driver only needs to
// satisfy the handful of methods the axis package actually calls.
//
// Nothing in this package drives hardware. It is the seam between the axis
// state machine and whatever talks to PWM, ADC, encoders, and GPIO on a
// given board.
package hw

import "context"

// ControlMode mirrors Controller.config.control_mode.
type ControlMode int

const (
	ControlModeCurrent ControlMode = iota
	ControlModeVelocity
	ControlModePosition
	ControlModeTrajectory
)

// Motor is the PWM/current-drive/gate-driver collaborator.
type Motor interface {
	Setup() error

	// Arm enables PWM output. Returns false on failure.
	Arm() bool

	// Disarm unconditionally disables PWM output. Must never fail in a way
	// that leaves PWM active; implementations should treat disarm as
	// best-effort-but-synchronous.
	Disarm()

	// RunCalibration runs the motor's resistance/inductance calibration
	// routine, blocking until it finishes or ctx is cancelled. Returns
	// false on failure, true on completion.
	RunCalibration(ctx context.Context) bool

	// Update commands a current magnitude and electrical phase for this
	// tick. Returns false on failure (e.g. overcurrent).
	Update(iMag, phase float64) bool

	// DoChecks propagates any motor-level error into the caller; returns
	// true if no new error was raised.
	DoChecks() bool

	Armed() bool
	IsCalibrated() bool
}

// Encoder is the position-sensing collaborator.
type Encoder interface {
	Setup() error
	Update()
	DoChecks() bool

	RunIndexSearch(ctx context.Context) bool
	RunOffsetCalibration(ctx context.Context) bool

	// SetLinearCount sets the encoder's offset-applied signed position.
	SetLinearCount(counts int64)

	PosEstimate() float64
	VelEstimate() float64
	Phase() float64
	ShadowCount() int64
	IsReady() bool

	CPR() int64
	UseIndex() bool
}

// SensorlessEstimator is the back-EMF phase/velocity observer.
type SensorlessEstimator interface {
	Update()
	PLLPos() float64
	VelEstimate() float64
	Phase() float64
}

// Controller is the PID/feed-forward control-law collaborator.
type Controller interface {
	// Update runs one control cycle given a position and velocity
	// estimate, writing the commanded current magnitude to outCurrent.
	// Returns false on failure.
	Update(pos, vel float64, outCurrent *float64) bool

	// HomeAxis runs the controller's own homing routine (used for the
	// top-level Homing state, distinct from HomingSubMachine which runs
	// inside ClosedLoopControl). Returns false on failure.
	HomeAxis(ctx context.Context) bool

	Reset()

	SetPosSetpoint(pos, velFF, curFF float64)
	SetVelSetpoint(vel, curFF float64)

	PosSetpoint() float64
	SetRawPosSetpoint(pos float64)

	VelSetpoint() float64
	SetVelSetpointRaw(vel float64)

	SetVelIntegratorCurrent(cur float64)
	SetTrajStartLoopCount(n uint64)

	ControlMode() ControlMode
	SetControlMode(ControlMode)

	HomingSpeed() float64
}

// TrapezoidalTrajectory plans a trapezoidal velocity profile. No trajectory
// math lives in the axis package; this interface only describes the one
// entry point HomingSubMachine's MoveToZero phase calls each tick.
type TrapezoidalTrajectory interface {
	PlanTrapezoidal(goalPos, currentPos, currentVel, vMax, aMax, dMax float64)
}

// Endstop is a debounced GPIO end-of-travel sensor.
type Endstop struct {
	// Enabled gates whether this endstop participates in homing/guard
	// checks at all.
	Enabled bool

	// PhysicalEndstop is false when the "endstop" is actually a soft
	// stop detected via the zero-velocity timeout rather than a wired
	// switch (homing phase 1's found_end path).
	PhysicalEndstop bool

	// MinMsHoming is the zero-velocity sustain window, in milliseconds,
	// used to detect a soft stop during homing.
	MinMsHoming int64

	// Offset is the raw offset applied when this endstop is used without
	// a paired second endstop (single-endstop homing).
	Offset float64

	// HomePercentage, if > 0, re-centers the home position as a
	// percentage of total travel (homing phase 2).
	HomePercentage float64

	// OffsetFromHome is written by HomingSubMachine once homing completes.
	OffsetFromHome float64

	state EndstopState
}

// EndstopState is the live collaborator behind an Endstop's GPIO line.
type EndstopState interface {
	Update()
	Asserted() bool
}

// Bind attaches the live GPIO-backed state to this Endstop. Board
// integrators call this once at construction.
func (e *Endstop) Bind(state EndstopState) { e.state = state }

// Update refreshes the debounced GPIO read.
func (e *Endstop) Update() {
	if e.state != nil {
		e.state.Update()
	}
}

// Asserted reports whether the endstop is currently pressed/triggered.
func (e *Endstop) Asserted() bool {
	if e.state == nil {
		return false
	}
	return e.state.Asserted()
}

// GPIOEdge identifies which edge of a digital line triggers a callback.
type GPIOEdge int

const (
	EdgeRising GPIOEdge = iota
	EdgeFalling
)

// GPIOPull selects a pin's idle bias.
type GPIOPull int

const (
	PullNone GPIOPull = iota
	PullUp
	PullDown
)

// GPIOService abstracts the board's GPIO subscription mechanism
// (GPIO_subscribe/GPIO_unsubscribe, plus a direct pin read for the
// step/dir direction line).
type GPIOService interface {
	Subscribe(port, pin int, pull GPIOPull, edge GPIOEdge, callback func()) error
	Unsubscribe(port, pin int) error
	Read(port, pin int) (bool, error)
}
