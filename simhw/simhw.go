// Package simhw implements the axis package's hw collaborator
// interfaces against an in-process numerical model instead of real
// silicon: enough behavior to drive a state machine through its paces,
// not a faithful motor model. cmd/axissim and cmd/axisd both build axes
// out of this package.
package simhw

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/nasa-jpl/axisctl/hw"
)

// Motor is a current-commanded motor stand-in: Update always succeeds
// unless ForceFail is set, which lets tests and demos exercise the
// fault paths on demand.
type Motor struct {
	mu         sync.Mutex
	armed      bool
	calibrated bool
	ForceFail  bool
}

func (m *Motor) Setup() error { return nil }

func (m *Motor) Arm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = true
	return true
}

func (m *Motor) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = false
}

// RunCalibration simulates a resistance/inductance measurement that
// takes 50ms of wall-clock time; it blocks until ctx is cancelled or
// calibration completes.
func (m *Motor) RunCalibration(ctx context.Context) bool {
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForceFail {
		return false
	}
	m.calibrated = true
	return true
}

func (m *Motor) Update(iMag, phase float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.ForceFail
}

func (m *Motor) DoChecks() bool { return true }

func (m *Motor) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

func (m *Motor) IsCalibrated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calibrated
}

// Encoder is a counts-based position sensor. Because nothing in this
// package drives a real rotor, Drive lets a demo or test move the
// simulated shaft directly (e.g. from a TickSource-paced goroutine).
type Encoder struct {
	mu          sync.Mutex
	cpr         int64
	useIndex    bool
	ready       bool
	count       int64
	offset      int64
	vel         float64
	phase       float64
}

// NewEncoder returns an Encoder with the given counts-per-revolution.
func NewEncoder(cpr int64, useIndex bool) *Encoder {
	return &Encoder{cpr: cpr, useIndex: useIndex}
}

func (e *Encoder) Setup() error { return nil }
func (e *Encoder) Update()      {}
func (e *Encoder) DoChecks() bool { return true }

func (e *Encoder) RunIndexSearch(ctx context.Context) bool {
	select {
	case <-time.After(20 * time.Millisecond):
	case <-ctx.Done():
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = true
	return true
}

func (e *Encoder) RunOffsetCalibration(ctx context.Context) bool {
	select {
	case <-time.After(20 * time.Millisecond):
	case <-ctx.Done():
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = true
	return true
}

func (e *Encoder) SetLinearCount(counts int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.offset = counts - e.count
}

// Drive advances the simulated shaft by delta counts at the given
// velocity (counts/sec), for use by a demo's own tick goroutine.
func (e *Encoder) Drive(delta int64, vel float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.count += delta
	e.vel = vel
	if e.cpr > 0 {
		e.phase = 2 * math.Pi * float64((e.count+e.offset)%e.cpr) / float64(e.cpr)
	}
}

func (e *Encoder) PosEstimate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.count + e.offset)
}

func (e *Encoder) VelEstimate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vel
}

func (e *Encoder) Phase() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Encoder) ShadowCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count + e.offset
}

func (e *Encoder) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *Encoder) CPR() int64     { return e.cpr }
func (e *Encoder) UseIndex() bool { return e.useIndex }

// Sensorless is a no-op back-EMF estimator stand-in: it always reports
// zero position/velocity, which is enough to exercise SensorlessControl
// without a motor model that actually spins.
type Sensorless struct{}

func (Sensorless) Update()              {}
func (Sensorless) PLLPos() float64      { return 0 }
func (Sensorless) VelEstimate() float64 { return 0 }
func (Sensorless) Phase() float64       { return 0 }

// Controller is a minimal setpoint-tracking stand-in: Update always
// succeeds, and position/velocity setpoints are stored but never
// enforced against PosEstimate, since no real plant exists to close
// the loop against.
type Controller struct {
	mu          sync.Mutex
	mode        hw.ControlMode
	posSetpoint float64
	velSetpoint float64
	homingSpeed float64
}

// NewController returns a Controller with the given homing speed.
func NewController(homingSpeed float64) *Controller {
	return &Controller{homingSpeed: homingSpeed}
}

func (c *Controller) Update(pos, vel float64, outCurrent *float64) bool {
	*outCurrent = 0
	return true
}

func (c *Controller) HomeAxis(ctx context.Context) bool {
	select {
	case <-time.After(20 * time.Millisecond):
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posSetpoint, c.velSetpoint = 0, 0
}

func (c *Controller) SetPosSetpoint(pos, velFF, curFF float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posSetpoint = pos
}

func (c *Controller) SetVelSetpoint(vel, curFF float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.velSetpoint = vel
}

func (c *Controller) PosSetpoint() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.posSetpoint
}

func (c *Controller) SetRawPosSetpoint(pos float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posSetpoint = pos
}

func (c *Controller) VelSetpoint() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.velSetpoint
}

func (c *Controller) SetVelSetpointRaw(vel float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.velSetpoint = vel
}

func (c *Controller) SetVelIntegratorCurrent(cur float64) {}
func (c *Controller) SetTrajStartLoopCount(n uint64)      {}

func (c *Controller) ControlMode() hw.ControlMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) SetControlMode(m hw.ControlMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

func (c *Controller) HomingSpeed() float64 { return c.homingSpeed }

// Trajectory is a no-op trapezoidal planner: it records the last plan
// requested so a demo can log it, but does not feed it back into
// Controller (there is no real plant to track it).
type Trajectory struct {
	mu   sync.Mutex
	last [6]float64
}

func (t *Trajectory) PlanTrapezoidal(goalPos, currentPos, currentVel, vMax, aMax, dMax float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = [6]float64{goalPos, currentPos, currentVel, vMax, aMax, dMax}
}

// EndstopState is a software-settable debounced switch stand-in.
type EndstopState struct {
	mu       sync.Mutex
	asserted bool
}

func (s *EndstopState) Update() {}

func (s *EndstopState) Asserted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asserted
}

// Set lets a demo or operator console flip the simulated switch.
func (s *EndstopState) Set(asserted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asserted = asserted
}

// GPIO is an in-process GPIO stand-in for step/dir input: Subscribe
// records a callback per (port, pin) and Read returns a settable level,
// rather than talking to any real pin.
type GPIO struct {
	mu    sync.Mutex
	cbs   map[[2]int]func()
	level map[[2]int]bool
}

// NewGPIO returns a ready-to-use GPIO.
func NewGPIO() *GPIO {
	return &GPIO{cbs: make(map[[2]int]func()), level: make(map[[2]int]bool)}
}

func (g *GPIO) Subscribe(port, pin int, pull hw.GPIOPull, edge hw.GPIOEdge, callback func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if callback != nil {
		g.cbs[[2]int{port, pin}] = callback
	}
	return nil
}

func (g *GPIO) Unsubscribe(port, pin int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.cbs, [2]int{port, pin})
	return nil
}

func (g *GPIO) Read(port, pin int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level[[2]int{port, pin}], nil
}

// SetLevel sets the level Read reports for a pin. It does not fire any
// registered callback; use FireEdge for that.
func (g *GPIO) SetLevel(port, pin int, level bool) {
	g.mu.Lock()
	g.level[[2]int{port, pin}] = level
	g.mu.Unlock()
}

// FireEdge invokes the callback registered for (port, pin), if any.
func (g *GPIO) FireEdge(port, pin int) {
	g.mu.Lock()
	cb := g.cbs[[2]int{port, pin}]
	g.mu.Unlock()
	if cb != nil {
		cb()
	}
}
