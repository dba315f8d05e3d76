package axis

import (
	"context"

	"github.com/nasa-jpl/axisctl/hw"
)

// fakeMotor, fakeEncoder, etc. are minimal hw collaborator stand-ins:
// enough state to drive a scenario, nothing the tests don't exercise.

type fakeMotor struct {
	armed       bool
	calibrated  bool
	calibrateOK bool
	updateOK    bool
	checksOK    bool
}

func (m *fakeMotor) Setup() error                            { return nil }
func (m *fakeMotor) Arm() bool                                { m.armed = true; return true }
func (m *fakeMotor) Disarm()                                  { m.armed = false }
func (m *fakeMotor) RunCalibration(ctx context.Context) bool  { m.calibrated = m.calibrateOK; return m.calibrateOK }
func (m *fakeMotor) Update(iMag, phase float64) bool          { return m.updateOK }
func (m *fakeMotor) DoChecks() bool                           { return m.checksOK }
func (m *fakeMotor) Armed() bool                              { return m.armed }
func (m *fakeMotor) IsCalibrated() bool                       { return m.calibrated }

type fakeEncoder struct {
	pos, vel, phase float64
	shadowCount     int64
	cpr             int64
	useIndex        bool
	ready           bool
	checksOK        bool
	indexOK         bool
	offsetOK        bool
}

func (e *fakeEncoder) Setup() error { return nil }
func (e *fakeEncoder) Update()      {}
func (e *fakeEncoder) DoChecks() bool { return e.checksOK }
func (e *fakeEncoder) RunIndexSearch(ctx context.Context) bool {
	if e.indexOK {
		e.ready = true
	}
	return e.indexOK
}
func (e *fakeEncoder) RunOffsetCalibration(ctx context.Context) bool {
	if e.offsetOK {
		e.ready = true
	}
	return e.offsetOK
}
func (e *fakeEncoder) SetLinearCount(counts int64) { e.shadowCount = counts }
func (e *fakeEncoder) PosEstimate() float64        { return e.pos }
func (e *fakeEncoder) VelEstimate() float64        { return e.vel }
func (e *fakeEncoder) Phase() float64              { return e.phase }
func (e *fakeEncoder) ShadowCount() int64          { return e.shadowCount }
func (e *fakeEncoder) IsReady() bool               { return e.ready }
func (e *fakeEncoder) CPR() int64                  { return e.cpr }
func (e *fakeEncoder) UseIndex() bool              { return e.useIndex }

type fakeSensorless struct {
	pos, vel, phase float64
}

func (s *fakeSensorless) Update()              {}
func (s *fakeSensorless) PLLPos() float64      { return s.pos }
func (s *fakeSensorless) VelEstimate() float64 { return s.vel }
func (s *fakeSensorless) Phase() float64       { return s.phase }

type fakeController struct {
	mode        hw.ControlMode
	posSetpoint float64
	velSetpoint float64
	homingSpeed float64
	updateOK    bool
	homeOK      bool
	trajLoopCnt uint64
}

func (c *fakeController) Update(pos, vel float64, outCurrent *float64) bool {
	*outCurrent = 0
	return c.updateOK
}
func (c *fakeController) HomeAxis(ctx context.Context) bool { return c.homeOK }
func (c *fakeController) Reset()                             {}
func (c *fakeController) SetPosSetpoint(pos, velFF, curFF float64) { c.posSetpoint = pos }
func (c *fakeController) SetVelSetpoint(vel, curFF float64)        { c.velSetpoint = vel }
func (c *fakeController) PosSetpoint() float64                    { return c.posSetpoint }
func (c *fakeController) SetRawPosSetpoint(pos float64)           { c.posSetpoint = pos }
func (c *fakeController) VelSetpoint() float64                    { return c.velSetpoint }
func (c *fakeController) SetVelSetpointRaw(vel float64)           { c.velSetpoint = vel }
func (c *fakeController) SetVelIntegratorCurrent(cur float64)     {}
func (c *fakeController) SetTrajStartLoopCount(n uint64)          { c.trajLoopCnt = n }
func (c *fakeController) ControlMode() hw.ControlMode             { return c.mode }
func (c *fakeController) SetControlMode(m hw.ControlMode)         { c.mode = m }
func (c *fakeController) HomingSpeed() float64                    { return c.homingSpeed }

type fakeTrajectory struct {
	planned bool
}

func (t *fakeTrajectory) PlanTrapezoidal(goalPos, currentPos, currentVel, vMax, aMax, dMax float64) {
	t.planned = true
}

type fakeGPIO struct {
	cbs   map[[2]int]func()
	level map[[2]int]bool
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{cbs: make(map[[2]int]func()), level: make(map[[2]int]bool)}
}

func (g *fakeGPIO) Subscribe(port, pin int, pull hw.GPIOPull, edge hw.GPIOEdge, callback func()) error {
	if callback != nil {
		g.cbs[[2]int{port, pin}] = callback
	}
	return nil
}

func (g *fakeGPIO) Unsubscribe(port, pin int) error {
	delete(g.cbs, [2]int{port, pin})
	return nil
}

func (g *fakeGPIO) Read(port, pin int) (bool, error) {
	return g.level[[2]int{port, pin}], nil
}

func (g *fakeGPIO) setLevel(port, pin int, level bool) { g.level[[2]int{port, pin}] = level }

func (g *fakeGPIO) fireEdge(port, pin int) {
	if cb := g.cbs[[2]int{port, pin}]; cb != nil {
		cb()
	}
}

type fakeEndstopState struct {
	asserted bool
}

func (f *fakeEndstopState) Update()        {}
func (f *fakeEndstopState) Asserted() bool { return f.asserted }

func newEndstop(enabled bool, st *fakeEndstopState) *hw.Endstop {
	e := &hw.Endstop{Enabled: enabled}
	e.Bind(st)
	return e
}
