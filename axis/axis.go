// Package axis implements the per-axis real-time state machine: the
// sequencer that takes a motor from power-on through calibration, optional
// homing, and into closed-loop or sensorless control, and safely back to
// idle on any fault.
package axis

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/nasa-jpl/axisctl/boardio"
	"github.com/nasa-jpl/axisctl/hw"
	"github.com/nasa-jpl/axisctl/scheduler"
)

// HomingState is the Axis's homing sub-state.
type HomingState int

const (
	HomingInactive HomingState = iota
	HomingActive
	HomingMoveToZero
)

func (h HomingState) String() string {
	switch h {
	case HomingInactive:
		return "Inactive"
	case HomingActive:
		return "Homing"
	case HomingMoveToZero:
		return "MoveToZero"
	default:
		return "HomingState(unknown)"
	}
}

// Collaborators bundles the external, non-owning references an Axis is
// built from: several independent collaborators, each contracted by a
// narrow interface in package hw.
type Collaborators struct {
	Motor       hw.Motor
	Encoder     hw.Encoder
	Sensorless  hw.SensorlessEstimator
	Controller  hw.Controller
	Trajectory  hw.TrapezoidalTrajectory
	MinEndstop  *hw.Endstop
	MaxEndstop  *hw.Endstop
	GPIO        hw.GPIOService
	Board       *boardio.BoardContext
}

// Axis is the per-motor real-time state machine.
type Axis struct {
	Collaborators

	config   atomic.Pointer[Config]
	hwConfig HWConfig

	chain         taskChain
	requestedMu   sync.Mutex
	requestedSet  bool
	requested     State

	setpointMu sync.Mutex

	err errorBits

	homingState atomic.Int32 // HomingState
	findingMin  bool

	enableStepDir atomic.Bool

	loopCounter      atomic.Uint64
	loopCounterCheck uint64

	worker *scheduler.Worker
	sig    *scheduler.Signal

	stepDir *StepDirInput

	coggingMap []float32

	debug      *boardio.SerialDebugTap
	thermistor *boardio.Thermistor
}

// New constructs an Axis from its collaborators and configuration. The
// worker is not started; call Run to start it.
func New(c Collaborators, cfg Config, hwCfg HWConfig) *Axis {
	a := &Axis{
		Collaborators: c,
		hwConfig:      hwCfg,
		worker:        scheduler.NewWorker(),
		sig:           scheduler.NewSignal(),
	}
	a.config.Store(&cfg)
	a.chain.reset()
	a.stepDir = newStepDirInput(a)
	if c.Board != nil && len(hwCfg.ThermistorCoeffs) > 0 {
		a.thermistor = boardio.NewThermistor(c.Board, hwCfg.ThermistorChannel, hwCfg.ThermistorCoeffs)
	}
	return a
}

// SetDebugTap attaches an optional serial debug mirror (boardio.SerialDebugTap).
func (a *Axis) SetDebugTap(t *boardio.SerialDebugTap) { a.debug = t }

// logf logs through the optional serial debug tap in addition to the
// standard logger, at a "log state changes, never per-tick chatter"
// granularity.
func (a *Axis) logf(format string, args ...interface{}) {
	log.Printf(format, args...)
	a.debug.Logf(format, args...)
}

// RequestState writes requested_state, the axis's sole external command
// surface. It is safe to call concurrently with Run.
func (a *Axis) RequestState(s State) {
	a.requestedMu.Lock()
	defer a.requestedMu.Unlock()
	a.requested = s
	a.requestedSet = true
}

func (a *Axis) popRequestedState() (State, bool) {
	a.requestedMu.Lock()
	defer a.requestedMu.Unlock()
	if !a.requestedSet {
		return Undefined, false
	}
	s := a.requested
	a.requested = Undefined
	a.requestedSet = false
	return s, true
}

// RequestedState reports the last state written to requested_state; it
// does not consume the request. Undefined means "no request pending".
func (a *Axis) RequestedState() State {
	a.requestedMu.Lock()
	defer a.requestedMu.Unlock()
	if !a.requestedSet {
		return Undefined
	}
	return a.requested
}

// CurrentState returns task_chain[0].
func (a *Axis) CurrentState() State { return a.chain.current() }

// Error returns the accumulated error bitset.
func (a *Axis) Error() ErrorFlags { return a.err.load() }

// HomingStateValue returns the homing sub-state.
func (a *Axis) HomingStateValue() HomingState { return HomingState(a.homingState.Load()) }

// LoopCounter returns the monotonic tick counter.
func (a *Axis) LoopCounter() uint64 { return a.loopCounter.Load() }

// ThreadValid reports whether the worker goroutine is currently running.
func (a *Axis) ThreadValid() bool { return a.worker.Valid() }

// Config returns a copy of the axis's current configuration.
func (a *Axis) Config() Config { return a.cfg() }

// cfg loads the current configuration. It's a pointer swap
// (atomic.Pointer[Config]) rather than a mutex because config is written
// wholesale by cmd/axisd's fsnotify watcher goroutine while being read
// every loop iteration by the worker goroutine and concurrently by HTTP
// handler goroutines serving telemetry.
func (a *Axis) cfg() Config { return *a.config.Load() }

// SetConfig replaces the axis's configuration wholesale, used by
// cmd/axisd's fsnotify-driven hot reload.
func (a *Axis) SetConfig(cfg Config) { a.config.Store(&cfg) }

// Signal returns the scheduler.Signal a board's current-measurement
// interrupt should call Send on. It's exposed so boardio.TickSource
// implementations (or a real ISR) can drive the control loop without the
// axis package depending on any particular interrupt mechanism.
func (a *Axis) Signal() *scheduler.Signal { return a.sig }

// allocateCoggingMap allocates the cogging compensation buffer once, on
// first loop entry, sized by the encoder's configured CPR. If there is no
// encoder, or its CPR is not positive or exceeds hwMaxCPR, the feature is
// skipped and no buffer is allocated.
func (a *Axis) allocateCoggingMap() {
	if a.coggingMap != nil {
		return
	}
	if a.Encoder == nil || a.Encoder.CPR() > hwMaxCPR || a.Encoder.CPR() <= 0 {
		return
	}
	a.coggingMap = make([]float32, a.Encoder.CPR())
}

const hwMaxCPR = 1 << 16

// Run is the top-level infinite sequencer (AxisStateMachine,
// run_state_machine_loop). It starts the axis's scheduler.Worker goroutine
// and blocks until ctx is cancelled and that goroutine has exited. Callers
// that must not block run it in a goroutine of their own.
func (a *Axis) Run(ctx context.Context) {
	a.worker.Start(ctx, a.runLoop)
	<-a.worker.Done()
}

func (a *Axis) runLoop(ctx context.Context) {
	a.allocateCoggingMap()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		a.iterate(ctx)
	}
}

// iterate runs one pass of the sequencer: expand a pending request into
// the task chain, validate dispatch prerequisites, dispatch to the current
// state's handler, and advance or fall to Idle based on the result.
func (a *Axis) iterate(ctx context.Context) {
	if req, ok := a.popRequestedState(); ok {
		a.expandRequest(req)
	}

	a.validatePrerequisites()

	ok := a.dispatch(ctx)
	if !ok {
		if a.chain.current() != Idle {
			a.logf("axis: %s handler failed, error=%s, falling to Idle", a.chain.current(), a.err.load())
		}
		a.chain.load([]State{Idle})
		return
	}
	a.chain.advance()
}

// expandRequest populates the task chain from position 0 according to the
// requested top-level state, resets the error bitset for the new chain,
// and clears InvalidState.
func (a *Axis) expandRequest(req State) {
	var states []State
	switch req {
	case StartupSequence:
		if a.cfg().StartupMotorCalibration {
			states = append(states, MotorCalibration)
		}
		if a.cfg().StartupEncoderIndexSearch && a.Encoder != nil && a.Encoder.UseIndex() {
			states = append(states, EncoderIndexSearch)
		}
		if a.cfg().StartupEncoderOffsetCalibration {
			states = append(states, EncoderOffsetCalibration)
		}
		switch {
		case a.cfg().StartupClosedLoopControl:
			if a.cfg().StartupHoming {
				states = append(states, Homing)
			}
			states = append(states, ClosedLoopControl)
		case a.cfg().StartupSensorlessControl:
			states = append(states, SensorlessControl)
		}
		states = append(states, Idle)
	case Homing:
		states = []State{Homing, ClosedLoopControl, Idle}
	case FullCalibrationSequence:
		// Unlike StartupSequence, motor calibration here is unconditional:
		// a full calibration run always recalibrates the motor.
		states = append(states, MotorCalibration)
		if a.cfg().StartupEncoderIndexSearch && a.Encoder != nil && a.Encoder.UseIndex() {
			states = append(states, EncoderIndexSearch)
		}
		states = append(states, EncoderOffsetCalibration, Idle)
	case Undefined:
		states = []State{Idle}
	default:
		states = []State{req, Idle}
	}

	a.chain.load(states)
	a.err.reset()
}

// validatePrerequisites forces current_state to Undefined if it's
// stricter than a prerequisite that hasn't been satisfied yet.
func (a *Axis) validatePrerequisites() {
	cur := a.chain.current()
	if stricterThan(cur, MotorCalibration) && (a.Motor == nil || !a.Motor.IsCalibrated()) {
		a.forceUndefinedAt(cur)
		return
	}
	if stricterThan(cur, EncoderOffsetCalibration) && (a.Encoder == nil || !a.Encoder.IsReady()) {
		a.forceUndefinedAt(cur)
		return
	}
}

func (a *Axis) forceUndefinedAt(of State) {
	if a.chain.current() == of {
		a.chain.buf[a.chain.head] = Undefined
	}
}
