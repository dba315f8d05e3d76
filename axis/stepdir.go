package axis

import "github.com/nasa-jpl/axisctl/hw"

// StepDirInput subscribes/unsubscribes a step-edge handler that nudges the
// controller's position setpoint by a configured increment based on a
// direction pin.
type StepDirInput struct {
	axis *Axis // back-reference, set once at construction (invariant 7)

	enabled bool
}

// newStepDirInput constructs a StepDirInput bound to its owning Axis. The
// back-reference is assigned here and never changed afterward: a
// collaborator holds a back-reference to its owning Axis, set once at
// construction.
func newStepDirInput(a *Axis) *StepDirInput {
	return &StepDirInput{axis: a}
}

// Enable registers the step-edge handler. Idempotent: calling Enable
// while already enabled is a no-op, since re-entering the same state must
// be idempotent.
func (s *StepDirInput) Enable() error {
	if s.enabled {
		return nil
	}
	a := s.axis
	if a.GPIO == nil {
		return nil
	}
	hc := a.hwConfig
	if err := a.GPIO.Subscribe(hc.DirPort, hc.DirPin, hw.PullNone, hw.EdgeFalling, nil); err != nil {
		return err
	}
	err := a.GPIO.Subscribe(hc.StepPort, hc.StepPin, hw.PullDown, hw.EdgeFalling, s.onStepEdge)
	if err != nil {
		return err
	}
	s.enabled = true
	a.enableStepDir.Store(true)
	return nil
}

// Disable unregisters the step-edge handler. Idempotent.
func (s *StepDirInput) Disable() error {
	if !s.enabled {
		return nil
	}
	a := s.axis
	s.enabled = false
	a.enableStepDir.Store(false)
	if a.GPIO == nil {
		return nil
	}
	return a.GPIO.Unsubscribe(a.hwConfig.StepPort, a.hwConfig.StepPin)
}

// onStepEdge is the falling-edge interrupt handler: read the direction
// pin (high = +1, low = -1) and atomically bump the controller's position
// setpoint by dir * counts_per_step.
func (s *StepDirInput) onStepEdge() {
	a := s.axis
	if !a.enableStepDir.Load() {
		return
	}
	high, err := a.GPIO.Read(a.hwConfig.DirPort, a.hwConfig.DirPin)
	if err != nil {
		return
	}
	dir := -1.0
	if high {
		dir = 1.0
	}
	delta := dir * a.cfg().CountsPerStep
	a.bumpPosSetpoint(delta)
}

// bumpPosSetpoint applies delta to the controller's position setpoint
// under a.setpointMu, guarding the single shared resource the step ISR and
// the worker both touch.
func (a *Axis) bumpPosSetpoint(delta float64) {
	a.setpointMu.Lock()
	defer a.setpointMu.Unlock()
	cur := a.Controller.PosSetpoint()
	a.Controller.SetRawPosSetpoint(cur + delta)
}
