package axis

import "sync/atomic"

// ErrorFlags is the axis-level error bitset. Bits accumulate while a task
// chain runs; the axis resets the whole bitset (InvalidState included)
// whenever a fresh request is loaded into the task chain.
type ErrorFlags uint32

const (
	ErrInvalidState ErrorFlags = 1 << iota
	ErrDcBusUnderVoltage
	ErrDcBusOverVoltage
	ErrBrakeResistorDisarmed
	ErrMotorDisarmed
	ErrMotorFailed
	ErrControllerFailed
	ErrControlLoopMissed
	ErrPosCtrlDuringSensorless
	ErrMinEndstopPressed
	ErrMaxEndstopPressed
	ErrMotorOverheated
	ErrMotorArmFailed
	ErrEncoderFailed
)

func (e ErrorFlags) String() string {
	if e == 0 {
		return "None"
	}
	names := []struct {
		bit  ErrorFlags
		name string
	}{
		{ErrInvalidState, "InvalidState"},
		{ErrDcBusUnderVoltage, "DcBusUnderVoltage"},
		{ErrDcBusOverVoltage, "DcBusOverVoltage"},
		{ErrBrakeResistorDisarmed, "BrakeResistorDisarmed"},
		{ErrMotorDisarmed, "MotorDisarmed"},
		{ErrMotorFailed, "MotorFailed"},
		{ErrControllerFailed, "ControllerFailed"},
		{ErrControlLoopMissed, "ControlLoopMissed"},
		{ErrPosCtrlDuringSensorless, "PosCtrlDuringSensorless"},
		{ErrMinEndstopPressed, "MinEndstopPressed"},
		{ErrMaxEndstopPressed, "MaxEndstopPressed"},
		{ErrMotorOverheated, "MotorOverheated"},
		{ErrMotorArmFailed, "MotorArmFailed"},
		{ErrEncoderFailed, "EncoderFailed"},
	}
	out := ""
	for _, n := range names {
		if e&n.bit != 0 {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "Unknown"
	}
	return out
}

// errorBits is an atomic ErrorFlags accumulator. error is written by the
// worker, by subcomponent callbacks, and potentially by ISRs, so
// accumulation must be an atomic bitwise-OR and inspection an atomic
// load.
type errorBits struct {
	v atomic.Uint32
}

func (b *errorBits) add(flags ErrorFlags) {
	for {
		old := b.v.Load()
		next := old | uint32(flags)
		if next == old || b.v.CompareAndSwap(old, next) {
			return
		}
	}
}

func (b *errorBits) load() ErrorFlags {
	return ErrorFlags(b.v.Load())
}

func (b *errorBits) clear(flags ErrorFlags) {
	for {
		old := b.v.Load()
		next := old &^ uint32(flags)
		if next == old || b.v.CompareAndSwap(old, next) {
			return
		}
	}
}

func (b *errorBits) reset() {
	b.v.Store(0)
}
