// Package boardio lifts board-wide mutable state (brake_resistor_armed,
// vbus_voltage, adc_measurements) into a handle that gets passed into
// SafetyMonitor and the thermistor reader, instead of being read from
// process globals.
package boardio

import (
	"sync"
	"sync/atomic"
)

// BoardContext holds the board-wide state several axes' SafetyMonitors
// read from. One BoardContext is shared by every Axis on a board, since
// bus voltage and brake-resistor arming are board-scoped, not per-axis.
type BoardContext struct {
	brakeResistorArmed atomic.Bool
	vbusVoltageMilli   atomic.Int64 // millivolts, to keep this lock-free

	mu   sync.Mutex
	adcs map[int]int32 // channel -> raw code
}

// NewBoardContext returns a BoardContext with the brake resistor disarmed
// and no ADC samples recorded, matching a freshly booted board.
func NewBoardContext() *BoardContext {
	return &BoardContext{adcs: make(map[int]int32)}
}

// SetBrakeResistorArmed updates the board-wide brake-resistor arm flag.
// Called by the board's supply-monitoring driver, not by the axis package.
func (b *BoardContext) SetBrakeResistorArmed(armed bool) {
	b.brakeResistorArmed.Store(armed)
}

// BrakeResistorArmed reports the current arm state.
func (b *BoardContext) BrakeResistorArmed() bool {
	return b.brakeResistorArmed.Load()
}

// SetVBusVoltage records the bus voltage in volts.
func (b *BoardContext) SetVBusVoltage(volts float64) {
	b.vbusVoltageMilli.Store(int64(volts * 1000))
}

// VBusVoltage returns the last-recorded bus voltage in volts.
func (b *BoardContext) VBusVoltage() float64 {
	return float64(b.vbusVoltageMilli.Load()) / 1000
}

// SetADCRaw records a raw ADC code for a channel, e.g. from the board's
// periodic ADC-scan interrupt.
func (b *BoardContext) SetADCRaw(channel int, code int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.adcs[channel] = code
}

// ADCRaw returns the last raw ADC code recorded for a channel, and whether
// one has ever been recorded.
func (b *BoardContext) ADCRaw(channel int) (int32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	code, ok := b.adcs[channel]
	return code, ok
}
