package boardio

import "github.com/nasa-jpl/axisctl/mathx"

// Thermistor converts a board's raw thermistor ADC code into degrees
// Celsius using a per-axis polynomial (hw_config's thermistor
// coefficients).
type Thermistor struct {
	board   *BoardContext
	channel int
	// Coeffs are polynomial coefficients, lowest order first, evaluated
	// against the raw ADC code with Horner's method.
	Coeffs []float64
}

// NewThermistor binds a Thermistor to a board's ADC channel.
func NewThermistor(board *BoardContext, channel int, coeffs []float64) *Thermistor {
	return &Thermistor{board: board, channel: channel, Coeffs: coeffs}
}

// ReadCelsius evaluates the configured polynomial against the last raw ADC
// code recorded for this thermistor's channel. ok is false if no sample has
// ever been recorded.
func (t *Thermistor) ReadCelsius() (celsius float64, ok bool) {
	code, ok := t.board.ADCRaw(t.channel)
	if !ok {
		return 0, false
	}
	x := float64(code)
	var acc float64
	for i := len(t.Coeffs) - 1; i >= 0; i-- {
		acc = acc*x + t.Coeffs[i]
	}
	// round to a tenth of a degree for display/telemetry purposes, same
	// rounding mathx.Round was written to provide.
	return mathx.Round(acc, 0.1), true
}
