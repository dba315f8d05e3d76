package axis

import "time"

// Config holds the recognized per-axis options, mutable at runtime via
// SetConfig. Field tags match the corpus's convention of tagging config
// structs for yaml decode.
type Config struct {
	StartupMotorCalibration         bool `yaml:"StartupMotorCalibration"`
	StartupEncoderIndexSearch       bool `yaml:"StartupEncoderIndexSearch"`
	StartupEncoderOffsetCalibration bool `yaml:"StartupEncoderOffsetCalibration"`
	StartupClosedLoopControl        bool `yaml:"StartupClosedLoopControl"`
	StartupSensorlessControl        bool `yaml:"StartupSensorlessControl"`
	StartupHoming                   bool `yaml:"StartupHoming"`

	EnableStepDir  bool    `yaml:"EnableStepDir"`
	CountsPerStep  float64 `yaml:"CountsPerStep"`

	RampUpTime        time.Duration `yaml:"RampUpTime"`
	RampUpDistance    float64       `yaml:"RampUpDistance"`
	SpinUpCurrent     float64       `yaml:"SpinUpCurrent"`
	SpinUpAcceleration float64      `yaml:"SpinUpAcceleration"`
	SpinUpTargetVel   float64       `yaml:"SpinUpTargetVel"`
}

// HWConfig is the immutable per-axis hardware binding: step/dir pins,
// thermistor ADC channel and polynomial, and thread
// priority. It is set once at construction and never mutated afterward.
type HWConfig struct {
	StepPort, StepPin int
	DirPort, DirPin   int

	ThermistorChannel     int
	ThermistorCoeffs      []float64
	ThermalTripCelsius    float64

	ThreadPriority int

	// TickRateHz is the nominal current-measurement signal frequency,
	// used to convert homing's millisecond timeouts into loop-counter
	// ticks (min_ms_homing * tick_rate / 1000).
	TickRateHz float64
}
