package axis

// Bus voltage trip band. These are conservative defaults for a 24V-class
// motor-drive board; a real board would source them from hw config, but
// they aren't per-axis config fields, so they're board constants here,
// same as phCurrentMeasTimeout.
const (
	dcBusUnderVoltageTrip = 10.0
	dcBusOverVoltageTrip  = 30.0
)

// doChecks implements SafetyMonitor.do_checks: ORs bus-voltage,
// brake-resistor, motor-disarm, and (supplemented) thermal checks into
// the error bitset, then invokes the motor's and encoder's own DoChecks.
// Returns true iff no new error was raised this tick.
func (a *Axis) doChecks() bool {
	before := a.err.load()

	if a.Board != nil {
		if !a.Board.BrakeResistorArmed() {
			a.err.add(ErrBrakeResistorDisarmed)
		}
		v := a.Board.VBusVoltage()
		if v < dcBusUnderVoltageTrip {
			a.err.add(ErrDcBusUnderVoltage)
		}
		if v > dcBusOverVoltageTrip {
			a.err.add(ErrDcBusOverVoltage)
		}
	}

	if a.chain.current() != Idle && a.Motor != nil && !a.Motor.Armed() {
		a.err.add(ErrMotorDisarmed)
	}

	if a.checkThermal() {
		a.err.add(ErrMotorOverheated)
	}

	if a.Motor != nil && !a.Motor.DoChecks() {
		a.err.add(ErrMotorFailed)
	}
	if a.Encoder != nil && !a.Encoder.DoChecks() {
		a.err.add(ErrEncoderFailed)
	}

	return a.err.load() == before
}

// checkThermal is the supplemented thermal-derating check: it reports
// true (overheated) when a configured thermistor
// reads above hw_config.thermal_trip_celsius. Axes without a configured
// thermistor (ThermalTripCelsius == 0) skip the check entirely, since 0 is
// never a meaningful trip point for a motor winding.
func (a *Axis) checkThermal() bool {
	if a.hwConfig.ThermalTripCelsius == 0 || a.thermistor == nil {
		return false
	}
	celsius, ok := a.thermistor.ReadCelsius()
	if !ok {
		return false
	}
	return celsius > a.hwConfig.ThermalTripCelsius
}

// doUpdates implements SafetyMonitor.do_updates: it updates the encoder,
// the sensorless estimator, and both endstops, in
// that fixed order (endstop debouncing consumes loop-counter state set
// earlier, so order matters). Returns true iff no new error accumulated.
func (a *Axis) doUpdates() bool {
	before := a.err.load()

	if a.Encoder != nil {
		a.Encoder.Update()
	}
	if a.Sensorless != nil {
		a.Sensorless.Update()
	}
	if a.MinEndstop != nil {
		a.MinEndstop.Update()
	}
	if a.MaxEndstop != nil {
		a.MaxEndstop.Update()
	}

	return a.err.load() == before
}
