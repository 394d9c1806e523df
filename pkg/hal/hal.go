// Package hal abstracts the hardware the controller touches: digital pins,
// the multi-channel analog reader, climate sensors and the monotonic clock.
// The real implementations live in the firmware (TinyGo machine package);
// the fakes in this package allow testing without hardware.
package hal

// OutputPin drives a single digital output.
type OutputPin interface {
	Set(high bool)
}

// InputPin reads a single digital input.
type InputPin interface {
	Get() bool
}

// AnalogReader reads raw values from a multi-channel ADC.
// Channel indices are zero-based; values are raw counts (not calibrated).
type AnalogReader interface {
	Read(channel int) uint16
}

// ClimateSensor reads ambient temperature and relative humidity.
// Either reading may be NaN when the sensor fails; callers must tolerate.
type ClimateSensor interface {
	Temperature() float32
	Humidity() float32
}

// TemperatureSensor reads a single temperature. NaN on failure.
type TemperatureSensor interface {
	Temperature() float32
}

// Clock provides monotonic milliseconds since start.
type Clock interface {
	Millis() int64
}
