// Package valve implements the per-valve motor timing state machine.
//
// Valve position is open-loop: the motor is run for a time estimated from
// calibrated full-travel durations and the commanded position delta. The
// limit switches are the authoritative stop signal when a valve reaches a
// physical end stop; the timing estimate is the fallback in between.
package valve

import "github.com/STcraft/irrigation-serv/pkg/hal"

// Channels is the number of valves the actuator drives.
const Channels = 2

// Motion is the motor state of one valve channel.
type Motion int

const (
	Idle Motion = iota
	Opening
	Closing
)

func (m Motion) String() string {
	switch m {
	case Opening:
		return "opening"
	case Closing:
		return "closing"
	default:
		return "idle"
	}
}

// Timing holds the calibrated travel durations shared by both channels.
type Timing struct {
	OpenTravelMillis  int64
	CloseTravelMillis int64
	// OvershootMillis is added on transitions to exactly 0% or 100% so the
	// valve seats fully regardless of the estimate's error.
	OvershootMillis int64
}

// ChannelPins wires one valve channel to its motor outputs and limit
// switches. Exactly one of OpenMotor/CloseMotor is high while moving.
type ChannelPins struct {
	OpenMotor  hal.OutputPin
	CloseMotor hal.OutputPin
	OpenLimit  hal.InputPin
	CloseLimit hal.InputPin
}

type channel struct {
	pins            ChannelPins
	target          int
	remainingMillis int64
	motion          Motion
}

// Actuator drives both valve channels.
type Actuator struct {
	timing   Timing
	channels [Channels]channel
}

// New creates an Actuator with both channels idle at target 0.
func New(timing Timing, pins [Channels]ChannelPins) *Actuator {
	a := &Actuator{timing: timing}
	for i := range a.channels {
		a.channels[i].pins = pins[i]
	}
	return a
}

// SetTarget commands a valve channel to the given position percent (0-100).
// Commanding the current target is a no-op. The channel selector must be
// 0 or 1; anything else is a caller bug and panics.
func (a *Actuator) SetTarget(ch, percent int) {
	c := &a.channels[ch]
	if percent == c.target {
		return
	}

	delta := percent - c.target
	if delta > 0 {
		c.motion = Opening
		c.remainingMillis = a.runDuration(a.timing.OpenTravelMillis, delta, percent)
	} else {
		c.motion = Closing
		c.remainingMillis = a.runDuration(a.timing.CloseTravelMillis, -delta, percent)
	}
	c.target = percent
	a.drive(c)
}

// runDuration estimates motor run time for a position delta. Full-travel
// commands get the whole calibrated duration plus the overshoot margin;
// intermediate moves scale linearly with the delta.
func (a *Actuator) runDuration(fullMillis int64, delta, targetPercent int) int64 {
	if targetPercent == 0 || targetPercent == 100 {
		return fullMillis + a.timing.OvershootMillis
	}
	return fullMillis * int64(delta) / 100
}

// Tick advances both channels by elapsed milliseconds and polls the limit
// switches. A switch matching the current direction stops the motor
// immediately, overriding the countdown. Switches firing while idle are
// ignored.
func (a *Actuator) Tick(elapsedMillis int64) {
	for i := range a.channels {
		c := &a.channels[i]

		if c.motion != Idle {
			c.remainingMillis -= elapsedMillis
			if c.remainingMillis <= 0 {
				a.stop(c)
			}
		}

		switch c.motion {
		case Opening:
			if c.pins.OpenLimit.Get() {
				a.stop(c)
			}
		case Closing:
			if c.pins.CloseLimit.Get() {
				a.stop(c)
			}
		}
	}
}

func (a *Actuator) stop(c *channel) {
	c.motion = Idle
	c.remainingMillis = 0
	a.drive(c)
}

// drive reflects the channel's motion on its motor outputs.
func (a *Actuator) drive(c *channel) {
	c.pins.OpenMotor.Set(c.motion == Opening)
	c.pins.CloseMotor.Set(c.motion == Closing)
}

// Target returns the last commanded position percent for a channel.
func (a *Actuator) Target(ch int) int {
	return a.channels[ch].target
}

// Motion returns the current motor state for a channel.
func (a *Actuator) Motion(ch int) Motion {
	return a.channels[ch].motion
}

// Remaining returns the remaining run time in milliseconds for a channel.
func (a *Actuator) Remaining(ch int) int64 {
	return a.channels[ch].remainingMillis
}
