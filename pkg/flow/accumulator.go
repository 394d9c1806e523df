// Package flow accumulates flow meter pulses delivered from interrupt
// context and converts them to liters-per-minute rates.
//
// The two pulse counters are the only state shared between interrupt
// context and the main loop. Sample holds the Gate suspended for the whole
// read-and-reset of both counters, so no pulse is lost or double-counted
// across a reset. The critical section is a handful of loads and stores;
// pulses arriving while suspended stay pending in the interrupt controller
// (or block in Deliver on the host) and land in the next window.
package flow

import "sync"

// Channels is the number of independent flow inputs.
const Channels = 2

// Gate suspends and resumes pulse delivery for both flow inputs.
// On the MCU this masks the pin interrupts; on the host MutexGate models
// delivery with a mutex.
type Gate interface {
	Suspend()
	Resume()
}

// Accumulator counts pulses per channel and computes flow rates over a
// sampling window.
type Accumulator struct {
	gate              Gate
	pulsesPerLiterMin float64
	counts            [Channels]uint32
}

// New creates an Accumulator. pulsesPerLiterMin is the meter constant K in
// "f [Hz] = K * Q [L/min]".
func New(gate Gate, pulsesPerLiterMin float64) *Accumulator {
	return &Accumulator{
		gate:              gate,
		pulsesPerLiterMin: pulsesPerLiterMin,
	}
}

// Pulse records one detected pulse edge. It is the interrupt callback: it
// must do nothing beyond the increment, and must only run while the gate
// is not suspended.
func (a *Accumulator) Pulse(channel int) {
	a.counts[channel]++
}

// Sample reads and resets both counters atomically with respect to pulse
// delivery and returns the flow rates for the elapsed window.
// windowMillis is the actual time since the previous sample; a window of
// zero or less yields zero rates and leaves the counters untouched, so the
// accumulated pulses land in the next valid window.
func (a *Accumulator) Sample(windowMillis int64) (rate0, rate1 float64) {
	if windowMillis <= 0 {
		return 0, 0
	}

	var pulses [Channels]uint32

	a.gate.Suspend()
	for i := range a.counts {
		pulses[i] = a.counts[i]
		a.counts[i] = 0
	}
	a.gate.Resume()

	return a.rate(pulses[0], windowMillis), a.rate(pulses[1], windowMillis)
}

// rate converts pulses-per-window to pulses-per-second, then to L/min via
// the meter constant.
func (a *Accumulator) rate(pulses uint32, windowMillis int64) float64 {
	if a.pulsesPerLiterMin <= 0 {
		return 0
	}
	perSecond := float64(pulses) * 1000.0 / float64(windowMillis)
	return perSecond / a.pulsesPerLiterMin
}

// MutexGate is the host-side Gate: Deliver models interrupt delivery and
// blocks while the gate is suspended.
type MutexGate struct {
	mu sync.Mutex
}

var _ Gate = (*MutexGate)(nil)

func (g *MutexGate) Suspend() { g.mu.Lock() }
func (g *MutexGate) Resume()  { g.mu.Unlock() }

// Deliver runs fn as if it were an interrupt handler: it waits for the
// gate to be open and excludes concurrent Sample read-resets.
func (g *MutexGate) Deliver(fn func()) {
	g.mu.Lock()
	fn()
	g.mu.Unlock()
}
