// Package controller ties the valve actuator, flow accumulator, sensor
// snapshot and protocol codec together in a single cooperative loop: no
// blocking, no preemption, one Step per cycle. The only concurrency the
// loop coexists with is interrupt-context pulse delivery, which is isolated
// behind the flow accumulator's gate.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/STcraft/irrigation-serv/pkg/flow"
	"github.com/STcraft/irrigation-serv/pkg/hal"
	"github.com/STcraft/irrigation-serv/pkg/protocol"
	"github.com/STcraft/irrigation-serv/pkg/sensor"
	"github.com/STcraft/irrigation-serv/pkg/valve"
)

// LineIO is the non-blocking line transport the loop talks through.
// ReadLine returns the next complete inbound line, or ok=false when none is
// ready; it must never block.
type LineIO interface {
	ReadLine() (line []byte, ok bool)
	WriteLine(line []byte) error
}

// Loop is the cooperative scheduler. It owns the control configuration and
// all device state; nothing else mutates them.
type Loop struct {
	cfg     protocol.ControlConfig
	codec   *protocol.Codec
	valves  *valve.Actuator
	flow    *flow.Accumulator
	sensors *sensor.Sources
	io      LineIO
	clock   hal.Clock

	lastTickMillis   int64
	lastReportMillis int64
	applied          [2]int
	started          bool
}

// New creates a Loop with the default control configuration.
func New(codec *protocol.Codec, valves *valve.Actuator, accumulator *flow.Accumulator,
	sensors *sensor.Sources, io LineIO, clock hal.Clock) *Loop {
	return &Loop{
		cfg:     protocol.DefaultControlConfig(),
		codec:   codec,
		valves:  valves,
		flow:    accumulator,
		sensors: sensors,
		io:      io,
		clock:   clock,
	}
}

// Config returns a copy of the current control configuration.
func (l *Loop) Config() protocol.ControlConfig {
	return l.cfg
}

// Valves exposes the actuator for observation in tests and simulations.
func (l *Loop) Valves() *valve.Actuator {
	return l.valves
}

// Step runs one cooperative cycle: drain and apply inbound commands, advance
// the valve state machines by elapsed time, and emit a report when the
// cadence is due. Commands received in a cycle affect valve motion in that
// same cycle.
func (l *Loop) Step() {
	now := l.clock.Millis()
	if !l.started {
		l.lastTickMillis = now
		l.lastReportMillis = now
		l.started = true
	}

	// 1. Drain inbound lines. A malformed frame is reported and dropped;
	// the stored configuration is untouched and the loop carries on.
	for {
		line, ok := l.io.ReadLine()
		if !ok {
			break
		}
		if err := l.codec.DecodeInto(line, &l.cfg); err != nil {
			_ = l.io.WriteLine(l.codec.EncodeError(err.Error()))
			continue
		}
	}

	// Apply commanded targets that changed since last applied. The codec
	// does not range-check valve percents; clamping happens here.
	for ch := 0; ch < valve.Channels; ch++ {
		want := clampPercent(l.cfg.TargetValvePos[ch])
		if want != l.applied[ch] {
			l.valves.SetTarget(ch, want)
			l.applied[ch] = want
		}
	}

	// 2. Advance valve timing and poll limit switches, every cycle,
	// independent of the report cadence.
	l.valves.Tick(now - l.lastTickMillis)
	l.lastTickMillis = now

	// 3. Periodic report. The flow window is the actual elapsed time since
	// the previous report, not the nominal interval, so an overrun cycle
	// does not inflate the rate.
	window := now - l.lastReportMillis
	if window >= l.cfg.ReportIntervalMillis {
		l.emitReport(now, window)
		l.lastReportMillis = now
	}
}

func (l *Loop) emitReport(now, windowMillis int64) {
	rate0, rate1 := l.flow.Sample(windowMillis)
	rates := [2]float64{rate0, rate1}

	report := l.sensors.Collect(now, rates, l.applied)

	data, err := l.codec.EncodeReport(report)
	if err != nil {
		_ = l.io.WriteLine(l.codec.EncodeError(err.Error()))
		return
	}
	_ = l.io.WriteLine(data)

	// Flow-limited mode is a reporting concern only: notify, never shut off.
	if l.cfg.Mode == protocol.ModeFlowLimited && l.cfg.FlowLimit > 0 {
		total := rate0 + rate1
		if total > float64(l.cfg.FlowLimit) {
			msg := fmt.Sprintf("flow %.2f L/min exceeds limit %d", total, l.cfg.FlowLimit)
			_ = l.io.WriteLine(l.codec.EncodeDebug(msg))
		}
	}
}

// Run drives Step as fast as the host allows until ctx is done. The short
// sleep yields the CPU without throttling valve safety checks.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		l.Step()
		time.Sleep(time.Millisecond)
	}
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
