// Package protocol implements the line-oriented JSON protocol: inbound
// command frames merged sparsely into the control configuration, outbound
// report frames, and one-field error/debug diagnostic frames.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// DefaultReportIntervalMillis replaces rejected reportInterval values.
	DefaultReportIntervalMillis = 4000
	// MinReportIntervalMillis is the lowest accepted report cadence.
	MinReportIntervalMillis = 1000
	// MaxSoilSensors bounds the soilHumidity array the encoder must fit.
	MaxSoilSensors = 16
	// DefaultMaxFrameBytes holds a worst-case report (16 soil readings,
	// full-width numbers in every field) with margin.
	DefaultMaxFrameBytes = 512
)

// ErrFrameTooLarge is returned when an encoded frame exceeds the codec's
// capacity bound.
var ErrFrameTooLarge = errors.New("protocol: encoded frame exceeds size bound")

// Mode selects how valve commands are interpreted.
type Mode int

const (
	ModePositionOnly Mode = 0
	ModeFlowLimited  Mode = 1
)

// ControlConfig is the wire-visible control state. It is mutated by inbound
// commands and read by the control loop; unspecified command fields keep
// their previous values.
type ControlConfig struct {
	Mode                 Mode
	TargetValvePos       [2]int
	FlowLimit            int
	ReportIntervalMillis int64
}

// DefaultControlConfig returns the startup control state.
func DefaultControlConfig() ControlConfig {
	return ControlConfig{
		Mode:                 ModePositionOnly,
		ReportIntervalMillis: DefaultReportIntervalMillis,
	}
}

// ParseError reports a structurally invalid inbound frame. The underlying
// parser diagnostic is preserved for the error diagnostic frame.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed frame: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Codec encodes and decodes protocol frames. The zero value is not usable;
// construct with New.
type Codec struct {
	maxFrameBytes         int
	minIntervalMillis     int64
	defaultIntervalMillis int64
}

// New creates a Codec. Zero arguments fall back to the package defaults.
func New(maxFrameBytes int, minIntervalMillis, defaultIntervalMillis int64) *Codec {
	if maxFrameBytes <= 0 {
		maxFrameBytes = DefaultMaxFrameBytes
	}
	if minIntervalMillis <= 0 {
		minIntervalMillis = MinReportIntervalMillis
	}
	if defaultIntervalMillis <= 0 {
		defaultIntervalMillis = DefaultReportIntervalMillis
	}
	return &Codec{
		maxFrameBytes:         maxFrameBytes,
		minIntervalMillis:     minIntervalMillis,
		defaultIntervalMillis: defaultIntervalMillis,
	}
}

// inbound command fields; pointers distinguish absent from zero.
type command struct {
	Mode            *int   `json:"mode"`
	TargetValvePos0 *int   `json:"targetValvePos0"`
	TargetValvePos1 *int   `json:"targetValvePos1"`
	FlowLimit       *int   `json:"flowLimit"`
	ReportInterval  *int64 `json:"reportInterval"`
}

// DecodeInto parses one inbound line and merges the recognized fields into
// cfg. Absent or malformed fields keep their previous values; a report
// interval below the minimum is replaced with the default. Structurally
// invalid JSON returns a *ParseError and leaves cfg untouched.
//
// Valve percents are not range-checked here; the control loop clamps them
// when applying targets.
func (c *Codec) DecodeInto(line []byte, cfg *ControlConfig) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return &ParseError{Err: err}
	}

	var cmd command
	// Field-level type mismatches are tolerated: decode each recognized
	// field on its own and skip the ones that fail.
	decodeField(fields, "mode", &cmd.Mode)
	decodeField(fields, "targetValvePos0", &cmd.TargetValvePos0)
	decodeField(fields, "targetValvePos1", &cmd.TargetValvePos1)
	decodeField(fields, "flowLimit", &cmd.FlowLimit)
	decodeField(fields, "reportInterval", &cmd.ReportInterval)

	if cmd.Mode != nil {
		cfg.Mode = Mode(*cmd.Mode)
	}
	if cmd.TargetValvePos0 != nil {
		cfg.TargetValvePos[0] = *cmd.TargetValvePos0
	}
	if cmd.TargetValvePos1 != nil {
		cfg.TargetValvePos[1] = *cmd.TargetValvePos1
	}
	if cmd.FlowLimit != nil {
		cfg.FlowLimit = *cmd.FlowLimit
	}
	if cmd.ReportInterval != nil {
		if *cmd.ReportInterval < c.minIntervalMillis {
			cfg.ReportIntervalMillis = c.defaultIntervalMillis
		} else {
			cfg.ReportIntervalMillis = *cmd.ReportInterval
		}
	}

	return nil
}

func decodeField[T any](fields map[string]json.RawMessage, key string, dst **T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = &v
}

// EncodeCommand serializes a sparse command frame (host side). Nil fields
// are omitted so the controller keeps its stored values.
func (c *Codec) EncodeCommand(mode, pos0, pos1, flowLimit *int, reportInterval *int64) ([]byte, error) {
	cmd := command{
		Mode:            mode,
		TargetValvePos0: pos0,
		TargetValvePos1: pos1,
		FlowLimit:       flowLimit,
		ReportInterval:  reportInterval,
	}
	data, err := json.Marshal(struct {
		Mode            *int   `json:"mode,omitempty"`
		TargetValvePos0 *int   `json:"targetValvePos0,omitempty"`
		TargetValvePos1 *int   `json:"targetValvePos1,omitempty"`
		FlowLimit       *int   `json:"flowLimit,omitempty"`
		ReportInterval  *int64 `json:"reportInterval,omitempty"`
	}(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}
	return data, nil
}

// EncodeReport serializes one report frame. The result is checked against
// the codec's capacity bound so an oversized frame is an explicit error
// instead of a silently truncated line.
func (c *Codec) EncodeReport(r Report) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if len(data) > c.maxFrameBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, len(data), c.maxFrameBytes)
	}
	return data, nil
}

// DecodeReport parses an outbound report line (host side).
func DecodeReport(line []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(line, &r); err != nil {
		return Report{}, &ParseError{Err: err}
	}
	return r, nil
}

type errorFrame struct {
	Error string `json:"error"`
}

type debugFrame struct {
	Debug string `json:"debug"`
}

// EncodeError builds an {"error": ...} diagnostic frame. Diagnostic frames
// carry a single bounded string and cannot fail to encode.
func (c *Codec) EncodeError(msg string) []byte {
	data, _ := json.Marshal(errorFrame{Error: msg})
	return data
}

// EncodeDebug builds a {"debug": ...} diagnostic frame.
func (c *Codec) EncodeDebug(msg string) []byte {
	data, _ := json.Marshal(debugFrame{Debug: msg})
	return data
}

// Frame is one decoded outbound line: a report, or a diagnostic.
type Frame struct {
	Report *Report
	Error  string
	Debug  string
}

// DecodeFrame classifies and parses one outbound line (host side).
func DecodeFrame(line []byte) (Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return Frame{}, &ParseError{Err: err}
	}

	if raw, ok := fields["error"]; ok {
		var f Frame
		if err := json.Unmarshal(raw, &f.Error); err != nil {
			return Frame{}, &ParseError{Err: err}
		}
		return f, nil
	}
	if raw, ok := fields["debug"]; ok {
		var f Frame
		if err := json.Unmarshal(raw, &f.Debug); err != nil {
			return Frame{}, &ParseError{Err: err}
		}
		return f, nil
	}

	r, err := DecodeReport(line)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Report: &r}, nil
}
