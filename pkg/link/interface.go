// Package link is the host-side view of the controller: a Device that
// streams decoded report frames and accepts sparse commands, implemented
// over a real serial port or an in-process simulated controller.
package link

import "github.com/STcraft/irrigation-serv/pkg/protocol"

// Command is a sparse command frame. Nil fields are omitted from the wire
// so the controller keeps its stored values.
type Command struct {
	Mode                 *int
	TargetValvePos0      *int
	TargetValvePos1      *int
	FlowLimit            *int
	ReportIntervalMillis *int64
}

// Device defines the interface for controller links (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Reports() <-chan protocol.Report
	Diagnostics() <-chan protocol.Frame
	Send(cmd Command) error
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
