package controller

import "errors"

// LinePipe is an in-memory LineIO backed by channels: the device side of a
// simulated serial link. The host side pushes command lines in and consumes
// emitted lines from the Lines channel.
type LinePipe struct {
	inbound  chan []byte
	outbound chan []byte
}

var _ LineIO = (*LinePipe)(nil)

// ErrPipeFull is returned when the outbound buffer is saturated and a line
// was dropped, mirroring a serial transmit overrun.
var ErrPipeFull = errors.New("line pipe full, dropping line")

// NewLinePipe creates a pipe with the given buffer depth per direction.
func NewLinePipe(buffer int) *LinePipe {
	if buffer <= 0 {
		buffer = 64
	}
	return &LinePipe{
		inbound:  make(chan []byte, buffer),
		outbound: make(chan []byte, buffer),
	}
}

// ReadLine returns the next pushed line without blocking.
func (p *LinePipe) ReadLine() ([]byte, bool) {
	select {
	case line := <-p.inbound:
		return line, true
	default:
		return nil, false
	}
}

// WriteLine queues an emitted line for the host side, dropping on overflow
// rather than blocking the loop.
func (p *LinePipe) WriteLine(line []byte) error {
	// Copy: the caller may reuse its buffer after WriteLine returns.
	out := make([]byte, len(line))
	copy(out, line)

	select {
	case p.outbound <- out:
		return nil
	default:
		return ErrPipeFull
	}
}

// Push delivers one command line to the device side.
func (p *LinePipe) Push(line []byte) {
	in := make([]byte, len(line))
	copy(in, line)
	p.inbound <- in
}

// Lines is the stream of lines the device has emitted.
func (p *LinePipe) Lines() <-chan []byte {
	return p.outbound
}
