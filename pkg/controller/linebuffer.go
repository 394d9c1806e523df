package controller

// LineBuffer assembles newline-terminated frames from a byte stream, for
// transports that deliver bytes one at a time. Overlong lines are dropped
// whole: once a line outgrows the buffer, every byte up to and including
// the next terminator is discarded, so the tail never surfaces as a
// spurious frame.
type LineBuffer struct {
	buf  []byte
	drop bool
}

// NewLineBuffer creates a LineBuffer holding lines up to capacity bytes.
func NewLineBuffer(capacity int) *LineBuffer {
	return &LineBuffer{buf: make([]byte, 0, capacity)}
}

// Feed consumes one byte and returns a complete line when a terminator
// arrives. The returned slice aliases the internal buffer and is only
// valid until the next call.
func (l *LineBuffer) Feed(b byte) ([]byte, bool) {
	if b == '\n' || b == '\r' {
		if l.drop {
			l.drop = false
			return nil, false
		}
		if len(l.buf) == 0 {
			return nil, false
		}
		line := l.buf
		l.buf = l.buf[:0]
		return line, true
	}

	if l.drop {
		return nil, false
	}
	if len(l.buf) == cap(l.buf) {
		l.buf = l.buf[:0]
		l.drop = true
		return nil, false
	}
	l.buf = append(l.buf, b)
	return nil, false
}
