package hal

import "time"

// WallClock reports monotonic milliseconds since its creation, backed by
// the host's monotonic clock.
type WallClock struct {
	start time.Time
}

var _ Clock = (*WallClock)(nil)

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Millis() int64 {
	return time.Since(c.start).Milliseconds()
}
