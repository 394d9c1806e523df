package valve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/STcraft/irrigation-serv/pkg/hal"
)

type testRig struct {
	actuator *Actuator
	open     [Channels]*hal.FakePin
	close    [Channels]*hal.FakePin
	openLim  [Channels]*hal.FakePin
	closeLim [Channels]*hal.FakePin
}

func newTestRig(timing Timing) *testRig {
	rig := &testRig{}
	var pins [Channels]ChannelPins
	for i := 0; i < Channels; i++ {
		rig.open[i] = &hal.FakePin{}
		rig.close[i] = &hal.FakePin{}
		rig.openLim[i] = &hal.FakePin{}
		rig.closeLim[i] = &hal.FakePin{}
		pins[i] = ChannelPins{
			OpenMotor:  rig.open[i],
			CloseMotor: rig.close[i],
			OpenLimit:  rig.openLim[i],
			CloseLimit: rig.closeLim[i],
		}
	}
	rig.actuator = New(timing, pins)
	return rig
}

func defaultTiming() Timing {
	return Timing{
		OpenTravelMillis:  14000,
		CloseTravelMillis: 12000,
		OvershootMillis:   1500,
	}
}

func TestSetTarget_Direction(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
		want Motion
	}{
		{"open from closed", 0, 60, Opening},
		{"open fully", 0, 100, Opening},
		{"close partially", 60, 20, Closing},
		{"close fully", 60, 0, Closing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newTestRig(defaultTiming())
			if tt.from != 0 {
				// Bring the channel to the starting position and let it settle.
				rig.actuator.SetTarget(0, tt.from)
				rig.actuator.Tick(1 << 30)
			}

			rig.actuator.SetTarget(0, tt.to)
			assert.Equal(t, tt.want, rig.actuator.Motion(0))
			assert.Equal(t, tt.to, rig.actuator.Target(0))
		})
	}
}

func TestSetTarget_SameTargetIsNoop(t *testing.T) {
	rig := newTestRig(defaultTiming())
	rig.actuator.SetTarget(0, 40)
	motion := rig.actuator.Motion(0)
	remaining := rig.actuator.Remaining(0)

	rig.actuator.SetTarget(0, 40)
	assert.Equal(t, motion, rig.actuator.Motion(0))
	assert.Equal(t, remaining, rig.actuator.Remaining(0))
}

func TestSetTarget_FullTravelGetsOvershoot(t *testing.T) {
	timing := defaultTiming()

	rig := newTestRig(timing)
	rig.actuator.SetTarget(0, 100)
	assert.Equal(t, timing.OpenTravelMillis+timing.OvershootMillis, rig.actuator.Remaining(0))

	// Settle fully open, then command fully closed.
	rig.actuator.Tick(timing.OpenTravelMillis + timing.OvershootMillis)
	rig.actuator.SetTarget(0, 0)
	assert.Equal(t, timing.CloseTravelMillis+timing.OvershootMillis, rig.actuator.Remaining(0))
}

func TestSetTarget_IntermediateScalesLinearly(t *testing.T) {
	timing := defaultTiming()
	rig := newTestRig(timing)

	rig.actuator.SetTarget(0, 50)
	assert.Equal(t, timing.OpenTravelMillis*50/100, rig.actuator.Remaining(0))

	rig.actuator.Tick(1 << 30)

	rig.actuator.SetTarget(0, 25)
	assert.Equal(t, timing.CloseTravelMillis*25/100, rig.actuator.Remaining(0))
}

func TestTick_CountdownStopsMotor(t *testing.T) {
	timing := defaultTiming()
	rig := newTestRig(timing)

	rig.actuator.SetTarget(0, 100)
	assert.True(t, rig.open[0].Get())
	assert.False(t, rig.close[0].Get())

	total := timing.OpenTravelMillis + timing.OvershootMillis
	for elapsed := int64(0); elapsed < total; elapsed += 500 {
		assert.Equal(t, Opening, rig.actuator.Motion(0))
		rig.actuator.Tick(500)
	}

	assert.Equal(t, Idle, rig.actuator.Motion(0))
	assert.Equal(t, int64(0), rig.actuator.Remaining(0))
	assert.False(t, rig.open[0].Get())
	assert.False(t, rig.close[0].Get())
}

func TestTick_LimitSwitchOverridesCountdown(t *testing.T) {
	rig := newTestRig(defaultTiming())

	rig.actuator.SetTarget(0, 100)
	rig.actuator.Tick(100)
	assert.Equal(t, Opening, rig.actuator.Motion(0))
	assert.Greater(t, rig.actuator.Remaining(0), int64(0))

	rig.openLim[0].Set(true)
	rig.actuator.Tick(1)

	assert.Equal(t, Idle, rig.actuator.Motion(0))
	assert.Equal(t, int64(0), rig.actuator.Remaining(0))
	assert.False(t, rig.open[0].Get())
}

func TestTick_OppositeLimitSwitchIgnored(t *testing.T) {
	rig := newTestRig(defaultTiming())

	rig.actuator.SetTarget(0, 100)
	rig.closeLim[0].Set(true) // close limit while opening: not our direction
	rig.actuator.Tick(100)

	assert.Equal(t, Opening, rig.actuator.Motion(0))
}

func TestTick_LimitSwitchWhileIdleIgnored(t *testing.T) {
	rig := newTestRig(defaultTiming())

	rig.openLim[0].Set(true)
	rig.closeLim[0].Set(true)
	rig.actuator.Tick(100)

	assert.Equal(t, Idle, rig.actuator.Motion(0))
	assert.Equal(t, int64(0), rig.actuator.Remaining(0))
	assert.False(t, rig.open[0].Get())
	assert.False(t, rig.close[0].Get())
}

func TestChannels_Independent(t *testing.T) {
	rig := newTestRig(defaultTiming())

	rig.actuator.SetTarget(0, 100)
	rig.actuator.SetTarget(1, 30)

	assert.Equal(t, Opening, rig.actuator.Motion(0))
	assert.Equal(t, Opening, rig.actuator.Motion(1))
	assert.True(t, rig.open[0].Get())
	assert.True(t, rig.open[1].Get())

	// Channel 1 finishes first.
	rig.actuator.Tick(defaultTiming().OpenTravelMillis * 30 / 100)
	assert.Equal(t, Opening, rig.actuator.Motion(0))
	assert.Equal(t, Idle, rig.actuator.Motion(1))
	assert.True(t, rig.open[0].Get())
	assert.False(t, rig.open[1].Get())
}

func TestDrive_ExactlyOneOutputWhileMoving(t *testing.T) {
	rig := newTestRig(defaultTiming())

	rig.actuator.SetTarget(0, 60)
	assert.True(t, rig.open[0].Get())
	assert.False(t, rig.close[0].Get())

	rig.actuator.Tick(1 << 30)
	rig.actuator.SetTarget(0, 10)
	assert.False(t, rig.open[0].Get())
	assert.True(t, rig.close[0].Get())

	rig.actuator.Tick(1 << 30)
	assert.False(t, rig.open[0].Get())
	assert.False(t, rig.close[0].Get())
}
