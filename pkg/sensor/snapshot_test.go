package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/STcraft/irrigation-serv/pkg/hal"
)

func TestSoilCalibration_Percent(t *testing.T) {
	// Capacitive probe: dry reads high, wet reads low.
	calib := SoilCalibration{RawDry: 3200, RawWet: 1200}

	tests := []struct {
		name string
		raw  uint16
		want int
	}{
		{"fully dry", 3200, 0},
		{"fully wet", 1200, 100},
		{"midpoint", 2200, 50},
		{"drier than dry point clamps", 4000, 0},
		{"wetter than wet point clamps", 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calib.Percent(tt.raw))
		})
	}
}

func TestSoilCalibration_DegenerateCurve(t *testing.T) {
	calib := SoilCalibration{RawDry: 2000, RawWet: 2000}
	assert.Equal(t, 0, calib.Percent(2000))
}

func newTestSources(channels int) (*Sources, *hal.FakeAnalog, *hal.FakePin, *hal.FakeClimate, *hal.FakeClimate) {
	analog := hal.NewFakeAnalog()
	door := &hal.FakePin{}
	air := hal.NewFakeClimate(22.5, 55)
	enclosure := hal.NewFakeClimate(30, 0)

	src := &Sources{
		Soil:           analog,
		SoilChannels:   channels,
		ReadsPerSample: 4,
		Calibration:    SoilCalibration{RawDry: 3200, RawWet: 1200},
		Door:           door,
		Air:            air,
		Enclosure:      enclosure,
	}
	return src, analog, door, air, enclosure
}

func TestCollect_ReportShape(t *testing.T) {
	src, analog, door, _, _ := newTestSources(4)
	for ch := 0; ch < 4; ch++ {
		analog.SetValue(ch, 2200) // 50%
	}
	door.Set(true)

	report := src.Collect(12345, [2]float64{3.5, 0}, [2]int{80, 20})

	assert.Equal(t, int64(12345), report.TimeStamp)
	assert.Equal(t, []int{50, 50, 50, 50}, report.SoilHumidity)
	assert.Equal(t, 50, report.AvgSoilHumidity)
	assert.Equal(t, [2]float64{3.5, 0}, report.FlowRate)
	assert.Equal(t, [2]int{80, 20}, report.TargetValvePos)
	assert.True(t, report.DoorOpen)
	assert.InDelta(t, 22.5, float32(report.AirTemperature), 0.001)
	assert.InDelta(t, 55, float32(report.AirHumidity), 0.001)
	assert.InDelta(t, 30, float32(report.EnclosureTemperature), 0.001)
}

func TestCollect_TrueMean(t *testing.T) {
	src, analog, _, _, _ := newTestSources(4)
	// 0%, 100%, 100%, 100%: an iterative pairwise average would report 88,
	// the true mean is 75.
	analog.SetValue(0, 3200)
	analog.SetValue(1, 1200)
	analog.SetValue(2, 1200)
	analog.SetValue(3, 1200)

	report := src.Collect(0, [2]float64{}, [2]int{})
	assert.Equal(t, []int{0, 100, 100, 100}, report.SoilHumidity)
	assert.Equal(t, 75, report.AvgSoilHumidity)
}

func TestCollect_SensorFailurePropagatesNaN(t *testing.T) {
	src, _, _, air, _ := newTestSources(1)
	air.Fail()

	report := src.Collect(0, [2]float64{}, [2]int{})
	assert.True(t, report.AirTemperature.IsNaN())
	assert.True(t, report.AirHumidity.IsNaN())
	assert.False(t, report.EnclosureTemperature.IsNaN())
}

func TestCollect_NoSoilChannels(t *testing.T) {
	src, _, _, _, _ := newTestSources(0)

	report := src.Collect(0, [2]float64{}, [2]int{})
	assert.Empty(t, report.SoilHumidity)
	assert.Equal(t, 0, report.AvgSoilHumidity)
}
