// Package sensor assembles one report frame per reporting interval from the
// external sensor collaborators: soil moisture probes, climate sensors, the
// enclosure door switch and the flow rates sampled by the control loop.
package sensor

import (
	"github.com/STcraft/irrigation-serv/pkg/hal"
	"github.com/STcraft/irrigation-serv/pkg/protocol"
)

// SoilCalibration maps raw ADC counts to the 0-100 moisture scale with a
// two-point linear curve. Capacitive probes read lower counts when wet, so
// RawDry is usually the larger value; the math works either way around.
type SoilCalibration struct {
	RawDry uint16
	RawWet uint16
}

// Percent converts one raw reading to calibrated 0-100.
func (c SoilCalibration) Percent(raw uint16) int {
	span := int32(c.RawWet) - int32(c.RawDry)
	if span == 0 {
		return 0
	}
	percent := (int32(raw) - int32(c.RawDry)) * 100 / span
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return int(percent)
}

// Sources are the collaborators a snapshot reads from. Air may fail and
// return NaN; those readings propagate into the report unmodified.
type Sources struct {
	Soil           hal.AnalogReader
	SoilChannels   int
	ReadsPerSample int // ADC reads averaged per probe, noise suppression
	Calibration    SoilCalibration
	Door           hal.InputPin
	Air            hal.ClimateSensor
	Enclosure      hal.TemperatureSensor
}

// Collect takes one immutable snapshot. The flow rates and echoed valve
// targets are passed in by the control loop, which owns their sampling.
func (s *Sources) Collect(nowMillis int64, flowRate [2]float64, targetValvePos [2]int) protocol.Report {
	soil := make([]int, s.SoilChannels)
	sum := 0
	for ch := range soil {
		soil[ch] = s.Calibration.Percent(s.readAveraged(ch))
		sum += soil[ch]
	}

	// True arithmetic mean. The reference firmware used an iterative
	// two-value average biased toward later probes; that was a defect, not
	// a contract.
	avg := 0
	if len(soil) > 0 {
		avg = (sum + len(soil)/2) / len(soil)
	}

	return protocol.Report{
		TimeStamp:            nowMillis,
		SoilHumidity:         soil,
		FlowRate:             flowRate,
		TargetValvePos:       targetValvePos,
		AirHumidity:          protocol.Reading(s.Air.Humidity()),
		AirTemperature:       protocol.Reading(s.Air.Temperature()),
		EnclosureTemperature: protocol.Reading(s.Enclosure.Temperature()),
		DoorOpen:             s.Door.Get(),
		AvgSoilHumidity:      avg,
	}
}

// readAveraged reads one probe ReadsPerSample times and averages, the same
// way the MCU averages consecutive ADC conversions.
func (s *Sources) readAveraged(channel int) uint16 {
	n := s.ReadsPerSample
	if n <= 0 {
		n = 1
	}
	var sum uint32
	for i := 0; i < n; i++ {
		sum += uint32(s.Soil.Read(channel))
	}
	return uint16((float32(sum) / float32(n)) + 0.5) // round to nearest
}
