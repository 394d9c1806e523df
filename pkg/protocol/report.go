package protocol

import (
	"encoding/json"

	"github.com/chewxy/math32"
)

// Reading is a float sensor value that survives JSON, which has no NaN
// literal: NaN encodes as null and null decodes back to NaN. A failed
// sensor therefore shows up as null on the wire and callers see NaN again
// after decoding.
type Reading float32

func (r Reading) MarshalJSON() ([]byte, error) {
	if math32.IsNaN(float32(r)) {
		return []byte("null"), nil
	}
	return json.Marshal(float32(r))
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Reading(math32.NaN())
		return nil
	}
	var f float32
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Reading(f)
	return nil
}

// IsNaN reports whether the reading is the failed-sensor sentinel.
func (r Reading) IsNaN() bool {
	return math32.IsNaN(float32(r))
}

// FlowChannels is the number of flow meters and valves on the wire.
const FlowChannels = 2

// Report is one outbound report frame: an immutable snapshot of all sensor
// and valve state, taken once per reporting interval.
type Report struct {
	TimeStamp            int64                 `json:"timeStamp"`      // monotonic ms since start
	SoilHumidity         []int                 `json:"soilHumidity"`   // calibrated 0-100, one per probe
	FlowRate             [FlowChannels]float64 `json:"flowRate"`       // L/min
	TargetValvePos       [FlowChannels]int     `json:"targetValvePos"` // echoed commanded targets
	AirHumidity          Reading               `json:"airHumidity"`
	AirTemperature       Reading               `json:"airTemperature"`
	EnclosureTemperature Reading               `json:"enclosureTemperature"`
	DoorOpen             bool                  `json:"doorOpen"`
	AvgSoilHumidity      int                   `json:"avgSoilHumidity"`
}
