package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *Codec {
	return New(0, 0, 0)
}

func TestDecodeInto_SparseMerge(t *testing.T) {
	codec := newTestCodec()
	cfg := ControlConfig{
		Mode:                 ModeFlowLimited,
		TargetValvePos:       [2]int{70, 30},
		FlowLimit:            25,
		ReportIntervalMillis: 2000,
	}

	err := codec.DecodeInto([]byte(`{"targetValvePos0": 50}`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.TargetValvePos[0])
	// Everything else keeps its prior value.
	assert.Equal(t, ModeFlowLimited, cfg.Mode)
	assert.Equal(t, 30, cfg.TargetValvePos[1])
	assert.Equal(t, 25, cfg.FlowLimit)
	assert.Equal(t, int64(2000), cfg.ReportIntervalMillis)
}

func TestDecodeInto_AllFields(t *testing.T) {
	codec := newTestCodec()
	cfg := DefaultControlConfig()

	line := `{"mode":1,"targetValvePos0":80,"targetValvePos1":20,"flowLimit":12,"reportInterval":10000}`
	require.NoError(t, codec.DecodeInto([]byte(line), &cfg))

	assert.Equal(t, ModeFlowLimited, cfg.Mode)
	assert.Equal(t, [2]int{80, 20}, cfg.TargetValvePos)
	assert.Equal(t, 12, cfg.FlowLimit)
	assert.Equal(t, int64(10000), cfg.ReportIntervalMillis)
}

func TestDecodeInto_ReportIntervalBelowMinimum(t *testing.T) {
	tests := []struct {
		name     string
		interval int64
		want     int64
	}{
		{"below minimum", 500, DefaultReportIntervalMillis},
		{"zero", 0, DefaultReportIntervalMillis},
		{"negative", -100, DefaultReportIntervalMillis},
		{"exactly minimum", 1000, 1000},
		{"above minimum", 5000, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := newTestCodec()
			cfg := DefaultControlConfig()

			line := []byte(`{"reportInterval": ` + jsonInt(tt.interval) + `}`)
			require.NoError(t, codec.DecodeInto(line, &cfg))
			assert.Equal(t, tt.want, cfg.ReportIntervalMillis)
		})
	}
}

func jsonInt(v int64) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func TestDecodeInto_InvalidJSON(t *testing.T) {
	codec := newTestCodec()
	cfg := ControlConfig{
		Mode:                 ModeFlowLimited,
		TargetValvePos:       [2]int{70, 30},
		FlowLimit:            25,
		ReportIntervalMillis: 2000,
	}
	before := cfg

	err := codec.DecodeInto([]byte(`{"mode": 1,`), &cfg)
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr), "error should be a *ParseError")
	assert.NotEmpty(t, parseErr.Error())
	assert.Equal(t, before, cfg, "config must be untouched on parse failure")
}

func TestDecodeInto_MalformedFieldKeepsPriorValue(t *testing.T) {
	codec := newTestCodec()
	cfg := DefaultControlConfig()
	cfg.TargetValvePos[0] = 40

	// Structurally valid JSON, but targetValvePos0 has the wrong type.
	err := codec.DecodeInto([]byte(`{"targetValvePos0":"wide open","flowLimit":9}`), &cfg)
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.TargetValvePos[0])
	assert.Equal(t, 9, cfg.FlowLimit)
}

func TestDecodeInto_UnknownFieldsIgnored(t *testing.T) {
	codec := newTestCodec()
	cfg := DefaultControlConfig()

	err := codec.DecodeInto([]byte(`{"unknown": 42, "mode": 1}`), &cfg)
	require.NoError(t, err)
	assert.Equal(t, ModeFlowLimited, cfg.Mode)
}

func TestEncodeReport_RoundTrip(t *testing.T) {
	codec := New(DefaultMaxFrameBytes, 0, 0)

	soil := make([]int, 16)
	for i := range soil {
		soil[i] = 100 - i
	}
	report := Report{
		TimeStamp:            123456,
		SoilHumidity:         soil,
		FlowRate:             [2]float64{12.5, 0.25},
		TargetValvePos:       [2]int{100, 0},
		AirHumidity:          61.5,
		AirTemperature:       23.25,
		EnclosureTemperature: 31.0,
		DoorOpen:             true,
		AvgSoilHumidity:      92,
	}

	data, err := codec.EncodeReport(report)
	require.NoError(t, err)

	// Exactly the nine documented fields.
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Len(t, fields, 9)
	for _, key := range []string{
		"timeStamp", "soilHumidity", "flowRate", "targetValvePos",
		"airHumidity", "airTemperature", "enclosureTemperature",
		"doorOpen", "avgSoilHumidity",
	} {
		assert.Contains(t, fields, key)
	}

	decoded, err := DecodeReport(data)
	require.NoError(t, err)
	assert.Equal(t, report.TimeStamp, decoded.TimeStamp)
	assert.Len(t, decoded.SoilHumidity, 16)
	assert.Equal(t, report.SoilHumidity, decoded.SoilHumidity)
	assert.Equal(t, report.FlowRate, decoded.FlowRate)
	assert.Equal(t, report.TargetValvePos, decoded.TargetValvePos)
	assert.True(t, decoded.DoorOpen)
	assert.Equal(t, report.AvgSoilHumidity, decoded.AvgSoilHumidity)
}

func TestEncodeReport_NaNBecomesNull(t *testing.T) {
	codec := newTestCodec()

	report := Report{
		SoilHumidity:   []int{50},
		AirHumidity:    Reading(math32.NaN()),
		AirTemperature: 20,
	}

	data, err := codec.EncodeReport(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"airHumidity":null`)

	decoded, err := DecodeReport(data)
	require.NoError(t, err)
	assert.True(t, decoded.AirHumidity.IsNaN())
	assert.False(t, decoded.AirTemperature.IsNaN())
}

func TestEncodeReport_WorstCaseFitsDefaultBound(t *testing.T) {
	codec := New(DefaultMaxFrameBytes, 0, 0)

	soil := make([]int, MaxSoilSensors)
	for i := range soil {
		soil[i] = 100
	}
	report := Report{
		TimeStamp:            1<<40 - 1,
		SoilHumidity:         soil,
		FlowRate:             [2]float64{123.456789, 987.654321},
		TargetValvePos:       [2]int{100, 100},
		AirHumidity:          100,
		AirTemperature:       -40.5,
		EnclosureTemperature: 125.75,
		DoorOpen:             true,
		AvgSoilHumidity:      100,
	}

	_, err := codec.EncodeReport(report)
	assert.NoError(t, err)
}

func TestEncodeReport_FrameTooLarge(t *testing.T) {
	codec := New(32, 0, 0)

	report := Report{SoilHumidity: []int{100, 100, 100, 100, 100, 100}}
	_, err := codec.EncodeReport(report)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestDiagnosticFrames(t *testing.T) {
	codec := newTestCodec()

	errLine := codec.EncodeError(`bad "frame"`)
	frame, err := DecodeFrame(errLine)
	require.NoError(t, err)
	assert.Nil(t, frame.Report)
	assert.Equal(t, `bad "frame"`, frame.Error)

	dbgLine := codec.EncodeDebug("flow limit exceeded")
	frame, err = DecodeFrame(dbgLine)
	require.NoError(t, err)
	assert.Nil(t, frame.Report)
	assert.Equal(t, "flow limit exceeded", frame.Debug)
}

func TestDecodeFrame_Report(t *testing.T) {
	codec := newTestCodec()
	data, err := codec.EncodeReport(Report{
		TimeStamp:    99,
		SoilHumidity: []int{1, 2, 3},
	})
	require.NoError(t, err)

	frame, err := DecodeFrame(data)
	require.NoError(t, err)
	require.NotNil(t, frame.Report)
	assert.Equal(t, int64(99), frame.Report.TimeStamp)
	assert.Empty(t, frame.Error)
	assert.Empty(t, frame.Debug)
}

func TestDecodeFrame_Garbage(t *testing.T) {
	_, err := DecodeFrame([]byte("not json at all"))
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.True(t, strings.Contains(parseErr.Error(), "malformed frame"))
	assert.NotNil(t, parseErr.Unwrap())
}

func TestEncodeCommand_OmitsNilFields(t *testing.T) {
	codec := newTestCodec()

	pos := 50
	data, err := codec.EncodeCommand(nil, &pos, nil, nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"targetValvePos0":50}`, string(data))
}
