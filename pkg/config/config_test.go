package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, int64(14000), cfg.Valves.OpenTravelMillis)
	assert.Equal(t, int64(12000), cfg.Valves.CloseTravelMillis)
	assert.Equal(t, int64(1500), cfg.Valves.OvershootMillis)
	assert.Equal(t, 7.5, cfg.Flow.PulsesPerLiterMin)
	assert.Equal(t, 4, cfg.Soil.Sensors)
	assert.Equal(t, uint16(3200), cfg.Soil.RawDry)
	assert.Equal(t, uint16(1200), cfg.Soil.RawWet)
	assert.Equal(t, int64(4000), cfg.Report.DefaultIntervalMillis)
	assert.Equal(t, int64(1000), cfg.Report.MinIntervalMillis)
	assert.Equal(t, 512, cfg.Report.MaxFrameBytes)
	assert.Equal(t, 15*time.Minute, cfg.Monitor.HistoryWindow)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB1"
  baud_rate: 9600

valves:
  open_travel_ms: 20000
  close_travel_ms: 18000
  overshoot_ms: 2000

flow:
  pulses_per_liter_min: 5.5

soil:
  sensors: 6
  raw_dry: 3000
  raw_wet: 1000
  reads_per_sample: 4

report:
  default_interval_ms: 2000
  min_interval_ms: 1000

monitor:
  history_window: 30m
  max_display_points: 400
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, int64(20000), cfg.Valves.OpenTravelMillis)
	assert.Equal(t, int64(18000), cfg.Valves.CloseTravelMillis)
	assert.Equal(t, 5.5, cfg.Flow.PulsesPerLiterMin)
	assert.Equal(t, 6, cfg.Soil.Sensors)
	assert.Equal(t, uint16(3000), cfg.Soil.RawDry)
	assert.Equal(t, uint16(1000), cfg.Soil.RawWet)
	assert.Equal(t, int64(2000), cfg.Report.DefaultIntervalMillis)
	assert.Equal(t, 30*time.Minute, cfg.Monitor.HistoryWindow)
	assert.Equal(t, 400, cfg.Monitor.MaxDisplayPoints)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, int64(14000), cfg.Valves.OpenTravelMillis) // default
	assert.Equal(t, 7.5, cfg.Flow.PulsesPerLiterMin)           // default
	assert.Equal(t, int64(4000), cfg.Report.DefaultIntervalMillis)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Valves.OpenTravelMillis = 16000

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, int64(16000), loaded.Valves.OpenTravelMillis)
}

func TestEnsureDefaults_ZeroedSections(t *testing.T) {
	cfg := &Config{}
	cfg.ensureDefaults()

	def := Default()
	assert.Equal(t, def.Valves, cfg.Valves)
	assert.Equal(t, def.Flow, cfg.Flow)
	assert.Equal(t, def.Soil, cfg.Soil)
	assert.Equal(t, def.Report, cfg.Report)
	assert.Equal(t, def.Monitor, cfg.Monitor)
}
