package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Valves  ValveConfig   `yaml:"valves"`
	Flow    FlowConfig    `yaml:"flow"`
	Soil    SoilConfig    `yaml:"soil"`
	Report  ReportConfig  `yaml:"report"`
	Monitor MonitorConfig `yaml:"monitor"`
	Mock    MockConfig    `yaml:"mock"`
}

// SerialConfig contains serial port configuration for the host link.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ValveConfig contains motor travel calibration shared by both channels.
// Open and close travel differ because the motor works against the water
// pressure in one direction only.
type ValveConfig struct {
	OpenTravelMillis  int64 `yaml:"open_travel_ms"`
	CloseTravelMillis int64 `yaml:"close_travel_ms"`
	OvershootMillis   int64 `yaml:"overshoot_ms"` // extra run time when seating at 0% or 100%
}

// FlowConfig contains flow meter calibration.
type FlowConfig struct {
	// PulsesPerLiterMin is the meter constant K in "f [Hz] = K * Q [L/min]".
	PulsesPerLiterMin float64 `yaml:"pulses_per_liter_min"`
}

// SoilConfig contains soil moisture sensor calibration.
type SoilConfig struct {
	Sensors        int    `yaml:"sensors"`          // number of moisture probes
	RawDry         uint16 `yaml:"raw_dry"`          // ADC count in air (0%)
	RawWet         uint16 `yaml:"raw_wet"`          // ADC count in water (100%)
	ReadsPerSample int    `yaml:"reads_per_sample"` // ADC reads averaged per probe per snapshot
}

// ReportConfig contains report cadence bounds and codec sizing.
type ReportConfig struct {
	DefaultIntervalMillis int64 `yaml:"default_interval_ms"`
	MinIntervalMillis     int64 `yaml:"min_interval_ms"`
	MaxFrameBytes         int   `yaml:"max_frame_bytes"`
}

// MonitorConfig contains host GUI settings.
type MonitorConfig struct {
	HistoryWindow    time.Duration `yaml:"history_window"`     // trailing window shown on the trend chart
	MaxDisplayPoints int           `yaml:"max_display_points"` // downsampling cap for rendering
}

// MockConfig contains simulated-controller settings for the mock link.
type MockConfig struct {
	SoilStart       float32       `yaml:"soil_start"`       // initial moisture (%)
	SoilDryRate     float32       `yaml:"soil_dry_rate"`    // moisture lost per minute when valves closed (%)
	SoilWetRate     float32       `yaml:"soil_wet_rate"`    // moisture gained per minute at full flow (%)
	FlowPerPercent  float64       `yaml:"flow_per_percent"` // L/min contributed per valve position percent
	AirTemperature  float32       `yaml:"air_temperature"`  // simulated ambient (°C)
	AirHumidity     float32       `yaml:"air_humidity"`     // simulated ambient (%RH)
	EnclosureOffset float32       `yaml:"enclosure_offset"` // enclosure runs warmer than ambient (°C)
	StepInterval    time.Duration `yaml:"step_interval"`    // simulation/loop tick
	ReportBuffer    int           `yaml:"report_buffer"`    // report channel depth
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Valves: ValveConfig{
			OpenTravelMillis:  14000,
			CloseTravelMillis: 12000,
			OvershootMillis:   1500,
		},
		Flow: FlowConfig{
			PulsesPerLiterMin: 7.5, // YF-S201 hall sensor
		},
		Soil: SoilConfig{
			Sensors:        4,
			RawDry:         3200,
			RawWet:         1200,
			ReadsPerSample: 8,
		},
		Report: ReportConfig{
			DefaultIntervalMillis: 4000,
			MinIntervalMillis:     1000,
			MaxFrameBytes:         512, // fits a 16-probe report with margin
		},
		Monitor: MonitorConfig{
			HistoryWindow:    15 * time.Minute,
			MaxDisplayPoints: 600,
		},
		Mock: MockConfig{
			SoilStart:       55,
			SoilDryRate:     2.0,
			SoilWetRate:     8.0,
			FlowPerPercent:  0.12,
			AirTemperature:  21.5,
			AirHumidity:     48,
			EnclosureOffset: 6,
			StepInterval:    20 * time.Millisecond,
			ReportBuffer:    100,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Valves.OpenTravelMillis <= 0 {
		c.Valves.OpenTravelMillis = def.Valves.OpenTravelMillis
	}
	if c.Valves.CloseTravelMillis <= 0 {
		c.Valves.CloseTravelMillis = def.Valves.CloseTravelMillis
	}
	if c.Valves.OvershootMillis <= 0 {
		c.Valves.OvershootMillis = def.Valves.OvershootMillis
	}

	if c.Flow.PulsesPerLiterMin <= 0 {
		c.Flow.PulsesPerLiterMin = def.Flow.PulsesPerLiterMin
	}

	if c.Soil.Sensors <= 0 {
		c.Soil.Sensors = def.Soil.Sensors
	}
	if c.Soil.RawDry == 0 && c.Soil.RawWet == 0 {
		c.Soil.RawDry = def.Soil.RawDry
		c.Soil.RawWet = def.Soil.RawWet
	}
	if c.Soil.ReadsPerSample <= 0 {
		c.Soil.ReadsPerSample = def.Soil.ReadsPerSample
	}

	if c.Report.DefaultIntervalMillis <= 0 {
		c.Report.DefaultIntervalMillis = def.Report.DefaultIntervalMillis
	}
	if c.Report.MinIntervalMillis <= 0 {
		c.Report.MinIntervalMillis = def.Report.MinIntervalMillis
	}
	if c.Report.MaxFrameBytes <= 0 {
		c.Report.MaxFrameBytes = def.Report.MaxFrameBytes
	}

	if c.Monitor.HistoryWindow <= 0 {
		c.Monitor.HistoryWindow = def.Monitor.HistoryWindow
	}
	if c.Monitor.MaxDisplayPoints <= 0 {
		c.Monitor.MaxDisplayPoints = def.Monitor.MaxDisplayPoints
	}

	if c.Mock.StepInterval == 0 {
		c.Mock.StepInterval = def.Mock.StepInterval
	}
	if c.Mock.ReportBuffer == 0 {
		c.Mock.ReportBuffer = def.Mock.ReportBuffer
	}
	if c.Mock.SoilStart == 0 {
		c.Mock.SoilStart = def.Mock.SoilStart
	}
	if c.Mock.FlowPerPercent == 0 {
		c.Mock.FlowPerPercent = def.Mock.FlowPerPercent
	}
}
