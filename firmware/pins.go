//go:build tinygo

package main

import "machine"

const (
	// Valve motor travel calibration. Opening works against the water
	// pressure, so it takes longer than closing.
	OPEN_TRAVEL_MS  = 14000
	CLOSE_TRAVEL_MS = 12000
	OVERSHOOT_MS    = 1500 // extra run time when seating at 0% or 100%

	// Flow meter constant K in "f [Hz] = K * Q [L/min]" (YF-S201).
	FLOW_PULSES_PER_LITER_MIN = 7.5

	// Soil moisture probes behind the analog multiplexer.
	SOIL_SENSORS          = 4
	SOIL_RAW_DRY          = 3200 // ADC count in air (0%)
	SOIL_RAW_WET          = 1200 // ADC count in water (100%)
	SOIL_READS_PER_SAMPLE = 8

	// NTC thermistors on the multiplexer: 10k B3950 against a 10k divider.
	THERM_R_SERIES = 10000.0
	THERM_R0       = 10000.0
	THERM_T0       = 298.15 // 25°C in Kelvin
	THERM_B        = 3950.0

	// Capacitive humidity element, two-point linear calibration.
	HUM_RAW_DRY = 3600 // ADC count at 0 %RH
	HUM_RAW_WET = 1400 // ADC count at 100 %RH

	// ADC: machine.ADC.Get returns 16-bit left-justified values; shift to
	// the 12-bit scale the calibration constants use.
	ADC_SHIFT = 4
	ADC_MAX   = 4095

	// Report codec sizing. A 4-probe report is ~230 bytes; 512 leaves room
	// for more probes without touching the host.
	MAX_FRAME_BYTES    = 512
	DEFAULT_REPORT_MS  = 4000
	MIN_REPORT_MS      = 1000
	COMMAND_LINE_BYTES = 192

	// Serial configuration. A report line every second at 115200 baud
	// (~11.5 kB/s) uses a few percent of the link.
	UART_BAUD_RATE = 115200
)

// Pin assignment (Raspberry Pi Pico).
var (
	// Valve 1 H-bridge and limit switches
	PIN_V1_OPEN_MOTOR  = machine.GP2
	PIN_V1_CLOSE_MOTOR = machine.GP3
	PIN_V1_OPEN_LIMIT  = machine.GP4
	PIN_V1_CLOSE_LIMIT = machine.GP5

	// Valve 2 H-bridge and limit switches
	PIN_V2_OPEN_MOTOR  = machine.GP6
	PIN_V2_CLOSE_MOTOR = machine.GP7
	PIN_V2_OPEN_LIMIT  = machine.GP8
	PIN_V2_CLOSE_LIMIT = machine.GP9

	// Flow meter pulse inputs (hall sensors, open collector)
	PIN_FLOW1 = machine.GP10
	PIN_FLOW2 = machine.GP11

	// Enclosure door reed switch, closed to ground
	PIN_DOOR = machine.GP12

	// CD4051 analog multiplexer select lines and common output
	PIN_MUX_S0  = machine.GP13
	PIN_MUX_S1  = machine.GP14
	PIN_MUX_S2  = machine.GP15
	PIN_MUX_ADC = machine.ADC0
)

// Multiplexer channel map. Soil probes first so probe index equals mux
// channel.
const (
	MUX_SOIL_FIRST = 0 // channels 0..3
	MUX_AIR_TEMP   = 4
	MUX_AIR_HUM    = 5
	MUX_ENCL_TEMP  = 6
)
