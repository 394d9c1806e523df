//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"machine"
	"time"

	"github.com/STcraft/irrigation-serv/pkg/controller"
	"github.com/STcraft/irrigation-serv/pkg/flow"
	"github.com/STcraft/irrigation-serv/pkg/protocol"
	"github.com/STcraft/irrigation-serv/pkg/sensor"
	"github.com/STcraft/irrigation-serv/pkg/valve"
)

var (
	uart = machine.UART0

	gate        isrGate
	accumulator *flow.Accumulator
)

// Pulse handlers run in interrupt context: check the gate, bump the
// counter, nothing else.
func flowPulse1(machine.Pin) {
	if gate.suspended {
		return
	}
	accumulator.Pulse(0)
}

func flowPulse2(machine.Pin) {
	if gate.suspended {
		return
	}
	accumulator.Pulse(1)
}

func main() {
	// Motor outputs
	for _, p := range []machine.Pin{
		PIN_V1_OPEN_MOTOR, PIN_V1_CLOSE_MOTOR,
		PIN_V2_OPEN_MOTOR, PIN_V2_CLOSE_MOTOR,
		PIN_MUX_S0, PIN_MUX_S1, PIN_MUX_S2,
	} {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}

	// Switch inputs, closed to ground
	for _, p := range []machine.Pin{
		PIN_V1_OPEN_LIMIT, PIN_V1_CLOSE_LIMIT,
		PIN_V2_OPEN_LIMIT, PIN_V2_CLOSE_LIMIT,
		PIN_DOOR,
	} {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	// Flow meters: open collector hall sensors, count falling edges
	PIN_FLOW1.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	PIN_FLOW2.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	accumulator = flow.New(&gate, FLOW_PULSES_PER_LITER_MIN)
	PIN_FLOW1.SetInterrupt(machine.PinFalling, flowPulse1)
	PIN_FLOW2.SetInterrupt(machine.PinFalling, flowPulse2)

	// Analog frontend
	machine.InitADC()
	adc := machine.ADC{Pin: PIN_MUX_ADC}
	adc.Configure(machine.ADCConfig{})
	mux := &muxADC{
		sel: [3]machine.Pin{PIN_MUX_S0, PIN_MUX_S1, PIN_MUX_S2},
		adc: adc,
	}

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	valves := valve.New(valve.Timing{
		OpenTravelMillis:  OPEN_TRAVEL_MS,
		CloseTravelMillis: CLOSE_TRAVEL_MS,
		OvershootMillis:   OVERSHOOT_MS,
	}, [valve.Channels]valve.ChannelPins{
		{
			OpenMotor:  gpioOut{PIN_V1_OPEN_MOTOR},
			CloseMotor: gpioOut{PIN_V1_CLOSE_MOTOR},
			OpenLimit:  gpioIn{PIN_V1_OPEN_LIMIT, true},
			CloseLimit: gpioIn{PIN_V1_CLOSE_LIMIT, true},
		},
		{
			OpenMotor:  gpioOut{PIN_V2_OPEN_MOTOR},
			CloseMotor: gpioOut{PIN_V2_CLOSE_MOTOR},
			OpenLimit:  gpioIn{PIN_V2_OPEN_LIMIT, true},
			CloseLimit: gpioIn{PIN_V2_CLOSE_LIMIT, true},
		},
	})

	sources := &sensor.Sources{
		Soil:           mux,
		SoilChannels:   SOIL_SENSORS,
		ReadsPerSample: SOIL_READS_PER_SAMPLE,
		Calibration: sensor.SoilCalibration{
			RawDry: SOIL_RAW_DRY,
			RawWet: SOIL_RAW_WET,
		},
		Door: gpioIn{PIN_DOOR, true},
		Air: airClimate{
			thermistor: thermistor{adc: mux, channel: MUX_AIR_TEMP},
			humChannel: MUX_AIR_HUM,
		},
		Enclosure: thermistor{adc: mux, channel: MUX_ENCL_TEMP},
	}

	codec := protocol.New(MAX_FRAME_BYTES, MIN_REPORT_MS, DEFAULT_REPORT_MS)
	loop := controller.New(codec, valves, accumulator, sources,
		&uartIO{uart: uart, lines: controller.NewLineBuffer(COMMAND_LINE_BYTES)},
		millisClock{start: time.Now()})

	for {
		loop.Step()
		time.Sleep(time.Millisecond)
	}
}
