//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/chewxy/math32"

	"github.com/STcraft/irrigation-serv/pkg/controller"
)

// gpioOut drives one digital output pin.
type gpioOut struct {
	pin machine.Pin
}

func (p gpioOut) Set(high bool) {
	if high {
		p.pin.High()
	} else {
		p.pin.Low()
	}
}

// gpioIn reads one digital input. Limit and door switches close to ground
// with pull-ups, so they read inverted.
type gpioIn struct {
	pin    machine.Pin
	invert bool
}

func (p gpioIn) Get() bool {
	v := p.pin.Get()
	if p.invert {
		return !v
	}
	return v
}

// muxADC reads the CD4051 multiplexer: set the select lines, let the
// channel settle, convert. Values are scaled to the 12-bit range the
// calibration constants use.
type muxADC struct {
	sel [3]machine.Pin
	adc machine.ADC
}

func (m *muxADC) Read(channel int) uint16 {
	for i, p := range m.sel {
		p.Set(channel&(1<<i) != 0)
	}
	time.Sleep(50 * time.Microsecond) // mux settling
	return m.adc.Get() >> ADC_SHIFT
}

// thermistor converts one mux channel to °C with the B-parameter equation.
// A reading pinned to either rail means the sensor is open or shorted; that
// reports NaN, which the protocol carries as null.
type thermistor struct {
	adc     *muxADC
	channel int
}

func (t thermistor) Temperature() float32 {
	raw := t.adc.Read(t.channel)
	if raw == 0 || raw >= ADC_MAX {
		return math32.NaN()
	}
	r := THERM_R_SERIES * float32(raw) / float32(ADC_MAX-raw)
	invT := 1/float32(THERM_T0) + math32.Log(r/THERM_R0)/THERM_B
	return 1/invT - 273.15
}

// airClimate pairs the air thermistor with the humidity element.
type airClimate struct {
	thermistor
	humChannel int
}

func (c airClimate) Humidity() float32 {
	raw := c.adc.Read(c.humChannel)
	if raw == 0 || raw >= ADC_MAX {
		return math32.NaN()
	}
	pct := float32(int32(HUM_RAW_DRY)-int32(raw)) * 100 / float32(HUM_RAW_DRY-HUM_RAW_WET)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// millisClock reports monotonic milliseconds since boot.
type millisClock struct {
	start time.Time
}

func (c millisClock) Millis() int64 {
	return time.Since(c.start).Milliseconds()
}

// isrGate masks pulse delivery while the accumulator copies its counters.
// Single core, flag checked in the interrupt handler: a pulse arriving in
// the few microseconds the gate is closed is dropped, not corrupted.
type isrGate struct {
	suspended bool
}

func (g *isrGate) Suspend() { g.suspended = true }
func (g *isrGate) Resume()  { g.suspended = false }

// uartIO adapts the UART to the control loop's non-blocking line transport.
type uartIO struct {
	uart  *machine.UART
	lines *controller.LineBuffer
}

// ReadLine drains buffered bytes and returns a line when a terminator
// arrives. The returned slice aliases the framer's buffer and is only valid
// until the next call. Overlong lines are dropped whole.
func (u *uartIO) ReadLine() ([]byte, bool) {
	for u.uart.Buffered() > 0 {
		b, err := u.uart.ReadByte()
		if err != nil {
			break
		}
		if line, ok := u.lines.Feed(b); ok {
			return line, true
		}
	}
	return nil, false
}

func (u *uartIO) WriteLine(line []byte) error {
	if _, err := u.uart.Write(line); err != nil {
		return err
	}
	_, err := u.uart.Write([]byte{'\n'})
	return err
}
