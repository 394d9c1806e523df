package hal

import (
	"sync"

	"github.com/chewxy/math32"
)

// Interface compliance for the fakes.
var (
	_ OutputPin         = (*FakePin)(nil)
	_ InputPin          = (*FakePin)(nil)
	_ AnalogReader      = (*FakeAnalog)(nil)
	_ ClimateSensor     = (*FakeClimate)(nil)
	_ TemperatureSensor = (*FakeClimate)(nil)
	_ Clock             = (*FakeClock)(nil)
)

// FakePin is an in-memory digital pin usable as both input and output.
type FakePin struct {
	mu    sync.Mutex
	state bool
}

func (p *FakePin) Set(high bool) {
	p.mu.Lock()
	p.state = high
	p.mu.Unlock()
}

func (p *FakePin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// FakeAnalog is an in-memory multi-channel ADC. Unset channels read zero.
type FakeAnalog struct {
	mu     sync.Mutex
	values map[int]uint16
}

func NewFakeAnalog() *FakeAnalog {
	return &FakeAnalog{values: make(map[int]uint16)}
}

func (a *FakeAnalog) SetValue(channel int, raw uint16) {
	a.mu.Lock()
	a.values[channel] = raw
	a.mu.Unlock()
}

func (a *FakeAnalog) Read(channel int) uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.values[channel]
}

// FakeClimate returns fixed temperature/humidity readings.
// Fail() makes both read NaN, modeling a dead sensor on the bus.
type FakeClimate struct {
	mu          sync.Mutex
	temperature float32
	humidity    float32
	failed      bool
}

func NewFakeClimate(temperature, humidity float32) *FakeClimate {
	return &FakeClimate{temperature: temperature, humidity: humidity}
}

func (c *FakeClimate) SetReadings(temperature, humidity float32) {
	c.mu.Lock()
	c.temperature = temperature
	c.humidity = humidity
	c.mu.Unlock()
}

func (c *FakeClimate) Fail() {
	c.mu.Lock()
	c.failed = true
	c.mu.Unlock()
}

func (c *FakeClimate) Temperature() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return math32.NaN()
	}
	return c.temperature
}

func (c *FakeClimate) Humidity() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failed {
		return math32.NaN()
	}
	return c.humidity
}

// FakeClock is a manually advanced monotonic clock.
type FakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *FakeClock) Millis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ms milliseconds.
func (c *FakeClock) Advance(ms int64) {
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}
