package link

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/STcraft/irrigation-serv/pkg/config"
	"github.com/STcraft/irrigation-serv/pkg/controller"
	"github.com/STcraft/irrigation-serv/pkg/flow"
	"github.com/STcraft/irrigation-serv/pkg/hal"
	"github.com/STcraft/irrigation-serv/pkg/protocol"
	"github.com/STcraft/irrigation-serv/pkg/sensor"
	"github.com/STcraft/irrigation-serv/pkg/valve"
)

// Mock simulates the controller for testing and development. Unlike a
// canned-response fake, it runs the real control loop over an in-memory
// line pipe against fake hardware, and simulates the plant around it: flow
// follows valve position, soil moisture dries out and re-wets with flow.
type Mock struct {
	cfg *config.Config

	pipe    *controller.LinePipe
	loop    *controller.Loop
	gate    *flow.MutexGate
	acc     *flow.Accumulator
	analog  *hal.FakeAnalog
	door    *hal.FakePin
	air     *hal.FakeClimate
	encl    *hal.FakeClimate
	codec   *protocol.Codec
	reports chan protocol.Report
	diags   chan protocol.Frame

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	// Settings snapshot taken at Connect. The settings dialog mutates the
	// shared config while the run goroutine is live; the simulation reads
	// only this copy. A reconnect picks up edits.
	sim    config.MockConfig
	soil   config.SoilConfig
	meterK float64

	// Simulation state
	moisture   float32 // current soil moisture (%)
	pulseCarry [2]float64
	startTime  time.Time
}

// NewMock creates a new simulated controller.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:     cfg,
		codec:   protocol.New(cfg.Report.MaxFrameBytes, cfg.Report.MinIntervalMillis, cfg.Report.DefaultIntervalMillis),
		reports: make(chan protocol.Report, cfg.Mock.ReportBuffer),
		diags:   make(chan protocol.Frame, cfg.Mock.ReportBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect builds the simulated controller and starts it.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.sim = m.cfg.Mock
	m.soil = m.cfg.Soil
	m.meterK = m.cfg.Flow.PulsesPerLiterMin

	m.pipe = controller.NewLinePipe(m.sim.ReportBuffer)
	m.gate = &flow.MutexGate{}
	m.acc = flow.New(m.gate, m.meterK)
	m.analog = hal.NewFakeAnalog()
	m.door = &hal.FakePin{}
	m.air = hal.NewFakeClimate(m.sim.AirTemperature, m.sim.AirHumidity)
	m.encl = hal.NewFakeClimate(m.sim.AirTemperature+m.sim.EnclosureOffset, 0)

	var pins [valve.Channels]valve.ChannelPins
	for i := range pins {
		pins[i] = valve.ChannelPins{
			OpenMotor:  &hal.FakePin{},
			CloseMotor: &hal.FakePin{},
			OpenLimit:  &hal.FakePin{},
			CloseLimit: &hal.FakePin{},
		}
	}
	valves := valve.New(valve.Timing{
		OpenTravelMillis:  m.cfg.Valves.OpenTravelMillis,
		CloseTravelMillis: m.cfg.Valves.CloseTravelMillis,
		OvershootMillis:   m.cfg.Valves.OvershootMillis,
	}, pins)

	sources := &sensor.Sources{
		Soil:           m.analog,
		SoilChannels:   m.soil.Sensors,
		ReadsPerSample: m.soil.ReadsPerSample,
		Calibration: sensor.SoilCalibration{
			RawDry: m.soil.RawDry,
			RawWet: m.soil.RawWet,
		},
		Door:      m.door,
		Air:       m.air,
		Enclosure: m.encl,
	}

	m.loop = controller.New(m.codec, valves, m.acc, sources, m.pipe, hal.NewWallClock())

	m.moisture = m.sim.SoilStart
	m.startTime = time.Now()
	m.applyMoisture()
	m.connected = true

	go m.run()
	go m.pump()

	return nil
}

// Close stops the simulated controller.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false

	return nil
}

// Reports returns the channel of decoded report frames.
func (m *Mock) Reports() <-chan protocol.Report {
	return m.reports
}

// Diagnostics returns the channel of error/debug frames.
func (m *Mock) Diagnostics() <-chan protocol.Frame {
	return m.diags
}

// Send encodes a command and delivers it to the simulated controller.
func (m *Mock) Send(cmd Command) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return fmt.Errorf("not connected")
	}

	data, err := m.codec.EncodeCommand(cmd.Mode, cmd.TargetValvePos0,
		cmd.TargetValvePos1, cmd.FlowLimit, cmd.ReportIntervalMillis)
	if err != nil {
		return err
	}
	m.pipe.Push(data)

	return nil
}

// IsConnected returns whether the simulated controller is running.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SetDoor opens or closes the simulated enclosure door.
func (m *Mock) SetDoor(open bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.door != nil {
		m.door.Set(open)
	}
}

// run drives the control loop and the plant simulation.
func (m *Mock) run() {
	ticker := time.NewTicker(m.sim.StepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.simulate(m.sim.StepInterval.Seconds())
			m.loop.Step()
		}
	}
}

// simulate advances the plant model by dt seconds: pulse generation
// proportional to valve position, soil moisture response, climate drift.
func (m *Mock) simulate(dt float64) {
	targets := [2]int{m.loop.Valves().Target(0), m.loop.Valves().Target(1)}

	// Flow meters: f [Hz] = K * Q [L/min], Q proportional to position.
	var totalLpm float64
	for ch, target := range targets {
		lpm := m.sim.FlowPerPercent * float64(target)
		totalLpm += lpm
		m.pulseCarry[ch] += m.meterK * lpm * dt
		for m.pulseCarry[ch] >= 1 {
			ch := ch
			m.gate.Deliver(func() { m.acc.Pulse(ch) })
			m.pulseCarry[ch]--
		}
	}

	// Soil: dries at a constant rate, wets with delivered flow.
	dMin := float32(dt / 60)
	m.moisture -= m.sim.SoilDryRate * dMin
	m.moisture += m.sim.SoilWetRate * float32(totalLpm) * dMin
	if m.moisture < 0 {
		m.moisture = 0
	}
	if m.moisture > 100 {
		m.moisture = 100
	}
	m.applyMoisture()

	// Slow ambient drift so trend displays have something to show.
	elapsed := float32(time.Since(m.startTime).Seconds())
	drift := math32.Sin(elapsed/120) * 0.8
	m.air.SetReadings(m.sim.AirTemperature+drift, m.sim.AirHumidity-2*drift)
	m.encl.SetReadings(m.sim.AirTemperature+m.sim.EnclosureOffset+drift, 0)
}

// applyMoisture converts the simulated moisture percent back to raw ADC
// counts, slightly offset per probe.
func (m *Mock) applyMoisture() {
	dry := float32(m.soil.RawDry)
	wet := float32(m.soil.RawWet)
	for ch := 0; ch < m.soil.Sensors; ch++ {
		pct := m.moisture + float32(ch) // probes never agree exactly
		if pct > 100 {
			pct = 100
		}
		raw := dry + (wet-dry)*pct/100
		m.analog.SetValue(ch, uint16(raw+0.5))
	}
}

// pump routes lines emitted by the loop to the report and diagnostic
// channels.
func (m *Mock) pump() {
	defer close(m.reports)
	defer close(m.diags)

	for {
		select {
		case <-m.ctx.Done():
			return
		case line := <-m.pipe.Lines():
			frame, err := protocol.DecodeFrame(line)
			if err != nil {
				log.Printf("Mock emitted unparseable line '%s': %v", line, err)
				continue
			}
			if frame.Report != nil {
				select {
				case m.reports <- *frame.Report:
				case <-m.ctx.Done():
					return
				default:
					log.Printf("Reports channel full, dropping report")
				}
				continue
			}
			select {
			case m.diags <- frame:
			case <-m.ctx.Done():
				return
			default:
				log.Printf("Diagnostics channel full, dropping frame")
			}
		}
	}
}
