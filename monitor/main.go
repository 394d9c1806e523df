package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/STcraft/irrigation-serv/pkg/config"
	"github.com/STcraft/irrigation-serv/pkg/history"
	"github.com/STcraft/irrigation-serv/pkg/link"
	"github.com/STcraft/irrigation-serv/pkg/protocol"
	"github.com/STcraft/irrigation-serv/pkg/trend"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use simulated controller instead of serial port")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Create Fyne application
	application := app.NewWithID("com.stcraft.irrigation-serv")

	// Create main window
	window := application.NewWindow("Irrigation Monitor")
	window.Resize(fyne.NewSize(1100, 700))
	window.CenterOnScreen()

	// Create application state
	state := &appState{
		cfg:     cfg,
		window:  window,
		useMock: *mockFlag,
	}

	// Create toolbar
	toolbar := createToolbar(state)

	// Create trend widget for the report history
	trendWidget := trend.New(cfg)
	state.trendWidget = trendWidget

	// Side panel with valve controls and live readings
	panel := createControlPanel(state)

	window.SetContent(container.NewBorder(
		toolbar,
		nil,
		nil,
		panel,
		trendWidget,
	))

	window.ShowAndRun()
}

// reportChain tracks the components of a connection for graceful shutdown.
type reportChain struct {
	device            link.Device
	recorder          *history.History
	recorderGoroutine chan struct{} // Closed when the recorder goroutine exits
	diagGoroutine     chan struct{} // Closed when the diagnostics goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	device      link.Device
	trendWidget *trend.Widget
	window      fyne.Window
	useMock     bool
	chain       *reportChain

	connectBtn *widget.Button
	doorBtn    *widget.Button
	doorOpen   bool

	valveSliders [protocol.FlowChannels]*widget.Slider
	valveLabels  [protocol.FlowChannels]*widget.Label
	modeSelect   *widget.Select
	applyBtn     *widget.Button
	readingsGrid *readings
	diagLabel    *widget.Label

	// The last targets the controller echoed back, so slider callbacks can
	// tell user drags apart from programmatic updates.
	echoedTargets [protocol.FlowChannels]int

	// Throttling for trend updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect and Settings,
// and a door toggle for the simulated controller.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	doorBtn := widget.NewButtonWithIcon("Door", theme.HomeIcon(), func() {
		handleDoorToggle(state)
	})
	doorBtn.Disable()
	state.doorBtn = doorBtn

	right := container.NewHBox()
	if state.useMock {
		right = container.NewHBox(doorBtn)
	}

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn),
		right,
		nil,
	)
}

// closeReportChain gracefully closes the connection and waits for the
// consuming goroutines to drain.
func closeReportChain(chain *reportChain) {
	if chain == nil {
		return
	}

	// Closing the device closes the report and diagnostics channels.
	if chain.device != nil {
		chain.device.Close()
	}

	if chain.recorderGoroutine != nil {
		<-chain.recorderGoroutine
	}
	if chain.diagGoroutine != nil {
		<-chain.diagGoroutine
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		closeReportChain(state.chain)
		state.chain = nil
		state.device = nil
		setControlsEnabled(state, false)
		if state.useMock {
			fmt.Println("Disconnected from simulated controller")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	var device link.Device
	if state.useMock {
		device = link.NewMock(state.cfg)
		fmt.Println("Using simulated controller")
	} else {
		device = link.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, link.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated controller: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	if state.useMock {
		fmt.Println("Connected to simulated controller")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	setControlsEnabled(state, true)

	// Fresh recorder per connection: controller timestamps restart with the
	// firmware, so stale history would only mislead.
	recorder := history.New(state.cfg.Monitor.HistoryWindow)

	// Throttle trend updates so a fast report cadence cannot overwhelm the
	// UI thread.
	const updateInterval = 100 * time.Millisecond
	recorder.OnUpdate(func(entries []history.Entry, totals [protocol.FlowChannels]float64) {
		state.updateMu.Lock()
		now := time.Now()
		tooSoon := now.Sub(state.lastUpdateTime) < updateInterval
		if !tooSoon {
			state.lastUpdateTime = now
		}
		state.updateMu.Unlock()
		if tooSoon {
			return
		}

		latest := entries[len(entries)-1]
		fyne.Do(func() {
			state.trendWidget.UpdateData(entries, totals)
			updateReadings(state, latest.Report)
		})
	})

	recorderDone := make(chan struct{})
	go func() {
		defer close(recorderDone)
		recorder.Consume(device.Reports())
	}()

	// Surface error/debug frames in the status line and the log.
	diagDone := make(chan struct{})
	go func() {
		defer close(diagDone)
		for frame := range device.Diagnostics() {
			text := frame.Debug
			if frame.Error != "" {
				text = frame.Error
				log.Printf("Controller error: %s", frame.Error)
			} else {
				log.Printf("Controller debug: %s", frame.Debug)
			}
			fyne.Do(func() {
				state.diagLabel.SetText(text)
			})
		}
	}()

	state.chain = &reportChain{
		device:            device,
		recorder:          recorder,
		recorderGoroutine: recorderDone,
		diagGoroutine:     diagDone,
	}
}

// handleDoorToggle flips the simulated enclosure door.
func handleDoorToggle(state *appState) {
	mock, ok := state.device.(*link.Mock)
	if !ok || !mock.IsConnected() {
		return
	}
	state.doorOpen = !state.doorOpen
	mock.SetDoor(state.doorOpen)
}
