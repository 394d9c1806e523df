package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/STcraft/irrigation-serv/pkg/link"
)

// showSettingsDialog displays a settings dialog with tabs for all
// configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createValvesTab(state),
		createSensorsTab(state),
		createReportTab(state),
		createMonitorTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := link.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
		currentDisplay = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}

				portChanged := state.cfg.Serial.Port != selectedPort
				wasConnected := state.device != nil && state.device.IsConnected()

				state.cfg.Serial.Port = selectedPort
				if baud, err := strconv.Atoi(baudEntry.Text); err == nil {
					state.cfg.Serial.BaudRate = baud
				}
				if err := state.cfg.Save("config.yaml"); err != nil {
					dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
					return
				}

				// Restart the connection when the port changed under it.
				if portChanged && wasConnected {
					closeReportChain(state.chain)
					state.chain = nil
					state.device = nil
					handleConnect(state)
				}
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createValvesTab creates the valve travel calibration tab.
func createValvesTab(state *appState) *container.TabItem {
	openEntry := widget.NewEntry()
	openEntry.SetText(strconv.FormatInt(state.cfg.Valves.OpenTravelMillis, 10))

	closeEntry := widget.NewEntry()
	closeEntry.SetText(strconv.FormatInt(state.cfg.Valves.CloseTravelMillis, 10))

	overshootEntry := widget.NewEntry()
	overshootEntry.SetText(strconv.FormatInt(state.cfg.Valves.OvershootMillis, 10))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Open Travel (ms)", Widget: openEntry},
			{Text: "Close Travel (ms)", Widget: closeEntry},
			{Text: "Overshoot (ms)", Widget: overshootEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseInt(openEntry.Text, 10, 64); err == nil {
				state.cfg.Valves.OpenTravelMillis = v
			}
			if v, err := strconv.ParseInt(closeEntry.Text, 10, 64); err == nil {
				state.cfg.Valves.CloseTravelMillis = v
			}
			if v, err := strconv.ParseInt(overshootEntry.Text, 10, 64); err == nil {
				state.cfg.Valves.OvershootMillis = v
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Valves", form)
}

// createSensorsTab creates the flow and soil calibration tab.
func createSensorsTab(state *appState) *container.TabItem {
	kEntry := widget.NewEntry()
	kEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Flow.PulsesPerLiterMin))

	sensorsEntry := widget.NewEntry()
	sensorsEntry.SetText(strconv.Itoa(state.cfg.Soil.Sensors))

	dryEntry := widget.NewEntry()
	dryEntry.SetText(strconv.Itoa(int(state.cfg.Soil.RawDry)))

	wetEntry := widget.NewEntry()
	wetEntry.SetText(strconv.Itoa(int(state.cfg.Soil.RawWet)))

	readsEntry := widget.NewEntry()
	readsEntry.SetText(strconv.Itoa(state.cfg.Soil.ReadsPerSample))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Flow K (pulses per L/min)", Widget: kEntry},
			{Text: "Soil Sensors", Widget: sensorsEntry},
			{Text: "Raw Dry (ADC)", Widget: dryEntry},
			{Text: "Raw Wet (ADC)", Widget: wetEntry},
			{Text: "Reads per Sample", Widget: readsEntry},
		},
		OnSubmit: func() {
			if k, err := strconv.ParseFloat(kEntry.Text, 64); err == nil {
				state.cfg.Flow.PulsesPerLiterMin = k
			}
			if n, err := strconv.Atoi(sensorsEntry.Text); err == nil {
				state.cfg.Soil.Sensors = n
			}
			if d, err := strconv.Atoi(dryEntry.Text); err == nil {
				state.cfg.Soil.RawDry = uint16(d)
			}
			if w, err := strconv.Atoi(wetEntry.Text); err == nil {
				state.cfg.Soil.RawWet = uint16(w)
			}
			if n, err := strconv.Atoi(readsEntry.Text); err == nil {
				state.cfg.Soil.ReadsPerSample = n
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Sensors", form)
}

// createReportTab creates the report cadence tab.
func createReportTab(state *appState) *container.TabItem {
	defaultEntry := widget.NewEntry()
	defaultEntry.SetText(strconv.FormatInt(state.cfg.Report.DefaultIntervalMillis, 10))

	minEntry := widget.NewEntry()
	minEntry.SetText(strconv.FormatInt(state.cfg.Report.MinIntervalMillis, 10))

	maxFrameEntry := widget.NewEntry()
	maxFrameEntry.SetText(strconv.Itoa(state.cfg.Report.MaxFrameBytes))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Default Interval (ms)", Widget: defaultEntry},
			{Text: "Min Interval (ms)", Widget: minEntry},
			{Text: "Max Frame (bytes)", Widget: maxFrameEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseInt(defaultEntry.Text, 10, 64); err == nil {
				state.cfg.Report.DefaultIntervalMillis = v
			}
			if v, err := strconv.ParseInt(minEntry.Text, 10, 64); err == nil {
				state.cfg.Report.MinIntervalMillis = v
			}
			if v, err := strconv.Atoi(maxFrameEntry.Text); err == nil {
				state.cfg.Report.MaxFrameBytes = v
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Report", form)
}

// createMonitorTab creates the trend display tab.
func createMonitorTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(state.cfg.Monitor.HistoryWindow.String())

	pointsEntry := widget.NewEntry()
	pointsEntry.SetText(strconv.Itoa(state.cfg.Monitor.MaxDisplayPoints))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "History Window", Widget: windowEntry},
			{Text: "Max Display Points", Widget: pointsEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(windowEntry.Text); err == nil {
				state.cfg.Monitor.HistoryWindow = d
			}
			if n, err := strconv.Atoi(pointsEntry.Text); err == nil {
				state.cfg.Monitor.MaxDisplayPoints = n
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Monitor", form)
}

// createMockTab creates the simulated controller tab.
func createMockTab(state *appState) *container.TabItem {
	soilStartEntry := widget.NewEntry()
	soilStartEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Mock.SoilStart))

	dryRateEntry := widget.NewEntry()
	dryRateEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.SoilDryRate))

	wetRateEntry := widget.NewEntry()
	wetRateEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.SoilWetRate))

	flowPerPercentEntry := widget.NewEntry()
	flowPerPercentEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.FlowPerPercent))

	airTempEntry := widget.NewEntry()
	airTempEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.AirTemperature))

	stepIntervalEntry := widget.NewEntry()
	stepIntervalEntry.SetText(state.cfg.Mock.StepInterval.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Soil Start (%)", Widget: soilStartEntry},
			{Text: "Dry Rate (%/min)", Widget: dryRateEntry},
			{Text: "Wet Rate (%/min at 1 L/min)", Widget: wetRateEntry},
			{Text: "Flow per Percent (L/min)", Widget: flowPerPercentEntry},
			{Text: "Air Temperature (°C)", Widget: airTempEntry},
			{Text: "Step Interval", Widget: stepIntervalEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(soilStartEntry.Text, 32); err == nil {
				state.cfg.Mock.SoilStart = float32(v)
			}
			if v, err := strconv.ParseFloat(dryRateEntry.Text, 32); err == nil {
				state.cfg.Mock.SoilDryRate = float32(v)
			}
			if v, err := strconv.ParseFloat(wetRateEntry.Text, 32); err == nil {
				state.cfg.Mock.SoilWetRate = float32(v)
			}
			if v, err := strconv.ParseFloat(flowPerPercentEntry.Text, 64); err == nil {
				state.cfg.Mock.FlowPerPercent = v
			}
			if v, err := strconv.ParseFloat(airTempEntry.Text, 32); err == nil {
				state.cfg.Mock.AirTemperature = float32(v)
			}
			if d, err := time.ParseDuration(stepIntervalEntry.Text); err == nil {
				state.cfg.Mock.StepInterval = d
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
