package main

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/STcraft/irrigation-serv/pkg/link"
	"github.com/STcraft/irrigation-serv/pkg/protocol"
)

// readings holds the live value labels updated from incoming reports.
type readings struct {
	soil      *widget.Label
	flow      [protocol.FlowChannels]*widget.Label
	airTemp   *widget.Label
	airHum    *widget.Label
	enclosure *widget.Label
	door      *widget.Label
}

// createControlPanel builds the right-hand side panel: valve sliders, mode
// and flow limit controls, and the live readings.
func createControlPanel(state *appState) fyne.CanvasObject {
	items := []fyne.CanvasObject{widget.NewLabelWithStyle("Valves",
		fyne.TextAlignLeading, fyne.TextStyle{Bold: true})}

	for ch := 0; ch < protocol.FlowChannels; ch++ {
		ch := ch
		label := widget.NewLabel(fmt.Sprintf("Valve %d: 0%%", ch+1))
		slider := widget.NewSlider(0, 100)
		slider.Step = 5
		slider.OnChangeEnded = func(value float64) {
			handleValveChange(state, ch, int(value))
		}
		slider.Disable()
		state.valveSliders[ch] = slider
		state.valveLabels[ch] = label
		items = append(items, label, slider)
	}

	items = append(items, widget.NewSeparator(), widget.NewLabelWithStyle("Mode",
		fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))

	flowLimitEntry := widget.NewEntry()
	flowLimitEntry.SetText("0")

	modeSelect := widget.NewSelect([]string{"Position only", "Flow limited"}, nil)
	modeSelect.SetSelected("Position only")
	modeSelect.OnChanged = func(string) {
		sendModeCommand(state, modeSelect, flowLimitEntry)
	}
	modeSelect.Disable()

	reportIntervalEntry := widget.NewEntry()
	reportIntervalEntry.SetText(strconv.FormatInt(state.cfg.Report.DefaultIntervalMillis, 10))

	applyBtn := widget.NewButton("Apply", func() {
		sendModeCommand(state, modeSelect, flowLimitEntry)
		if ms, err := strconv.ParseInt(reportIntervalEntry.Text, 10, 64); err == nil {
			if err := state.device.Send(link.Command{ReportIntervalMillis: &ms}); err != nil {
				dialog.ShowError(fmt.Errorf("failed to set report interval: %w", err), state.window)
			}
		}
	})
	applyBtn.Disable()

	state.modeSelect = modeSelect
	state.applyBtn = applyBtn

	form := widget.NewForm(
		widget.NewFormItem("Mode", modeSelect),
		widget.NewFormItem("Flow limit (L/min)", flowLimitEntry),
		widget.NewFormItem("Report interval (ms)", reportIntervalEntry),
	)
	items = append(items, form, applyBtn)

	items = append(items, widget.NewSeparator(), widget.NewLabelWithStyle("Readings",
		fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))

	r := &readings{
		soil:      widget.NewLabel("Soil: -"),
		airTemp:   widget.NewLabel("Air temp: -"),
		airHum:    widget.NewLabel("Air humidity: -"),
		enclosure: widget.NewLabel("Enclosure: -"),
		door:      widget.NewLabel("Door: -"),
	}
	for ch := 0; ch < protocol.FlowChannels; ch++ {
		r.flow[ch] = widget.NewLabel(fmt.Sprintf("Flow %d: -", ch+1))
	}
	state.readingsGrid = r
	items = append(items, r.soil, r.flow[0], r.flow[1], r.airTemp, r.airHum, r.enclosure, r.door)

	state.diagLabel = widget.NewLabel("")
	state.diagLabel.Wrapping = fyne.TextWrapWord
	items = append(items, widget.NewSeparator(), state.diagLabel)

	return container.NewVBox(items...)
}

// handleValveChange sends a new target position for one valve.
func handleValveChange(state *appState, ch int, percent int) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}
	if percent == state.echoedTargets[ch] {
		// Programmatic slider update echoing the controller, not a drag.
		return
	}

	cmd := link.Command{}
	if ch == 0 {
		cmd.TargetValvePos0 = &percent
	} else {
		cmd.TargetValvePos1 = &percent
	}

	if err := state.device.Send(cmd); err != nil {
		dialog.ShowError(fmt.Errorf("failed to set valve %d: %w", ch+1, err), state.window)
	}
}

// sendModeCommand sends the current mode and flow limit selection.
func sendModeCommand(state *appState, modeSelect *widget.Select, flowLimitEntry *widget.Entry) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	mode := int(protocol.ModePositionOnly)
	if modeSelect.Selected == "Flow limited" {
		mode = int(protocol.ModeFlowLimited)
	}
	cmd := link.Command{Mode: &mode}
	if limit, err := strconv.Atoi(flowLimitEntry.Text); err == nil {
		cmd.FlowLimit = &limit
	}

	if err := state.device.Send(cmd); err != nil {
		dialog.ShowError(fmt.Errorf("failed to set mode: %w", err), state.window)
	}
}

// updateReadings refreshes the live labels and echoes the controller's
// targets back into the sliders. Must run on the main thread.
func updateReadings(state *appState, report protocol.Report) {
	r := state.readingsGrid

	r.soil.SetText(fmt.Sprintf("Soil: %d%% %v", report.AvgSoilHumidity, report.SoilHumidity))
	for ch := 0; ch < protocol.FlowChannels; ch++ {
		r.flow[ch].SetText(fmt.Sprintf("Flow %d: %.2f L/min", ch+1, report.FlowRate[ch]))
	}
	r.airTemp.SetText("Air temp: " + formatReading(report.AirTemperature, "°C"))
	r.airHum.SetText("Air humidity: " + formatReading(report.AirHumidity, "%"))
	r.enclosure.SetText("Enclosure: " + formatReading(report.EnclosureTemperature, "°C"))
	if report.DoorOpen {
		r.door.SetText("Door: OPEN")
	} else {
		r.door.SetText("Door: closed")
	}

	for ch := 0; ch < protocol.FlowChannels; ch++ {
		target := report.TargetValvePos[ch]
		if state.echoedTargets[ch] != target {
			state.echoedTargets[ch] = target
			state.valveSliders[ch].SetValue(float64(target))
		}
		state.valveLabels[ch].SetText(fmt.Sprintf("Valve %d: %d%%", ch+1, target))
	}
}

// formatReading renders a sensor value, showing failed sensors distinctly.
func formatReading(v protocol.Reading, unit string) string {
	if v.IsNaN() {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%s", float32(v), unit)
}

// setControlsEnabled toggles everything that needs a live connection.
func setControlsEnabled(state *appState, enabled bool) {
	for ch := 0; ch < protocol.FlowChannels; ch++ {
		if enabled {
			state.valveSliders[ch].Enable()
		} else {
			state.valveSliders[ch].Disable()
			state.valveSliders[ch].SetValue(0)
			state.echoedTargets[ch] = 0
		}
	}
	if enabled {
		state.modeSelect.Enable()
		state.applyBtn.Enable()
	} else {
		state.modeSelect.Disable()
		state.applyBtn.Disable()
	}
	if state.useMock {
		if enabled {
			state.doorBtn.Enable()
		} else {
			state.doorBtn.Disable()
			state.doorOpen = false
		}
	}
}
