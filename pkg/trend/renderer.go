package trend

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/STcraft/irrigation-serv/pkg/history"
	"github.com/STcraft/irrigation-serv/pkg/protocol"
)

var (
	colorGrid  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	colorLabel = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorSoil  = color.RGBA{R: 80, G: 200, B: 120, A: 255}  // green
	colorFlow0 = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // orange
	colorFlow1 = color.RGBA{R: 100, G: 200, B: 255, A: 255} // light blue
	colorDoor  = color.RGBA{R: 200, G: 80, B: 80, A: 255}   // red
)

// trendRenderer renders the trend widget.
type trendRenderer struct {
	trend *Widget

	bg *canvas.Rectangle

	objects []fyne.CanvasObject

	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *trendRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 250)
}

// Layout arranges the widget components.
func (r *trendRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		r.trend.BaseWidget.Refresh()
	}
}

// Refresh redraws the chart from the current snapshot.
func (r *trendRenderer) Refresh() {
	r.trend.mu.RLock()
	entries := r.trend.display
	totals := r.trend.totals
	flowMax := r.trend.flowMax
	xMin := r.trend.xMin
	xMax := r.trend.xMax
	r.trend.mu.RUnlock()

	size := r.trend.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.bg}

	marginLeft := float32(45.0)
	marginRight := float32(55.0)
	marginTop := float32(20.0)
	marginBottom := float32(35.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	r.drawGrid(plotX, plotY, plotWidth, plotHeight, flowMax, xMin, xMax)

	if len(entries) > 1 {
		r.drawSoilTrace(plotX, plotY, plotWidth, plotHeight, entries, xMin, xMax)
		for ch := 0; ch < protocol.FlowChannels; ch++ {
			r.drawFlowTrace(plotX, plotY, plotWidth, plotHeight, entries, ch, flowMax, xMin, xMax)
		}
	}
	r.drawDoorMarkers(plotX, plotY, plotWidth, plotHeight, entries, xMin, xMax)
	r.drawTotals(plotX, plotY, totals)
}

// drawGrid draws grid lines, the soil axis on the left and the flow axis on
// the right.
func (r *trendRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, flowMax float64, xMin, xMax time.Time) {
	numHLines := 5
	for i := 0; i <= numHLines; i++ {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(colorGrid)
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		// Left axis: soil moisture percent, fixed 0-100.
		soil := 100 - i*100/numHLines
		left := canvas.NewText(fmt.Sprintf("%d%%", soil), colorLabel)
		left.TextSize = 10
		left.Alignment = fyne.TextAlignTrailing
		left.Move(fyne.NewPos(plotX-5, y-6))
		r.objects = append(r.objects, left)

		// Right axis: flow rate.
		flow := flowMax * float64(numHLines-i) / float64(numHLines)
		right := canvas.NewText(fmt.Sprintf("%.1f L/m", flow), colorLabel)
		right.TextSize = 10
		right.Alignment = fyne.TextAlignLeading
		right.Move(fyne.NewPos(plotX+plotWidth+5, y-6))
		r.objects = append(r.objects, right)
	}

	numVLines := 6
	span := xMax.Sub(xMin)
	for i := 0; i <= numVLines; i++ {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(colorGrid)
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		offset := time.Duration(int64(span) * int64(i) / int64(numVLines))
		text := canvas.NewText(formatAge(span-offset), colorLabel)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.objects = append(r.objects, text)
	}
}

// drawSoilTrace draws average soil moisture against the 0-100 left axis.
func (r *trendRenderer) drawSoilTrace(plotX, plotY, plotWidth, plotHeight float32, entries []history.Entry, xMin, xMax time.Time) {
	span := xMax.Sub(xMin).Seconds()
	if span <= 0 {
		return
	}

	var prev fyne.Position
	for i, e := range entries {
		x := plotX + float32(e.At.Sub(xMin).Seconds()/span)*plotWidth
		y := plotY + plotHeight - float32(e.Report.AvgSoilHumidity)/100*plotHeight
		pos := fyne.NewPos(x, y)
		if i > 0 {
			line := canvas.NewLine(colorSoil)
			line.Position1 = prev
			line.Position2 = pos
			line.StrokeWidth = 1.5
			r.objects = append(r.objects, line)
		}
		prev = pos
	}
}

// drawFlowTrace draws one flow channel against the right axis.
func (r *trendRenderer) drawFlowTrace(plotX, plotY, plotWidth, plotHeight float32, entries []history.Entry, ch int, flowMax float64, xMin, xMax time.Time) {
	span := xMax.Sub(xMin).Seconds()
	if span <= 0 || flowMax <= 0 {
		return
	}

	c := colorFlow0
	if ch == 1 {
		c = colorFlow1
	}

	var prev fyne.Position
	for i, e := range entries {
		x := plotX + float32(e.At.Sub(xMin).Seconds()/span)*plotWidth
		y := plotY + plotHeight - float32(e.Report.FlowRate[ch]/flowMax)*plotHeight
		pos := fyne.NewPos(x, y)
		if i > 0 {
			line := canvas.NewLine(c)
			line.Position1 = prev
			line.Position2 = pos
			line.StrokeWidth = 2
			r.objects = append(r.objects, line)
		}
		prev = pos
	}
}

// drawDoorMarkers draws a vertical line at every report with the door open.
func (r *trendRenderer) drawDoorMarkers(plotX, plotY, plotWidth, plotHeight float32, entries []history.Entry, xMin, xMax time.Time) {
	span := xMax.Sub(xMin).Seconds()
	if span <= 0 {
		return
	}

	for _, e := range entries {
		if !e.Report.DoorOpen {
			continue
		}
		x := plotX + float32(e.At.Sub(xMin).Seconds()/span)*plotWidth
		line := canvas.NewLine(colorDoor)
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)
	}
}

// drawTotals draws the running water totals in the top-left corner.
func (r *trendRenderer) drawTotals(plotX, plotY float32, totals [protocol.FlowChannels]float64) {
	text := canvas.NewText(
		fmt.Sprintf("total 1: %.1f L   total 2: %.1f L", totals[0], totals[1]),
		colorLabel)
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(plotX+10, plotY+10))
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *trendRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *trendRenderer) Destroy() {
	// Cleanup handled by Fyne
}

func formatAge(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	if d < time.Minute {
		return fmt.Sprintf("-%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("-%dm", int(d.Minutes()))
}
