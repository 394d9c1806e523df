// Package trend is a Fyne strip chart of recent controller reports: soil
// moisture and flow rate traces over the history window, with door-open
// markers and running water totals.
package trend

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/STcraft/irrigation-serv/pkg/config"
	"github.com/STcraft/irrigation-serv/pkg/history"
	"github.com/STcraft/irrigation-serv/pkg/protocol"
)

// Widget is a custom Fyne widget drawing the report history.
type Widget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu      sync.RWMutex
	entries []history.Entry
	totals  [protocol.FlowChannels]float64

	// Display buffer (reused for downsampling)
	display []history.Entry

	// Auto-scaling. Soil moisture is plotted against the fixed 0-100 left
	// axis; flow auto-scales on the right axis.
	flowMax    float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a trend widget.
func New(cfg *config.Config) *Widget {
	w := &Widget{
		cfg:              cfg,
		entries:          make([]history.Entry, 0),
		display:          make([]history.Entry, 0, cfg.Monitor.MaxDisplayPoints),
		maxDisplayPoints: cfg.Monitor.MaxDisplayPoints,
	}
	w.ExtendBaseWidget(w)
	w.Refresh()
	return w
}

// UpdateData replaces the displayed history. Call from the history callback
// via fyne.Do().
func (w *Widget) UpdateData(entries []history.Entry, totals [protocol.FlowChannels]float64) {
	w.mu.Lock()

	w.display = history.Downsample(w.display, entries, w.maxDisplayPoints)
	w.entries = entries
	w.totals = totals
	w.updateAutoScale()

	w.mu.Unlock()

	// Refresh outside the lock, the renderer takes RLock.
	w.Refresh()
}

// updateAutoScale derives the flow axis range and the time range.
func (w *Widget) updateAutoScale() {
	if len(w.display) == 0 {
		w.flowMax = 1
		w.xMin = time.Now()
		w.xMax = w.xMin.Add(w.cfg.Monitor.HistoryWindow)
		return
	}

	w.flowMax = 0
	for _, e := range w.display {
		for ch := 0; ch < protocol.FlowChannels; ch++ {
			if e.Report.FlowRate[ch] > w.flowMax {
				w.flowMax = e.Report.FlowRate[ch]
			}
		}
	}
	if w.flowMax == 0 {
		w.flowMax = 1
	}
	w.flowMax *= 1.1

	w.xMin = w.display[0].At
	w.xMax = w.display[len(w.display)-1].At
	if w.xMax.Sub(w.xMin) < time.Minute {
		w.xMax = w.xMin.Add(time.Minute)
	}
}

// CreateRenderer creates the widget renderer.
func (w *Widget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &trendRenderer{
		trend:    w,
		bg:       bg,
		objects:  []fyne.CanvasObject{bg},
		lastSize: fyne.Size{Width: 0, Height: 0},
	}
}
