// Package history keeps a sliding time window of controller reports for
// trend display and water usage accounting.
package history

import (
	"sync"
	"time"

	"github.com/STcraft/irrigation-serv/pkg/protocol"
)

var _ Recorder = (*History)(nil)

// Entry is one report with the host-side time it arrived. Controller
// timestamps restart from zero with the firmware, so window trimming uses
// host time.
type Entry struct {
	At     time.Time
	Report protocol.Report
}

// Recorder accumulates reports and exposes them as ordered slices.
type Recorder interface {
	Consume(input <-chan protocol.Report)
	Entries() []Entry
	Totals() [protocol.FlowChannels]float64
	OnUpdate(func(entries []Entry, totals [protocol.FlowChannels]float64))
}

// History implements Recorder. Internally a FIFO buffer ordered oldest
// first; entries older than the window are trimmed on insert.
type History struct {
	window time.Duration
	now    func() time.Time

	entries []Entry
	totals  [protocol.FlowChannels]float64
	lastAt  time.Time

	mu sync.RWMutex

	callbacks []func(entries []Entry, totals [protocol.FlowChannels]float64)
	cbMu      sync.RWMutex

	shutdown bool
}

// New creates a History holding the given trailing window of reports.
func New(window time.Duration) *History {
	return &History{
		window:  window,
		now:     time.Now,
		entries: make([]Entry, 0),
	}
}

// Consume drains the input channel, recording every report. Returns when
// the channel closes; callbacks stop firing after that.
func (h *History) Consume(input <-chan protocol.Report) {
	for report := range input {
		h.Add(report)
	}
	h.mu.Lock()
	h.shutdown = true
	h.mu.Unlock()
}

// Add records one report, trims the window, and updates the running water
// totals.
func (h *History) Add(report protocol.Report) {
	h.mu.Lock()

	at := h.now()
	h.entries = append(h.entries, Entry{At: at, Report: report})

	// Integrate flow into liters: rate [L/min] held since the previous
	// report. The first report has no interval to integrate over.
	if !h.lastAt.IsZero() {
		minutes := at.Sub(h.lastAt).Minutes()
		for ch := 0; ch < protocol.FlowChannels; ch++ {
			h.totals[ch] += report.FlowRate[ch] * minutes
		}
	}
	h.lastAt = at

	// Trim entries that fell out of the window. Totals are cumulative and
	// survive trimming.
	cutoff := at.Add(-h.window)
	trim := 0
	for trim < len(h.entries) && !h.entries[trim].At.After(cutoff) {
		trim++
	}
	if trim > 0 {
		h.entries = h.entries[trim:]
	}

	shouldNotify := !h.shutdown
	h.mu.Unlock()

	if shouldNotify {
		h.notifyCallbacks()
	}
}

// Entries returns a copy of the buffered reports, oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]Entry, len(h.entries))
	copy(result, h.entries)
	return result
}

// Totals returns cumulative liters delivered per channel since startup.
func (h *History) Totals() [protocol.FlowChannels]float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totals
}

// Latest returns the newest entry, or false when nothing arrived yet.
func (h *History) Latest() (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// OnUpdate registers a callback invoked after every recorded report. The
// callback receives copies and should return quickly.
func (h *History) OnUpdate(callback func(entries []Entry, totals [protocol.FlowChannels]float64)) {
	h.cbMu.Lock()
	defer h.cbMu.Unlock()
	h.callbacks = append(h.callbacks, callback)
}

// notifyCallbacks snapshots the buffer under the read lock, then invokes
// callbacks without holding any locks.
func (h *History) notifyCallbacks() {
	h.mu.RLock()
	entriesCopy := make([]Entry, len(h.entries))
	copy(entriesCopy, h.entries)
	totals := h.totals
	h.mu.RUnlock()

	h.cbMu.RLock()
	callbacks := make([]func(entries []Entry, totals [protocol.FlowChannels]float64), len(h.callbacks))
	copy(callbacks, h.callbacks)
	h.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(entriesCopy, totals)
		}
	}
}
