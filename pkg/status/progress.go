// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package status

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pterm/pterm"
	"gitlab.com/tozd/go/errors"
)

// DefaultRedrawInterval is the minimum spacing between frames that do not
// change the displayed value
const DefaultRedrawInterval = 250 * time.Millisecond

// 🖥️ Display receives rendered progress frames
type Display interface {
	Draw(frame string)
	Done(frame string)
}

// 📈 Progress tracks completed steps against a known total and forwards
// throttled frames to a Display. Advance is safe for concurrent use.
type Progress struct {
	display  Display
	clock    clockwork.Clock
	interval time.Duration

	total     atomic.Uint64
	completed atomic.Uint64

	mu       sync.Mutex
	shown    int // last percentage drawn, -1 before the first frame
	lastDraw time.Time
	tick     int
	finished bool
}

// ProgressOption configures a Progress
type ProgressOption func(*Progress)

// WithClock replaces the wall clock used for throttling
func WithClock(c clockwork.Clock) ProgressOption {
	return func(p *Progress) { p.clock = c }
}

// WithRedrawInterval sets the minimum spacing between unchanged frames
func WithRedrawInterval(d time.Duration) ProgressOption {
	return func(p *Progress) { p.interval = d }
}

// 🏭 NewProgress creates a progress estimator drawing to display
func NewProgress(display Display, opts ...ProgressOption) *Progress {
	p := &Progress{
		display:  display,
		clock:    clockwork.NewRealClock(),
		interval: DefaultRedrawInterval,
		shown:    -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init resets the counters and draws the first frame. A zero total switches
// to a rotating indicator.
func (p *Progress) Init(total uint64) {
	p.total.Store(total)
	p.completed.Store(0)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = -1
	p.tick = 0
	p.finished = false
	p.drawLocked(true)
}

// Advance marks n more steps complete
func (p *Progress) Advance(n uint64) {
	if n == 0 {
		return
	}
	p.completed.Add(n)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.drawLocked(false)
}

// Finish draws the closing frame. Later calls to Advance only count.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	p.display.Done(FormatDone())
}

// Abort closes the display after a failed run
func (p *Progress) Abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	p.display.Done(FormatAborted())
}

// Completed returns the number of steps recorded so far
func (p *Progress) Completed() uint64 {
	return p.completed.Load()
}

// Total returns the expected number of steps
func (p *Progress) Total() uint64 {
	return p.total.Load()
}

// Percent returns the current completion, capped at 100. It is -1 when no
// total is known.
func (p *Progress) Percent() int {
	total := p.total.Load()
	if total == 0 {
		return -1
	}
	done := p.completed.Load()
	if done >= total {
		return 100
	}
	return int(done * 100 / total)
}

// drawLocked emits a frame when the shown value changes or the redraw
// interval has passed. The counter only grows and is read under p.mu, so the
// shown percentage never goes backwards.
func (p *Progress) drawLocked(force bool) {
	now := p.clock.Now()
	elapsed := now.Sub(p.lastDraw) >= p.interval

	pct := p.Percent()
	if pct < 0 {
		if !force && !elapsed {
			return
		}
		p.display.Draw(FormatSpinner(p.tick))
		p.tick++
		p.lastDraw = now
		return
	}

	if pct < p.shown {
		pct = p.shown
	}
	if !force && pct == p.shown && !elapsed {
		return
	}
	p.shown = pct
	p.lastDraw = now
	p.display.Draw(FormatProgress(pct))
}

// 🚫 NopDisplay discards every frame
type NopDisplay struct{}

func (NopDisplay) Draw(string) {}
func (NopDisplay) Done(string) {}

// 🎨 AreaDisplay redraws frames in place using a pterm live area
type AreaDisplay struct {
	area *pterm.AreaPrinter
}

// NewAreaDisplay starts a live area on the terminal
func NewAreaDisplay() (*AreaDisplay, error) {
	area, err := pterm.DefaultArea.Start()
	if err != nil {
		return nil, errors.Errorf("starting progress area: %w", err)
	}
	return &AreaDisplay{area: area}, nil
}

func (d *AreaDisplay) Draw(frame string) {
	d.area.Update(pterm.FgCyan.Sprint(frame))
}

func (d *AreaDisplay) Done(frame string) {
	color := pterm.FgGreen
	if frame == FormatAborted() {
		color = pterm.FgRed
	}
	d.area.Update(color.Sprint(frame))
	_ = d.area.Stop()
}
