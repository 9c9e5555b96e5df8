// File: internal/bot/pacing.go
package bot

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

// paceSlice bounds cancellation latency: a pause or stop is observed within
// one slice even mid-delay.
const paceSlice = 100 * time.Millisecond

// jitterMax is the extra random padding added on top of every delay window.
const jitterMax = 0.4

// DelayWindow bounds the randomized pause between actions, in seconds.
type DelayWindow struct {
	Min float64
	Max float64
}

// Validate enforces 0 <= Min <= Max.
func (w DelayWindow) Validate() error {
	if w.Min < 0 || w.Max < 0 {
		return fmt.Errorf("delay window must be non-negative, got [%.2f, %.2f]", w.Min, w.Max)
	}
	if w.Min > w.Max {
		return fmt.Errorf("delay window min %.2f exceeds max %.2f", w.Min, w.Max)
	}
	return nil
}

// Pacer sleeps a randomized duration between actions, in small slices, so
// the worker reacts quickly when the operator pauses or stops. The window
// is swapped wholesale by the controller while the worker reads it, hence
// the atomic pointer.
type Pacer struct {
	window  atomic.Pointer[DelayWindow]
	running func() bool
	rng     *rand.Rand
	sleep   func(time.Duration)
}

// NewPacer creates a pacer reading the given liveness probe before every
// slice.
func NewPacer(window DelayWindow, running func() bool) *Pacer {
	p := &Pacer{
		running: running,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:   time.Sleep,
	}
	w := window
	p.window.Store(&w)
	return p
}

// SetWindow swaps the active delay window. Safe to call concurrently with
// Pace.
func (p *Pacer) SetWindow(window DelayWindow) error {
	if err := window.Validate(); err != nil {
		return err
	}
	w := window
	p.window.Store(&w)
	return nil
}

// Window returns the active delay window.
func (p *Pacer) Window() DelayWindow {
	return *p.window.Load()
}

// Pace sleeps for uniform(min,max) plus uniform(0, 0.4) seconds, checking
// the running probe before each slice. Returns true if the full duration
// elapsed, false as soon as the probe reports stopped. The probe is checked
// before the first slice, so a pacer invoked while already paused sleeps
// not at all.
func (p *Pacer) Pace() bool {
	w := p.window.Load()
	seconds := w.Min + p.rng.Float64()*(w.Max-w.Min) + p.rng.Float64()*jitterMax
	remaining := time.Duration(seconds * float64(time.Second))

	for remaining > 0 {
		if !p.running() {
			return false
		}
		slice := paceSlice
		if remaining < slice {
			slice = remaining
		}
		p.sleep(slice)
		remaining -= slice
	}
	return p.running()
}
