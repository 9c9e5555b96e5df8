// File: internal/bot/loop.go
package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/karavolt/surveyor-cli/internal/browser"
	"github.com/karavolt/surveyor-cli/internal/config"
)

// State is the traversal loop's observable state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

const (
	// idleWait is how long the worker dozes between running-flag checks
	// while paused.
	idleWait = 200 * time.Millisecond
	// stopJoinTimeout bounds how long Stop waits for the worker to drain.
	stopJoinTimeout = 400 * time.Millisecond
)

// Bot owns the traversal loop: one worker goroutine that snapshots the
// page, runs the control handlers in a fixed order, advances, and repeats.
// All driver calls happen on the worker; the control surface only flips
// flags. A challenge, a dead-end page, or a pass failure parks the bot in
// StatePaused for the operator, never StateStopped.
type Bot struct {
	driver   browser.Driver
	filler   *Filler
	advancer *Advancer
	detector *ChallengeDetector
	pacer    *Pacer
	logger   *zap.Logger

	alive   atomic.Bool
	running atomic.Bool
	profile atomic.Pointer[ResponseProfile]

	mu      sync.Mutex
	started bool
	stopped bool
	done    chan struct{}
}

// New assembles a bot around an open driver session. The profile must
// already be validated.
func New(driver browser.Driver, cfg config.BotConfig, profile *ResponseProfile, logger *zap.Logger) *Bot {
	b := &Bot{
		driver: driver,
		logger: logger,
		done:   make(chan struct{}),
	}
	b.profile.Store(profile)

	pacer := NewPacer(DelayWindow{Min: cfg.MinDelay, Max: cfg.MaxDelay}, b.running.Load)
	synth := NewSynthesizer()
	clicker := NewClicker(driver, cfg.ActionsPerMinute, logger)

	b.pacer = pacer
	b.filler = NewFiller(driver, clicker, synth, pacer, b.running.Load, b.profile.Load, logger)
	b.advancer = NewAdvancer(clicker, logger)
	b.detector = NewChallengeDetector(logger)
	return b
}

// Start navigates to the survey and launches the worker, or resumes a
// paused bot in place without reloading the page. The navigation error is
// the one fatal failure: if the session cannot reach the survey, the loop
// never starts.
func (b *Bot) Start(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return ErrAlreadyStopped
	}
	if b.started {
		// Resume. The page keeps whatever progress the previous stretch
		// made.
		b.running.Store(true)
		b.logger.Info("Resumed")
		return nil
	}

	if err := b.driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("%w: %v", browser.ErrSessionStart, err)
	}

	b.started = true
	b.alive.Store(true)
	b.running.Store(true)
	go b.work(ctx)
	b.logger.Info("Started", zap.String("url", url))
	return nil
}

// Pause halts work after at most one more commit. The session stays open
// and Start resumes it.
func (b *Bot) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped || !b.started {
		return
	}
	b.running.Store(false)
	b.logger.Info("Paused")
}

// Stop terminates the worker and closes the browser session. Terminal: a
// stopped bot cannot be restarted. The worker join is bounded; a worker
// wedged inside a driver call is abandoned rather than waited on.
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	wasStarted := b.started
	b.running.Store(false)
	b.alive.Store(false)
	b.mu.Unlock()

	if wasStarted {
		select {
		case <-b.done:
		case <-time.After(stopJoinTimeout):
			b.logger.Warn("Worker did not drain in time, abandoning join")
		}
	}

	err := b.driver.Close(ctx)
	b.logger.Info("Stopped")
	return err
}

// State reports the loop's current state.
func (b *Bot) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case b.stopped:
		return StateStopped
	case !b.started:
		return StateIdle
	case b.running.Load():
		return StateRunning
	default:
		return StatePaused
	}
}

// SetProfile swaps the active response profile. The worker picks up the
// new profile at its next question; it never observes a half-updated one.
func (b *Bot) SetProfile(profile *ResponseProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	b.profile.Store(profile)
	b.logger.Info("Profile switched", zap.String("profile", profile.Name))
	return nil
}

// Profile returns the active response profile.
func (b *Bot) Profile() *ResponseProfile {
	return b.profile.Load()
}

// SetDelayWindow swaps the pacing window.
func (b *Bot) SetDelayWindow(window DelayWindow) error {
	return b.pacer.SetWindow(window)
}

func (b *Bot) work(ctx context.Context) {
	defer close(b.done)
	b.logger.Debug("Worker started")

	for b.alive.Load() {
		if ctx.Err() != nil {
			b.logger.Info("Context cancelled, worker exiting")
			return
		}
		if !b.running.Load() {
			time.Sleep(idleWait)
			continue
		}
		b.runPass(ctx)
	}
	b.logger.Debug("Worker exited")
}

// runPass executes one full pass: challenge gate, the five handlers in
// fixed order, then the advance attempt. Whatever goes wrong inside a pass
// is downgraded to a pause; the loop must outlive any page.
func (b *Bot) runPass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Pass panicked, pausing", zap.Any("panic", r))
			b.running.Store(false)
		}
	}()

	page, err := b.snapshot(ctx)
	if err != nil {
		b.logger.Warn("Could not snapshot page, pausing", zap.Error(err))
		b.running.Store(false)
		return
	}

	if b.detector.Detect(page) {
		b.logger.Warn("Verification challenge detected, pausing for operator")
		b.running.Store(false)
		return
	}

	commits := 0
	pass := []func(context.Context, *Page) int{
		b.filler.FillRadios,
		b.filler.FillCheckboxes,
		b.filler.FillTexts,
		b.filler.FillTextareas,
		b.filler.FillSelects,
	}
	for _, handler := range pass {
		if !b.running.Load() {
			return
		}
		commits += handler(ctx, page)
	}
	if !b.running.Load() {
		return
	}
	b.logger.Info("Pass complete", zap.Int("commits", commits))

	// Advance against a fresh snapshot so controls revealed by the
	// answers above are visible.
	page, err = b.snapshot(ctx)
	if err != nil {
		b.logger.Warn("Could not snapshot page before advancing, pausing", zap.Error(err))
		b.running.Store(false)
		return
	}
	if !b.advancer.Advance(ctx, page) {
		b.logger.Warn("Dead end: no way forward, pausing for operator")
		b.running.Store(false)
		return
	}
	b.pacer.Pace()
}

func (b *Bot) snapshot(ctx context.Context) (*Page, error) {
	source, err := b.driver.PageSource(ctx)
	if err != nil {
		return nil, err
	}
	return ParsePage(source)
}
