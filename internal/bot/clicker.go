// File: internal/bot/clicker.go
package bot

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/karavolt/surveyor-cli/internal/browser"
)

// Clicker is the layered click strategy shared by every handler. It
// escalates from a direct click to a raw pointer path to a synthetic event
// sequence, because survey widgets frequently hide the real input and react
// only to one of these paths. Stage failures are suppressed; only total
// failure is reported.
type Clicker struct {
	driver  browser.Driver
	logger  *zap.Logger
	limiter *rate.Limiter
}

// NewClicker creates a clicker. actionsPerMinute <= 0 disables throttling.
func NewClicker(driver browser.Driver, actionsPerMinute int, logger *zap.Logger) *Clicker {
	limit := rate.Inf
	if actionsPerMinute > 0 {
		limit = rate.Limit(float64(actionsPerMinute) / 60.0)
	}
	return &Clicker{
		driver:  driver,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Click commits a click on the element, trying each stage in turn. Returns
// true on the first stage that succeeds. Never returns an error: a control
// that refuses all three paths is logged and skipped so the pass can move
// on to the next control.
func (c *Clicker) Click(ctx context.Context, xpath string) bool {
	if err := c.limiter.Wait(ctx); err != nil {
		return false
	}

	directErr := c.driver.Click(ctx, xpath)
	if directErr == nil {
		return true
	}

	pointerErr := c.driver.PointerClick(ctx, xpath)
	if pointerErr == nil {
		c.logger.Debug("Direct click failed, pointer click succeeded", zap.String("xpath", xpath))
		return true
	}

	if err := c.driver.ScrollIntoView(ctx, xpath); err != nil {
		c.logger.Debug("Scroll into view failed before event dispatch",
			zap.String("xpath", xpath), zap.Error(err))
	}
	eventErr := c.driver.DispatchClickEvents(ctx, xpath)
	if eventErr == nil {
		c.logger.Debug("Escalated to synthetic events", zap.String("xpath", xpath))
		return true
	}

	c.logger.Warn("All click strategies failed",
		zap.String("xpath", xpath),
		zap.NamedError("direct", directErr),
		zap.NamedError("pointer", pointerErr),
		zap.NamedError("events", eventErr))
	return false
}
