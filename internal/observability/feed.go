// File: internal/observability/feed.go
package observability

import (
	"go.uber.org/zap/zapcore"
)

// Feed is a bounded channel of formatted log lines bridging the worker
// goroutine to a display surface (the CLI control loop, or a GUI). It is a
// zapcore.Core, so attaching it to the logger via Initialize tees every
// entry into the channel. When the buffer is full the oldest line is
// dropped; the display must never be able to stall the worker.
type Feed struct {
	zapcore.LevelEnabler
	lines chan string
}

// NewFeed creates a Feed retaining at most size lines.
func NewFeed(size int, enab zapcore.LevelEnabler) *Feed {
	if size <= 0 {
		size = 256
	}
	return &Feed{
		LevelEnabler: enab,
		lines:        make(chan string, size),
	}
}

// Lines returns the receive side of the feed.
func (f *Feed) Lines() <-chan string {
	return f.lines
}

// With implements zapcore.Core. Structured fields are not rendered in the
// feed; the display shows the human-readable message only.
func (f *Feed) With([]zapcore.Field) zapcore.Core { return f }

// Check implements zapcore.Core.
func (f *Feed) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if f.Enabled(ent.Level) {
		return ce.AddCore(ent, f)
	}
	return ce
}

// Write enqueues the entry as a "[HH:MM:SS] message" line, evicting the
// oldest buffered line when full.
func (f *Feed) Write(ent zapcore.Entry, _ []zapcore.Field) error {
	line := "[" + ent.Time.Format("15:04:05") + "] " + ent.Message
	for {
		select {
		case f.lines <- line:
			return nil
		default:
			select {
			case <-f.lines: // evict oldest
			default:
			}
		}
	}
}

// Sync implements zapcore.Core.
func (f *Feed) Sync() error { return nil }
