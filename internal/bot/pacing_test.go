package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayWindowValidate(t *testing.T) {
	assert.NoError(t, DelayWindow{Min: 0, Max: 0}.Validate())
	assert.NoError(t, DelayWindow{Min: 1, Max: 2.5}.Validate())
	assert.Error(t, DelayWindow{Min: -1, Max: 2}.Validate())
	assert.Error(t, DelayWindow{Min: 3, Max: 2}.Validate())
}

func TestPaceStoppedBeforeFirstSlice(t *testing.T) {
	p := NewPacer(DelayWindow{Min: 5, Max: 10}, func() bool { return false })

	var slept time.Duration
	p.sleep = func(d time.Duration) { slept += d }

	assert.False(t, p.Pace(), "a stopped pacer must bail out")
	assert.Zero(t, slept, "no slice may elapse once the flag is down")
}

func TestPaceFullDurationElapses(t *testing.T) {
	p := NewPacer(DelayWindow{Min: 0.5, Max: 0.5}, func() bool { return true })

	var slept time.Duration
	p.sleep = func(d time.Duration) { slept += d }

	assert.True(t, p.Pace())
	// 0.5s window plus up to 0.4s jitter.
	assert.GreaterOrEqual(t, slept, 500*time.Millisecond)
	assert.LessOrEqual(t, slept, 900*time.Millisecond)
}

func TestPaceCancelsWithinOneSlice(t *testing.T) {
	calls := 0
	p := NewPacer(DelayWindow{Min: 5, Max: 5}, func() bool {
		calls++
		return calls <= 1
	})

	var slept time.Duration
	p.sleep = func(d time.Duration) { slept += d }

	assert.False(t, p.Pace())
	assert.LessOrEqual(t, slept, paceSlice, "at most one slice may elapse after the flag drops")
}

func TestSetWindowSwap(t *testing.T) {
	p := NewPacer(DelayWindow{Min: 1, Max: 2}, func() bool { return true })

	require.NoError(t, p.SetWindow(DelayWindow{Min: 0.2, Max: 0.3}))
	assert.Equal(t, DelayWindow{Min: 0.2, Max: 0.3}, p.Window())

	assert.Error(t, p.SetWindow(DelayWindow{Min: 2, Max: 1}))
	assert.Equal(t, DelayWindow{Min: 0.2, Max: 0.3}, p.Window(), "rejected window must not replace the active one")
}
