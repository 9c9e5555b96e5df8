package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karavolt/surveyor-cli/internal/bot"
	"github.com/karavolt/surveyor-cli/internal/browser/lite"
	"github.com/karavolt/surveyor-cli/internal/config"
)

func newIdleBot(t *testing.T) *bot.Bot {
	t.Helper()
	driver := lite.New(config.NetworkConfig{NavigationTimeout: time.Second}, zap.NewNop())
	b := bot.New(driver, config.BotConfig{MinDelay: 0, MaxDelay: 0}, bot.BuiltinProfiles()["Default"], zap.NewNop())
	t.Cleanup(func() { b.Stop(context.Background()) })
	return b
}

func TestRunCommandFlags(t *testing.T) {
	cmd := newRunCmd()

	for _, flag := range []string{"profile", "min-delay", "max-delay", "driver", "headless", "user-data-dir", "profiles-file"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should be registered", flag)
	}

	driver, err := cmd.Flags().GetString("driver")
	require.NoError(t, err)
	assert.Equal(t, "cdp", driver)
}

func TestHandleCommandStop(t *testing.T) {
	b := newIdleBot(t)
	profiles := bot.BuiltinProfiles()

	for _, word := range []string{"stop", "quit", "exit"} {
		assert.True(t, handleCommand(context.Background(), b, profiles, word, zap.NewNop()))
	}
	assert.False(t, handleCommand(context.Background(), b, profiles, "status", zap.NewNop()))
	assert.False(t, handleCommand(context.Background(), b, profiles, "", zap.NewNop()))
}

func TestHandleCommandProfileSwitch(t *testing.T) {
	b := newIdleBot(t)
	profiles := bot.BuiltinProfiles()

	assert.False(t, handleCommand(context.Background(), b, profiles, "profile Bold", zap.NewNop()))
	assert.Equal(t, "Bold", b.Profile().Name)

	assert.False(t, handleCommand(context.Background(), b, profiles, "profile Nonexistent", zap.NewNop()))
	assert.Equal(t, "Bold", b.Profile().Name)
}

func TestHandleCommandDelay(t *testing.T) {
	b := newIdleBot(t)
	profiles := bot.BuiltinProfiles()

	assert.False(t, handleCommand(context.Background(), b, profiles, "delay 0.5 1.5", zap.NewNop()))
	assert.False(t, handleCommand(context.Background(), b, profiles, "delay nonsense 2", zap.NewNop()))
	assert.False(t, handleCommand(context.Background(), b, profiles, "delay 1", zap.NewNop()))
}

func TestHandleCommandPauseIgnoredBeforeStart(t *testing.T) {
	b := newIdleBot(t)
	profiles := bot.BuiltinProfiles()

	assert.False(t, handleCommand(context.Background(), b, profiles, "pause", zap.NewNop()))
	assert.Equal(t, bot.StateIdle, b.State())
}
