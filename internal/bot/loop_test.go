package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/karavolt/surveyor-cli/internal/browser"
	"github.com/karavolt/surveyor-cli/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestBot(driver browser.Driver) *Bot {
	cfg := config.BotConfig{MinDelay: 0, MaxDelay: 0}
	return New(driver, cfg, BuiltinProfiles()["Default"], zap.NewNop())
}

func waitForState(t *testing.T, b *Bot, want State) {
	t.Helper()
	assert.Eventually(t, func() bool { return b.State() == want },
		3*time.Second, 20*time.Millisecond, "expected state %s, last saw %s", want, b.State())
}

func TestBotChallengeParksPaused(t *testing.T) {
	driver := &mockDriver{
		source: `<html><body><iframe src="https://recaptcha.net/anchor"></iframe><button>Next</button></body></html>`,
	}
	b := newTestBot(driver)
	defer b.Stop(context.Background())

	require.NoError(t, b.Start(context.Background(), "http://survey.test/ch"))
	waitForState(t, b, StatePaused)

	assert.Zero(t, driver.callCount("click:"), "no handler may run once a challenge is detected")
	assert.NotEqual(t, StateStopped, b.State())
}

func TestBotDeadEndParksPaused(t *testing.T) {
	driver := &mockDriver{
		source: `<html><body><p>Thank you for your time.</p></body></html>`,
	}
	b := newTestBot(driver)
	defer b.Stop(context.Background())

	require.NoError(t, b.Start(context.Background(), "http://survey.test/end"))
	waitForState(t, b, StatePaused)
	assert.NotEqual(t, StateStopped, b.State(), "a dead end requires the operator, not a teardown")
}

func TestBotSnapshotFailureParksPaused(t *testing.T) {
	driver := &mockDriver{sourceErr: errors.New("tab crashed")}
	b := newTestBot(driver)
	defer b.Stop(context.Background())

	require.NoError(t, b.Start(context.Background(), "http://survey.test/x"))
	waitForState(t, b, StatePaused)
}

func TestBotNavigationFailureIsFatal(t *testing.T) {
	driver := &mockDriver{navErr: errors.New("connection refused")}
	b := newTestBot(driver)
	defer b.Stop(context.Background())

	err := b.Start(context.Background(), "http://unreachable.test")
	assert.ErrorIs(t, err, browser.ErrSessionStart)
	assert.Equal(t, StateIdle, b.State(), "the loop never enters running on a failed start")
}

func TestBotPauseAndResume(t *testing.T) {
	driver := &mockDriver{
		source: `<html><body><p>nothing here</p></body></html>`,
	}
	b := newTestBot(driver)
	defer b.Stop(context.Background())

	require.NoError(t, b.Start(context.Background(), "http://survey.test/p"))
	waitForState(t, b, StatePaused)

	// Resume reuses the live session without re-navigating.
	require.NoError(t, b.Start(context.Background(), "http://survey.test/p"))
	assert.Equal(t, 1, driver.callCount("navigate:"))
	waitForState(t, b, StatePaused)
}

func TestBotStopIsTerminal(t *testing.T) {
	driver := &mockDriver{
		source: `<html><body><p>page</p></body></html>`,
	}
	b := newTestBot(driver)

	require.NoError(t, b.Start(context.Background(), "http://survey.test/s"))
	require.NoError(t, b.Stop(context.Background()))
	assert.Equal(t, StateStopped, b.State())
	assert.Equal(t, 1, driver.callCount("close"))

	assert.ErrorIs(t, b.Start(context.Background(), "http://survey.test/s"), ErrAlreadyStopped)
	assert.NoError(t, b.Stop(context.Background()), "repeated stop is a no-op")
	assert.Equal(t, 1, driver.callCount("close"))
}

func TestBotStopWithoutStart(t *testing.T) {
	driver := &mockDriver{}
	b := newTestBot(driver)

	require.NoError(t, b.Stop(context.Background()))
	assert.Equal(t, StateStopped, b.State())
}

func TestBotProfileSwap(t *testing.T) {
	driver := &mockDriver{}
	b := newTestBot(driver)
	defer b.Stop(context.Background())

	bold := BuiltinProfiles()["Bold"]
	require.NoError(t, b.SetProfile(bold))
	assert.Equal(t, "Bold", b.Profile().Name)

	starved := &ResponseProfile{Name: "starved"}
	assert.ErrorIs(t, b.SetProfile(starved), ErrEmptyAnswerPool)
	assert.Equal(t, "Bold", b.Profile().Name, "a rejected profile must not replace the active one")
}

func TestBotDelayWindowSwap(t *testing.T) {
	driver := &mockDriver{}
	b := newTestBot(driver)
	defer b.Stop(context.Background())

	require.NoError(t, b.SetDelayWindow(DelayWindow{Min: 0.1, Max: 0.2}))
	assert.Error(t, b.SetDelayWindow(DelayWindow{Min: 2, Max: 1}))
}
