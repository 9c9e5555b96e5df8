package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestAdvancer(driver *mockDriver) *Advancer {
	return NewAdvancer(NewClicker(driver, 0, zap.NewNop()), zap.NewNop())
}

func TestAdvanceClicksButtonByText(t *testing.T) {
	page := parseTestPage(t, `
		<html><body>
			<button id="other">Back</button>
			<button id="fwd">Next page</button>
		</body></html>`)

	driver := &mockDriver{}
	a := newTestAdvancer(driver)

	assert.True(t, a.Advance(context.Background(), page))
	assert.Equal(t, 1, driver.callCount("click://*[@id='fwd']"))
	assert.Zero(t, driver.callCount("click://*[@id='other']"))
}

func TestAdvanceMatchesSubmitInputValue(t *testing.T) {
	page := parseTestPage(t, `
		<html><body>
			<input id="go" type="submit" value="Submit answers">
		</body></html>`)

	driver := &mockDriver{}
	a := newTestAdvancer(driver)

	assert.True(t, a.Advance(context.Background(), page))
	assert.Equal(t, 1, driver.callCount("click://*[@id='go']"))
}

func TestAdvanceFindsFormButton(t *testing.T) {
	page := parseTestPage(t, `
		<html><body><form>
			<button id="done" type="button">All done, proceed</button>
		</form></body></html>`)

	driver := &mockDriver{}
	a := newTestAdvancer(driver)

	assert.True(t, a.Advance(context.Background(), page))
	assert.Equal(t, 1, driver.callCount("click://*[@id='done']"))
}

func TestAdvanceDeadEnd(t *testing.T) {
	page := parseTestPage(t, `
		<html><body><p>Thank you for participating.</p></body></html>`)

	driver := &mockDriver{}
	a := newTestAdvancer(driver)

	assert.False(t, a.Advance(context.Background(), page))
	assert.Zero(t, driver.callCount("click:"))
}

func TestAdvanceFallsThroughFailedClicks(t *testing.T) {
	page := parseTestPage(t, `
		<html><body><button id="b">Continue</button></body></html>`)

	driver := &mockDriver{
		clickErr:   errors.New("nope"),
		pointerErr: errors.New("nope"),
		eventsErr:  errors.New("nope"),
	}
	a := newTestAdvancer(driver)

	assert.False(t, a.Advance(context.Background(), page),
		"a matched control that refuses every click path is not progress")
}
