// File: internal/browser/driver.go
// The Driver interface is the boundary to the underlying browser session.
// All selectors are XPath expressions. Two implementations exist: the cdp
// package drives a real Chrome over the DevTools protocol and the lite
// package is an in-process HTML engine used for tests and dry runs.
package browser

import (
	"context"
	"errors"
	"io"
)

// ErrSessionStart indicates the browser session could not be created. It is
// fatal to starting a run and is surfaced to the operator.
var ErrSessionStart = errors.New("browser session could not be started")

// ErrNoElement indicates a selector matched nothing on the current page.
var ErrNoElement = errors.New("no element matches selector")

// Driver exposes the session lifecycle, element queries (via DOM snapshots)
// and the interaction primitives the answer engine needs. Implementations
// are not safe for concurrent calls; the traversal loop confines all calls
// to its single worker goroutine.
type Driver interface {
	// Navigate loads the given URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// PageSource returns a snapshot of the current DOM as HTML. The engine
	// parses it with htmlquery and addresses elements by generated XPath.
	PageSource(ctx context.Context) (io.Reader, error)

	// Click performs a direct click on the element.
	Click(ctx context.Context, xpath string) error

	// PointerClick moves a simulated pointer to the element and clicks,
	// the second rung of the click-robustness ladder.
	PointerClick(ctx context.Context, xpath string) error

	// ScrollIntoView brings the element into the viewport.
	ScrollIntoView(ctx context.Context, xpath string) error

	// DispatchClickEvents fires a synthetic mouseover, mousemove,
	// mousedown, mouseup, click sequence directly at the element. Some
	// frameworks only react to native-like event sequences.
	DispatchClickEvents(ctx context.Context, xpath string) error

	// TypeText types text into the element.
	TypeText(ctx context.Context, xpath, text string) error

	// Clear empties a text control. Best-effort; callers treat failure as
	// non-fatal.
	Clear(ctx context.Context, xpath string) error

	// SelectOption selects the option with the given value (or visible
	// text) inside a select element. For multi-selects the selection is
	// additive.
	SelectOption(ctx context.Context, xpath, value string) error

	// Close releases the session and its resources.
	Close(ctx context.Context) error
}
