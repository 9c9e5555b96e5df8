package bot

import (
	"context"
	"io"
	"strings"
	"sync"
)

// mockDriver is a scriptable browser.Driver for exercising the click
// ladder and the traversal loop without a real session.
type mockDriver struct {
	mu    sync.Mutex
	calls []string

	source     string
	sourceErr  error
	navErr     error
	clickErr   error
	pointerErr error
	scrollErr  error
	eventsErr  error
	typeErr    error
	clearErr   error
	selectErr  error
	closeErr   error
}

func (m *mockDriver) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockDriver) callCount(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (m *mockDriver) Navigate(ctx context.Context, url string) error {
	m.record("navigate:" + url)
	return m.navErr
}

func (m *mockDriver) PageSource(ctx context.Context) (io.Reader, error) {
	m.record("source")
	if m.sourceErr != nil {
		return nil, m.sourceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.NewReader(m.source), nil
}

func (m *mockDriver) Click(ctx context.Context, xpath string) error {
	m.record("click:" + xpath)
	return m.clickErr
}

func (m *mockDriver) PointerClick(ctx context.Context, xpath string) error {
	m.record("pointer:" + xpath)
	return m.pointerErr
}

func (m *mockDriver) ScrollIntoView(ctx context.Context, xpath string) error {
	m.record("scroll:" + xpath)
	return m.scrollErr
}

func (m *mockDriver) DispatchClickEvents(ctx context.Context, xpath string) error {
	m.record("events:" + xpath)
	return m.eventsErr
}

func (m *mockDriver) TypeText(ctx context.Context, xpath, text string) error {
	m.record("type:" + xpath + "=" + text)
	return m.typeErr
}

func (m *mockDriver) Clear(ctx context.Context, xpath string) error {
	m.record("clear:" + xpath)
	return m.clearErr
}

func (m *mockDriver) SelectOption(ctx context.Context, xpath, value string) error {
	m.record("select:" + xpath + "=" + value)
	return m.selectErr
}

func (m *mockDriver) Close(ctx context.Context) error {
	m.record("close")
	return m.closeErr
}
