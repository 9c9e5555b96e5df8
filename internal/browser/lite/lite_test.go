package lite_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karavolt/surveyor-cli/internal/browser"
	"github.com/karavolt/surveyor-cli/internal/browser/lite"
	"github.com/karavolt/surveyor-cli/internal/config"
)

func newSession(t *testing.T) *lite.Session {
	t.Helper()
	cfg := config.NetworkConfig{NavigationTimeout: 5 * time.Second}
	s := lite.New(cfg, zap.NewNop())
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func serve(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page)
	}))
	t.Cleanup(server.Close)
	return server
}

func render(t *testing.T, s *lite.Session) string {
	t.Helper()
	r, err := s.PageSource(context.Background())
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestNavigateAndPageSource(t *testing.T) {
	server := serve(t, map[string]string{
		"/": `<html><body><h1>Survey</h1></body></html>`,
	})
	s := newSession(t)

	require.NoError(t, s.Navigate(context.Background(), server.URL+"/"))
	assert.Contains(t, render(t, s), "Survey")
}

func TestRadioClickIsExclusive(t *testing.T) {
	server := serve(t, map[string]string{
		"/": `<html><body><form>
			<input id="a" type="radio" name="q" value="a" checked>
			<input id="b" type="radio" name="q" value="b">
		</form></body></html>`,
	})
	s := newSession(t)
	require.NoError(t, s.Navigate(context.Background(), server.URL+"/"))

	require.NoError(t, s.Click(context.Background(), `//*[@id='b']`))

	source := render(t, s)
	assert.NotRegexp(t, `id="a"[^>]*checked`, source)
	assert.Regexp(t, `id="b"[^>]*checked`, source)
}

func TestCheckboxClickToggles(t *testing.T) {
	server := serve(t, map[string]string{
		"/": `<html><body><input id="c" type="checkbox"></body></html>`,
	})
	s := newSession(t)
	require.NoError(t, s.Navigate(context.Background(), server.URL+"/"))

	require.NoError(t, s.Click(context.Background(), `//*[@id='c']`))
	assert.Regexp(t, `id="c"[^>]*checked`, render(t, s))

	require.NoError(t, s.Click(context.Background(), `//*[@id='c']`))
	assert.NotRegexp(t, `id="c"[^>]*checked`, render(t, s))
}

func TestTypeAndClear(t *testing.T) {
	server := serve(t, map[string]string{
		"/": `<html><body>
			<input id="f" type="text">
			<textarea id="ta"></textarea>
		</body></html>`,
	})
	s := newSession(t)
	require.NoError(t, s.Navigate(context.Background(), server.URL+"/"))

	require.NoError(t, s.TypeText(context.Background(), `//*[@id='f']`, "hello"))
	require.NoError(t, s.TypeText(context.Background(), `//*[@id='ta']`, "a longer comment"))

	source := render(t, s)
	assert.Regexp(t, `id="f"[^>]*value="hello"`, source)
	assert.Contains(t, source, "a longer comment")

	require.NoError(t, s.Clear(context.Background(), `//*[@id='f']`))
	require.NoError(t, s.Clear(context.Background(), `//*[@id='ta']`))

	source = render(t, s)
	assert.NotContains(t, source, "hello")
	assert.NotContains(t, source, "a longer comment")
}

func TestSelectOptionExclusive(t *testing.T) {
	server := serve(t, map[string]string{
		"/": `<html><body>
			<select id="s">
				<option value="tea" selected>Tea</option>
				<option value="coffee">Coffee</option>
			</select>
		</body></html>`,
	})
	s := newSession(t)
	require.NoError(t, s.Navigate(context.Background(), server.URL+"/"))

	require.NoError(t, s.SelectOption(context.Background(), `//*[@id='s']`, "coffee"))

	source := render(t, s)
	assert.Regexp(t, `value="coffee"[^>]*selected`, source)
	assert.NotRegexp(t, `value="tea"[^>]*selected`, source)

	err := s.SelectOption(context.Background(), `//*[@id='s']`, "juice")
	assert.ErrorIs(t, err, browser.ErrNoElement)
}

func TestFormSubmission(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `<html><body><form action="/done" method="post">
				<input type="text" name="answer" value="yes">
				<input type="radio" name="pick" value="a" checked>
				<input type="radio" name="pick" value="b">
				<button id="go" type="submit">Next</button>
			</form></body></html>`)
		case "/done":
			r.ParseForm()
			received = r.PostForm.Encode()
			fmt.Fprint(w, `<html><body><p>Finished</p></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	s := newSession(t)
	require.NoError(t, s.Navigate(context.Background(), server.URL+"/"))
	require.NoError(t, s.Click(context.Background(), `//*[@id='go']`))

	assert.Contains(t, received, "answer=yes")
	assert.Contains(t, received, "pick=a")
	assert.NotContains(t, received, "pick=b", "unchecked radios are not serialized")
	assert.Contains(t, render(t, s), "Finished")
}

func TestAnchorNavigation(t *testing.T) {
	server := serve(t, map[string]string{
		"/":      `<html><body><a id="link" href="/page2">Continue</a></body></html>`,
		"/page2": `<html><body><p>Second page</p></body></html>`,
	})
	s := newSession(t)
	require.NoError(t, s.Navigate(context.Background(), server.URL+"/"))

	require.NoError(t, s.Click(context.Background(), `//*[@id='link']`))
	assert.Contains(t, render(t, s), "Second page")
}

func TestMissingElement(t *testing.T) {
	server := serve(t, map[string]string{
		"/": `<html><body></body></html>`,
	})
	s := newSession(t)
	require.NoError(t, s.Navigate(context.Background(), server.URL+"/"))

	err := s.Click(context.Background(), `//*[@id='ghost']`)
	assert.ErrorIs(t, err, browser.ErrNoElement)

	err = s.TypeText(context.Background(), `//*[@id='ghost']`, "x")
	assert.ErrorIs(t, err, browser.ErrNoElement)
}

func TestTraceRecordsInteractions(t *testing.T) {
	server := serve(t, map[string]string{
		"/": `<html><body><input id="c" type="checkbox"></body></html>`,
	})
	s := newSession(t)
	require.NoError(t, s.Navigate(context.Background(), server.URL+"/"))

	require.NoError(t, s.Click(context.Background(), `//*[@id='c']`))
	require.NoError(t, s.DispatchClickEvents(context.Background(), `//*[@id='c']`))

	trace := s.Trace()
	require.Len(t, trace, 2)
	assert.True(t, strings.HasPrefix(trace[0], "click "))
	assert.True(t, strings.HasPrefix(trace[1], "dispatch-events "))
}
