// File: internal/browser/lite/lite.go
// An in-process HTML session engine implementing browser.Driver without a
// real browser. It drives pages over plain HTTP, keeps a mutable DOM
// snapshot, and models the click consequences the answer engine relies on:
// radio/checkbox state, select options, form submission and link
// navigation. Used by the test suite and by --driver=lite dry runs.
package lite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/karavolt/surveyor-cli/internal/browser"
	"github.com/karavolt/surveyor-cli/internal/config"
)

// Session is the lite driver. It implements browser.Driver.
type Session struct {
	id     string
	logger *zap.Logger
	client *http.Client
	ua     string

	mu         sync.Mutex
	currentURL *url.URL
	currentDOM *html.Node
	trace      []string
}

var _ browser.Driver = (*Session)(nil)

// New creates a lite session with its own cookie jar.
func New(cfg config.NetworkConfig, logger *zap.Logger) *Session {
	jar, _ := cookiejar.New(nil)
	sessionID := uuid.New().String()
	timeout := cfg.NavigationTimeout
	return &Session{
		id:     sessionID,
		logger: logger.With(zap.String("session_id", sessionID), zap.String("driver", "lite")),
		client: &http.Client{Jar: jar, Timeout: timeout},
		ua:     cfg.UserAgent,
	}
}

// Navigate loads the URL and replaces the session DOM.
func (s *Session) Navigate(ctx context.Context, target string) error {
	resolved, err := s.resolveURL(target)
	if err != nil {
		return fmt.Errorf("failed to resolve URL %q: %w", target, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.String(), nil)
	if err != nil {
		return err
	}
	s.prepareHeaders(req)

	s.logger.Debug("Navigating", zap.String("url", resolved.String()))
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return s.consumeResponse(resp)
}

// PageSource renders the current DOM snapshot.
func (s *Session) PageSource(ctx context.Context) (io.Reader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentDOM == nil {
		return strings.NewReader("<html><head></head><body></body></html>"), nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, s.currentDOM); err != nil {
		return nil, fmt.Errorf("failed to render DOM snapshot: %w", err)
	}
	return &buf, nil
}

// Click applies the click consequence for the matched element.
func (s *Session) Click(ctx context.Context, xpath string) error {
	s.record("click " + xpath)
	return s.clickConsequence(ctx, xpath)
}

// PointerClick behaves like Click; the lite engine has no pointer model.
func (s *Session) PointerClick(ctx context.Context, xpath string) error {
	s.record("pointer-click " + xpath)
	return s.clickConsequence(ctx, xpath)
}

// ScrollIntoView is a no-op without a layout engine. It still validates the
// selector so the escalation ladder observes missing elements.
func (s *Session) ScrollIntoView(ctx context.Context, xpath string) error {
	_, err := s.findNode(xpath)
	return err
}

// DispatchClickEvents fires the synthetic sequence: in the lite engine the
// DOM consequence is identical to a click.
func (s *Session) DispatchClickEvents(ctx context.Context, xpath string) error {
	s.record("dispatch-events " + xpath)
	return s.clickConsequence(ctx, xpath)
}

// TypeText writes text into an input or textarea.
func (s *Session) TypeText(ctx context.Context, xpath, text string) error {
	node, err := s.findNode(xpath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch strings.ToLower(node.Data) {
	case "textarea":
		removeChildren(node)
		node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	case "input":
		setAttr(node, "value", text)
	default:
		// role=textbox and contenteditable carriers keep their text inline.
		removeChildren(node)
		node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	s.trace = append(s.trace, fmt.Sprintf("type %s %q", xpath, text))
	return nil
}

// Clear empties a text control.
func (s *Session) Clear(ctx context.Context, xpath string) error {
	node, err := s.findNode(xpath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.ToLower(node.Data) == "input" {
		removeAttr(node, "value")
	} else {
		removeChildren(node)
	}
	return nil
}

// SelectOption marks the option with the given value (or visible text) as
// selected. Non-multiple selects are exclusive; multi-selects accumulate.
func (s *Session) SelectOption(ctx context.Context, xpath, value string) error {
	node, err := s.findNode(xpath)
	if err != nil {
		return err
	}
	if strings.ToLower(node.Data) != "select" {
		return fmt.Errorf("element %q is not a select", xpath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	multiple := htmlquery.SelectAttr(node, "multiple") != ""
	options := htmlquery.Find(node, ".//option")
	found := false
	for _, opt := range options {
		optValue := htmlquery.SelectAttr(opt, "value")
		if optValue == "" {
			optValue = strings.TrimSpace(htmlquery.InnerText(opt))
		}
		if strings.EqualFold(optValue, value) {
			setAttr(opt, "selected", "selected")
			found = true
		} else if !multiple {
			removeAttr(opt, "selected")
		}
	}
	if !found {
		return fmt.Errorf("option %q not found in select %q: %w", value, xpath, browser.ErrNoElement)
	}
	s.trace = append(s.trace, fmt.Sprintf("select %s %q", xpath, value))
	return nil
}

// Close releases the HTTP client resources.
func (s *Session) Close(ctx context.Context) error {
	s.logger.Debug("Closing lite session")
	s.client.CloseIdleConnections()
	return nil
}

// Trace returns the interactions performed so far, oldest first.
func (s *Session) Trace() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.trace))
	copy(out, s.trace)
	return out
}

// -- click consequences --

func (s *Session) clickConsequence(ctx context.Context, xpath string) error {
	node, err := s.findNode(xpath)
	if err != nil {
		return err
	}

	tag := strings.ToLower(node.Data)
	inputType := strings.ToLower(htmlquery.SelectAttr(node, "type"))

	if tag == "a" {
		href := htmlquery.SelectAttr(node, "href")
		if href != "" && !strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return s.Navigate(ctx, href)
		}
		return nil
	}

	isSubmit := (tag == "button" && (inputType == "submit" || inputType == "")) ||
		(tag == "input" && inputType == "submit")
	if isSubmit {
		if form := ancestorForm(node); form != nil {
			return s.submitForm(ctx, form)
		}
		return nil
	}

	switch {
	case tag == "input" && inputType == "checkbox":
		s.mu.Lock()
		if htmlquery.SelectAttr(node, "checked") != "" {
			removeAttr(node, "checked")
		} else {
			setAttr(node, "checked", "checked")
		}
		s.mu.Unlock()
	case tag == "input" && inputType == "radio":
		s.selectRadio(node)
	case tag == "option":
		s.mu.Lock()
		setAttr(node, "selected", "selected")
		s.mu.Unlock()
	default:
		// No navigation or state change to model.
		s.logger.Debug("Click had no modeled consequence", zap.String("tag", tag))
	}
	return nil
}

// selectRadio checks the clicked radio and unchecks the rest of its group.
func (s *Session) selectRadio(node *html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := htmlquery.SelectAttr(node, "name")
	if name == "" {
		setAttr(node, "checked", "checked")
		return
	}
	root := ancestorForm(node)
	if root == nil {
		root = node
		for root.Parent != nil {
			root = root.Parent
		}
	}
	group := htmlquery.Find(root, fmt.Sprintf(".//input[@type='radio' and @name='%s']", name))
	for _, radio := range group {
		if radio == node {
			setAttr(radio, "checked", "checked")
		} else {
			removeAttr(radio, "checked")
		}
	}
}

// submitForm serializes the form per standard HTML rules and issues the
// request, replacing the session DOM with the response.
func (s *Session) submitForm(ctx context.Context, form *html.Node) error {
	action := htmlquery.SelectAttr(form, "action")
	method := strings.ToUpper(htmlquery.SelectAttr(form, "method"))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	target, err := s.resolveURL(action)
	if err != nil || target == nil {
		return fmt.Errorf("failed to determine form submission URL: %w", err)
	}

	s.mu.Lock()
	values := serializeForm(form)
	s.mu.Unlock()

	var req *http.Request
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, target.String(), strings.NewReader(values.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		withQuery := *target
		if withQuery.RawQuery == "" {
			withQuery.RawQuery = values.Encode()
		} else {
			withQuery.RawQuery += "&" + values.Encode()
		}
		req, err = http.NewRequestWithContext(ctx, method, withQuery.String(), nil)
		if err != nil {
			return err
		}
	}
	s.prepareHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("form submission failed: %w", err)
	}
	return s.consumeResponse(resp)
}

func serializeForm(form *html.Node) url.Values {
	values := url.Values{}
	controls := htmlquery.Find(form, ".//input | .//textarea | .//select")
	for _, control := range controls {
		name := htmlquery.SelectAttr(control, "name")
		if name == "" {
			continue
		}
		tag := strings.ToLower(control.Data)
		inputType := strings.ToLower(htmlquery.SelectAttr(control, "type"))

		switch tag {
		case "input":
			switch inputType {
			case "checkbox", "radio":
				if htmlquery.SelectAttr(control, "checked") != "" {
					value := htmlquery.SelectAttr(control, "value")
					if value == "" {
						value = "on"
					}
					values.Add(name, value)
				}
			case "submit", "button", "image", "reset", "file":
				// Not serialized.
			default:
				values.Add(name, htmlquery.SelectAttr(control, "value"))
			}
		case "textarea":
			values.Add(name, htmlquery.InnerText(control))
		case "select":
			for _, opt := range htmlquery.Find(control, ".//option[@selected]") {
				value := htmlquery.SelectAttr(opt, "value")
				if value == "" {
					value = strings.TrimSpace(htmlquery.InnerText(opt))
				}
				values.Add(name, value)
			}
		}
	}
	return values
}

// -- state helpers --

func (s *Session) consumeResponse(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		s.logger.Warn("Request resulted in error status",
			zap.Int("status", resp.StatusCode),
			zap.String("url", resp.Request.URL.String()))
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "text/html") {
		s.setState(resp.Request.URL, nil)
		return nil
	}

	doc, err := htmlquery.Parse(resp.Body)
	if err != nil {
		s.setState(resp.Request.URL, nil)
		return fmt.Errorf("failed to parse HTML from %q: %w", resp.Request.URL, err)
	}
	s.setState(resp.Request.URL, doc)
	return nil
}

func (s *Session) setState(u *url.URL, doc *html.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentURL = u
	s.currentDOM = doc
}

func (s *Session) resolveURL(target string) (*url.URL, error) {
	s.mu.Lock()
	base := s.currentURL
	s.mu.Unlock()

	parsed, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if parsed.IsAbs() {
		return parsed, nil
	}
	if base == nil {
		return nil, fmt.Errorf("cannot resolve relative URL %q without a base", target)
	}
	return base.ResolveReference(parsed), nil
}

func (s *Session) prepareHeaders(req *http.Request) {
	if s.ua != "" {
		req.Header.Set("User-Agent", s.ua)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	s.mu.Lock()
	if s.currentURL != nil {
		req.Header.Set("Referer", s.currentURL.String())
	}
	s.mu.Unlock()
}

func (s *Session) findNode(xpath string) (*html.Node, error) {
	s.mu.Lock()
	doc := s.currentDOM
	s.mu.Unlock()

	if doc == nil {
		return nil, fmt.Errorf("DOM is empty: %w", browser.ErrNoElement)
	}
	node, err := htmlquery.Query(doc, xpath)
	if err != nil {
		return nil, fmt.Errorf("invalid XPath %q: %w", xpath, err)
	}
	if node == nil {
		return nil, fmt.Errorf("%q: %w", xpath, browser.ErrNoElement)
	}
	return node, nil
}

func (s *Session) record(action string) {
	s.mu.Lock()
	s.trace = append(s.trace, action)
	s.mu.Unlock()
}

func ancestorForm(n *html.Node) *html.Node {
	for a := n.Parent; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && strings.ToLower(a.Data) == "form" {
			return a
		}
	}
	return nil
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

func removeAttr(n *html.Node, key string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func setAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
