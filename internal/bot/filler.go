// File: internal/bot/filler.go
package bot

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/karavolt/surveyor-cli/internal/browser"

	"go.uber.org/zap"
)

// Filler runs the per-control-kind answering routines over a page
// snapshot. All methods execute on the worker goroutine; between discrete
// commits they pace and re-check the running probe, abandoning the rest of
// the pass the moment it clears. Partial progress is normal, not an error.
type Filler struct {
	driver  browser.Driver
	clicker *Clicker
	synth   *Synthesizer
	pacer   *Pacer
	logger  *zap.Logger
	running func() bool
	profile func() *ResponseProfile
}

// NewFiller wires the answering routines to their collaborators. The
// profile func is read fresh per question so operator profile swaps take
// effect mid-run.
func NewFiller(driver browser.Driver, clicker *Clicker, synth *Synthesizer, pacer *Pacer, running func() bool, profile func() *ResponseProfile, logger *zap.Logger) *Filler {
	return &Filler{
		driver:  driver,
		clicker: clicker,
		synth:   synth,
		pacer:   pacer,
		logger:  logger,
		running: running,
		profile: profile,
	}
}

// option pairs a concrete control with its display label.
type option struct {
	node  *html.Node
	label string
}

// questionGroup bundles the controls that form one logical question.
type questionGroup struct {
	key      string
	question string
	options  []option
}

// groupControls partitions controls into question groups by their nearest
// structural container, preserving first-seen order. Each group is handled
// at most once per pass.
func groupControls(page *Page, nodes []*html.Node) []*questionGroup {
	var order []string
	groups := make(map[string]*questionGroup)

	for _, n := range nodes {
		container := groupAncestor(n)
		key := groupKey(container)
		g, ok := groups[key]
		if !ok {
			g = &questionGroup{key: key, question: questionText(container)}
			groups[key] = g
			order = append(order, key)
		}
		g.options = append(g.options, option{node: n, label: labelText(page, n)})
	}

	out := make([]*questionGroup, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}

func (g *questionGroup) labels() []string {
	labels := make([]string, len(g.options))
	for i, opt := range g.options {
		labels[i] = opt.label
	}
	return labels
}

// matchOption finds the option whose label equals the answer, ignoring
// case. Returns -1 when nothing matches.
func matchOption(options []option, answer string) int {
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt.label), strings.TrimSpace(answer)) {
			return i
		}
	}
	return -1
}

// answerFor classifies the question and synthesizes an answer from the
// active profile.
func (f *Filler) answerFor(question string, labels []string) (string, error) {
	strategy := Classify(question, len(labels) > 0)
	answer, err := f.synth.Synthesize(strategy, labels, f.profile())
	if err != nil {
		return "", err
	}
	f.logger.Debug("Synthesized answer",
		zap.String("strategy", strategy.String()),
		zap.String("question", truncate(question, 80)),
		zap.String("answer", truncate(answer, 80)))
	return answer, nil
}

// pause paces between commits. A false return means the operator paused or
// stopped and the handler must bail out with its partial count.
func (f *Filler) pause() bool {
	return f.pacer.Pace()
}

func (f *Filler) writeText(ctx context.Context, xpath, text string) bool {
	// Best-effort clear; a field that resists clearing still gets typed
	// into.
	if err := f.driver.Clear(ctx, xpath); err != nil {
		f.logger.Debug("Failed to clear field", zap.String("xpath", xpath), zap.Error(err))
	}
	if err := f.driver.TypeText(ctx, xpath, text); err != nil {
		f.logger.Warn("Failed to type into field", zap.String("xpath", xpath), zap.Error(err))
		return false
	}
	return true
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
