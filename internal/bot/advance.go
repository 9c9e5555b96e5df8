// File: internal/bot/advance.go
package bot

import (
	"context"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// progressionWords is the vocabulary of labels that move a survey forward.
// Matching is substring, case-insensitive, so "Submit Answers" still
// qualifies.
var progressionWords = []string{
	"next", "submit", "continue", "enter", "go", "ok", "agree",
	"confirm", "send", "complete", "finish", "proceed", "advance",
}

// Advancer finds and activates the page's progression control.
type Advancer struct {
	clicker *Clicker
	logger  *zap.Logger
}

func NewAdvancer(clicker *Clicker, logger *zap.Logger) *Advancer {
	return &Advancer{clicker: clicker, logger: logger}
}

// Advance searches for a progression control in three stages: buttons by
// visible text, submit inputs by value, then buttons nested inside forms.
// The first candidate that clicks successfully wins. False means the page
// is a dead end as far as automation can tell.
func (a *Advancer) Advance(ctx context.Context, page *Page) bool {
	for _, word := range progressionWords {
		xpath := "//button[contains(translate(normalize-space(.),'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'" + word + "')]"
		if a.clickFirst(ctx, page.Find(xpath), word, "button") {
			return true
		}
	}

	for _, word := range progressionWords {
		xpath := "//input[@type='submit' and contains(translate(@value,'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'" + word + "')]"
		if a.clickFirst(ctx, page.Find(xpath), word, "submit input") {
			return true
		}
	}

	for _, candidate := range page.Find("//form//button") {
		text := strings.ToLower(collapseSpace(htmlquery.InnerText(candidate)))
		if text == "" {
			continue
		}
		for _, word := range progressionWords {
			if strings.Contains(text, word) {
				if a.clicker.Click(ctx, UniqueXPath(candidate)) {
					a.logger.Info("Advanced via form button", zap.String("label", text))
					return true
				}
				break
			}
		}
	}

	a.logger.Info("No progression control found")
	return false
}

func (a *Advancer) clickFirst(ctx context.Context, candidates []*html.Node, word, kind string) bool {
	for _, candidate := range candidates {
		if a.clicker.Click(ctx, UniqueXPath(candidate)) {
			a.logger.Info("Advanced to next page",
				zap.String("matched", word), zap.String("via", kind))
			return true
		}
	}
	return false
}
