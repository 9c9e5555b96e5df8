// File: internal/bot/selects.go
package bot

import (
	"context"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// FillSelects answers dropdowns and multi-selects. Plain dropdowns get one
// classified answer; multi-selects get a random subset of candidates, each
// committed individually with pacing in between.
func (f *Filler) FillSelects(ctx context.Context, page *Page) int {
	commits := 0
	for _, sel := range page.Find("//select") {
		if !f.running() {
			return commits
		}

		options := selectableOptions(sel)
		if len(options) == 0 {
			continue
		}
		xpath := UniqueXPath(sel)

		if htmlquery.SelectAttr(sel, "multiple") != "" {
			n := f.fillMultiSelect(ctx, page, sel, xpath, options)
			commits += n
			if !f.running() {
				return commits
			}
			continue
		}

		if selectAnswered(options) {
			continue
		}

		question := fieldQuestion(page, sel)
		answer, err := f.answerFor(question, optionLabels(options))
		if err != nil {
			f.logger.Warn("Skipping dropdown", zap.String("question", question), zap.Error(err))
			continue
		}

		idx := matchSelectOption(options, answer)
		if idx < 0 {
			idx = f.synth.PickOption(len(options))
		}
		chosen := options[idx]

		if err := f.driver.SelectOption(ctx, xpath, chosen.value); err != nil {
			f.logger.Warn("Failed to select dropdown option",
				zap.String("xpath", xpath), zap.String("value", chosen.value), zap.Error(err))
		} else {
			commits++
			f.logger.Info("Answered dropdown",
				zap.String("question", truncate(question, 60)),
				zap.String("choice", chosen.label))
		}
		if !f.pause() {
			return commits
		}
	}
	return commits
}

func (f *Filler) fillMultiSelect(ctx context.Context, page *Page, sel *html.Node, xpath string, options []selectOption) int {
	var candidates []selectOption
	for _, opt := range options {
		if !opt.selected {
			candidates = append(candidates, opt)
		}
	}
	if len(candidates) == 0 {
		return 0
	}

	question := fieldQuestion(page, sel)
	want := f.synth.PickCount(len(candidates))
	commits := 0
	picked := 0
	for _, idx := range f.synth.Shuffle(len(candidates)) {
		if picked >= want {
			break
		}
		chosen := candidates[idx]
		if err := f.driver.SelectOption(ctx, xpath, chosen.value); err != nil {
			f.logger.Warn("Failed to select multi-select option",
				zap.String("xpath", xpath), zap.String("value", chosen.value), zap.Error(err))
		} else {
			commits++
			picked++
			f.logger.Info("Selected multi-select option",
				zap.String("question", truncate(question, 60)),
				zap.String("choice", chosen.label))
		}
		if !f.pause() {
			return commits
		}
	}
	return commits
}

type selectOption struct {
	label    string
	value    string
	selected bool
}

// selectableOptions filters a select's options to those carrying a
// non-empty value or label, dropping "please choose" style placeholders
// with neither.
func selectableOptions(sel *html.Node) []selectOption {
	var out []selectOption
	for _, opt := range htmlquery.Find(sel, ".//option") {
		label := collapseSpace(htmlquery.InnerText(opt))
		value := strings.TrimSpace(htmlquery.SelectAttr(opt, "value"))
		if label == "" && value == "" {
			continue
		}
		if value == "" {
			value = label
		}
		out = append(out, selectOption{label: label, value: value, selected: isSelected(opt)})
	}
	return out
}

func optionLabels(options []selectOption) []string {
	labels := make([]string, len(options))
	for i, opt := range options {
		labels[i] = opt.label
	}
	return labels
}

func matchSelectOption(options []selectOption, answer string) int {
	answer = strings.TrimSpace(answer)
	for i, opt := range options {
		if strings.EqualFold(opt.label, answer) || strings.EqualFold(opt.value, answer) {
			return i
		}
	}
	return -1
}

func selectAnswered(options []selectOption) bool {
	for _, opt := range options {
		if opt.selected {
			return true
		}
	}
	return false
}
