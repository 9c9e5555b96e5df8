// File: internal/bot/radios.go
package bot

import (
	"context"

	"go.uber.org/zap"
)

// FillRadios answers every unanswered single-choice group on the page.
// Returns the number of clicks committed.
func (f *Filler) FillRadios(ctx context.Context, page *Page) int {
	radios := page.Find("//input[@type='radio']")
	if len(radios) == 0 {
		return 0
	}

	commits := 0
	for _, group := range groupControls(page, radios) {
		if !f.running() {
			return commits
		}
		if len(group.options) == 0 {
			continue
		}
		if groupAnswered(group) {
			continue
		}

		answer, err := f.answerFor(group.question, group.labels())
		if err != nil {
			f.logger.Warn("Skipping radio group", zap.String("group", group.key), zap.Error(err))
			continue
		}

		idx := matchOption(group.options, answer)
		if idx < 0 {
			// No label matched the synthesized answer; any option is as
			// plausible as another at that point.
			idx = f.synth.PickOption(len(group.options))
		}

		target := group.options[idx]
		if f.clicker.Click(ctx, UniqueXPath(target.node)) {
			commits++
			f.logger.Info("Answered single-choice question",
				zap.String("question", truncate(group.question, 60)),
				zap.String("choice", target.label))
		}
		if !f.pause() {
			return commits
		}
	}
	return commits
}

// groupAnswered reports whether any option in the group already carries a
// selection.
func groupAnswered(group *questionGroup) bool {
	for _, opt := range group.options {
		if isChecked(opt.node) {
			return true
		}
	}
	return false
}
