// File: internal/bot/checkboxes.go
package bot

import (
	"context"

	"go.uber.org/zap"
)

// FillCheckboxes answers multi-choice groups by ticking a random subset of
// the still-unselected candidates in each. Already-ticked boxes are never
// untick-ed, so re-running over a fully selected group commits nothing.
func (f *Filler) FillCheckboxes(ctx context.Context, page *Page) int {
	boxes := page.Find("//input[@type='checkbox']")
	if len(boxes) == 0 {
		return 0
	}

	commits := 0
	for _, group := range groupControls(page, boxes) {
		if !f.running() {
			return commits
		}

		var candidates []option
		for _, opt := range group.options {
			if !isChecked(opt.node) {
				candidates = append(candidates, opt)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		want := f.synth.PickCount(len(candidates))
		picked := 0
		for _, idx := range f.synth.Shuffle(len(candidates)) {
			if picked >= want {
				break
			}
			target := candidates[idx]
			if f.clicker.Click(ctx, UniqueXPath(target.node)) {
				commits++
				picked++
				f.logger.Info("Ticked checkbox",
					zap.String("question", truncate(group.question, 60)),
					zap.String("choice", target.label))
			}
			if !f.pause() {
				return commits
			}
		}
	}
	return commits
}
