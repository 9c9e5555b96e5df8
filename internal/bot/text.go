// File: internal/bot/text.go
package bot

import (
	"context"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
)

const textInputXPath = "//input[not(@type) or @type='text' or @type='search' or @type='email' or @type='number' or @type='tel']"

// FillTexts writes answers into empty single-line text fields. Fields that
// already hold text are left alone.
func (f *Filler) FillTexts(ctx context.Context, page *Page) int {
	commits := 0
	for _, node := range page.Find(textInputXPath) {
		if !f.running() {
			return commits
		}
		if strings.TrimSpace(htmlquery.SelectAttr(node, "value")) != "" {
			continue
		}

		question := fieldQuestion(page, node)
		answer, err := f.answerFor(question, nil)
		if err != nil {
			f.logger.Warn("Skipping text field", zap.String("question", question), zap.Error(err))
			continue
		}

		if f.writeText(ctx, UniqueXPath(node), answer) {
			commits++
			f.logger.Info("Filled text field",
				zap.String("question", truncate(question, 60)),
				zap.String("answer", truncate(answer, 60)))
		}
		if !f.pause() {
			return commits
		}
	}
	return commits
}

// FillTextareas writes answers into empty multi-line fields. The same label
// derivation applies; opinion-cue questions draw from the profile's long
// answer pool through the usual classification path.
func (f *Filler) FillTextareas(ctx context.Context, page *Page) int {
	commits := 0
	for _, node := range page.Find("//textarea") {
		if !f.running() {
			return commits
		}
		if strings.TrimSpace(htmlquery.InnerText(node)) != "" {
			continue
		}

		question := fieldQuestion(page, node)
		answer, err := f.answerFor(question, nil)
		if err != nil {
			f.logger.Warn("Skipping textarea", zap.String("question", question), zap.Error(err))
			continue
		}

		if f.writeText(ctx, UniqueXPath(node), answer) {
			commits++
			f.logger.Info("Filled textarea",
				zap.String("question", truncate(question, 60)),
				zap.String("answer", truncate(answer, 60)))
		}
		if !f.pause() {
			return commits
		}
	}
	return commits
}
