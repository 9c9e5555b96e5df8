// File: internal/bot/challenge.go
package bot

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
)

// challengeProviders are substrings that identify verification widgets by
// their embedded frame source.
var challengeProviders = []string{"recaptcha", "hcaptcha", "geetest"}

// ChallengeDetector recognizes bot-verification challenges. It only
// detects; solving one is the operator's job. Inspection failures count as
// "not detected", an accepted risk: a flaky check must not stall an
// otherwise healthy run.
type ChallengeDetector struct {
	logger *zap.Logger
}

func NewChallengeDetector(logger *zap.Logger) *ChallengeDetector {
	return &ChallengeDetector{logger: logger}
}

// Detect reports whether the page shows a verification challenge: an
// embedded frame from a known provider, or any text node mentioning
// "captcha".
func (d *ChallengeDetector) Detect(page *Page) bool {
	for _, frame := range page.Find("//iframe") {
		src := strings.ToLower(htmlquery.SelectAttr(frame, "src"))
		for _, provider := range challengeProviders {
			if strings.Contains(src, provider) {
				d.logger.Warn("Challenge frame detected", zap.String("provider", provider))
				return true
			}
		}
	}

	nodes := page.Find("//*[contains(translate(text(),'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'captcha')]")
	if len(nodes) > 0 {
		d.logger.Warn("Challenge text marker detected")
		return true
	}
	return false
}
