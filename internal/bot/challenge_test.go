package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestChallengeDetector(t *testing.T) {
	d := NewChallengeDetector(zap.NewNop())

	tests := []struct {
		name     string
		source   string
		expected bool
	}{
		{
			"recaptcha frame",
			`<html><body><iframe src="https://www.google.com/recaptcha/api2/anchor"></iframe></body></html>`,
			true,
		},
		{
			"hcaptcha frame",
			`<html><body><iframe src="https://newassets.hcaptcha.com/captcha/v1"></iframe></body></html>`,
			true,
		},
		{
			"geetest frame",
			`<html><body><iframe src="//static.geetest.com/widget"></iframe></body></html>`,
			true,
		},
		{
			"captcha text marker",
			`<html><body><p>Please complete the CAPTCHA below to continue.</p></body></html>`,
			true,
		},
		{
			"benign iframe",
			`<html><body><iframe src="https://example.com/embed"></iframe></body></html>`,
			false,
		},
		{
			"plain survey page",
			`<html><body><form><input type="radio" name="q"></form></body></html>`,
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := parseTestPage(t, tt.source)
			assert.Equal(t, tt.expected, d.Detect(page))
		})
	}
}
