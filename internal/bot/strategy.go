// File: internal/bot/strategy.go
package bot

import "strings"

// AnswerStrategy identifies which synthesis rule applies to a question.
type AnswerStrategy int

const (
	// StrategyFreeform is the fallback when no cue keyword matches.
	StrategyFreeform AnswerStrategy = iota
	// StrategyYesNo covers agreement-style questions.
	StrategyYesNo
	// StrategyNumeric covers age and count questions.
	StrategyNumeric
	// StrategyFavorite covers preference questions with explicit options.
	StrategyFavorite
	// StrategyOpinion covers open commentary prompts.
	StrategyOpinion
)

func (s AnswerStrategy) String() string {
	switch s {
	case StrategyYesNo:
		return "yesno"
	case StrategyNumeric:
		return "numeric"
	case StrategyFavorite:
		return "favorite"
	case StrategyOpinion:
		return "opinion"
	default:
		return "freeform"
	}
}

// Cue keyword sets, tested as substrings of the lower-cased question text.
var (
	yesNoCues    = []string{"support", "agree", "do you", "should", "is it", "yes/no", "would you"}
	numericCues  = []string{"age", "years", "how many", "number of", "how old"}
	favoriteCues = []string{"favorite", "prefer", "which do you prefer"}
	opinionCues  = []string{"thoughts", "comments", "suggestions", "opinion", "ideas", "why", "explain"}
)

// Classify maps a question's text to an answer strategy. Precedence runs
// yes/no, numeric, favorite, opinion; the favorite strategy only applies
// when the question carries candidate options to pick from. Absence of any
// cue yields StrategyFreeform, so classification is total.
func Classify(questionText string, hasOptions bool) AnswerStrategy {
	text := strings.ToLower(questionText)

	if containsAny(text, yesNoCues) {
		return StrategyYesNo
	}
	if containsAny(text, numericCues) {
		return StrategyNumeric
	}
	if hasOptions && containsAny(text, favoriteCues) {
		return StrategyFavorite
	}
	if containsAny(text, opinionCues) {
		return StrategyOpinion
	}
	return StrategyFreeform
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}
