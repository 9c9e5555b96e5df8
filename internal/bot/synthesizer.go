// File: internal/bot/synthesizer.go
package bot

import (
	"math/rand"
	"strconv"
	"time"
)

const (
	// yesBias models a mild agreement lean on yes/no questions.
	yesBias = 0.7
	ageMin  = 18
	ageMax  = 65
)

// Synthesizer turns a strategy plus candidate options into a concrete
// answer string. It is used only from the worker goroutine, so the embedded
// rng needs no locking.
type Synthesizer struct {
	rng *rand.Rand
}

// NewSynthesizer creates a synthesizer with a time-seeded rng.
func NewSynthesizer() *Synthesizer {
	return NewSynthesizerWithSeed(time.Now().UnixNano())
}

// NewSynthesizerWithSeed creates a synthesizer with a deterministic rng.
func NewSynthesizerWithSeed(seed int64) *Synthesizer {
	return &Synthesizer{rng: rand.New(rand.NewSource(seed))}
}

// Synthesize produces an answer for the strategy. Options, when non-empty,
// are the display labels of the question's selectable choices. The only
// failure mode is an empty candidate pool, which profile validation is
// supposed to have ruled out.
func (s *Synthesizer) Synthesize(strategy AnswerStrategy, options []string, profile *ResponseProfile) (string, error) {
	switch strategy {
	case StrategyYesNo:
		if s.rng.Float64() < yesBias {
			return "Yes", nil
		}
		return "No", nil

	case StrategyNumeric:
		age := ageMin + s.rng.Intn(ageMax-ageMin+1)
		return strconv.Itoa(age), nil

	case StrategyFavorite:
		if len(options) > 0 {
			return options[s.rng.Intn(len(options))], nil
		}
		return s.fromPool(profile.ShortAnswers, options)

	case StrategyOpinion:
		if s.rng.Float64() < 0.5 {
			if answer, err := s.fromPool(profile.LongAnswers, options); err == nil {
				return answer, nil
			}
		}
		return s.fromPool(profile.ShortAnswers, options)

	default:
		if len(options) > 0 {
			return options[s.rng.Intn(len(options))], nil
		}
		return s.fromPool(profile.ShortAnswers, options)
	}
}

// PickCount returns how many candidates a multi-choice commit should
// select: between 2 and min(5, n), clamped to n when fewer than two
// candidates remain.
func (s *Synthesizer) PickCount(candidates int) int {
	if candidates <= 0 {
		return 0
	}
	hi := candidates
	if hi > 5 {
		hi = 5
	}
	lo := 2
	if lo > hi {
		lo = hi
	}
	return lo + s.rng.Intn(hi-lo+1)
}

// Shuffle permutes indices 0..n-1 for random candidate draws.
func (s *Synthesizer) Shuffle(n int) []int {
	return s.rng.Perm(n)
}

// PickOption returns a uniformly chosen index into a non-empty option list.
func (s *Synthesizer) PickOption(n int) int {
	return s.rng.Intn(n)
}

func (s *Synthesizer) fromPool(pool, options []string) (string, error) {
	if len(pool) > 0 {
		return pool[s.rng.Intn(len(pool))], nil
	}
	if len(options) > 0 {
		return options[s.rng.Intn(len(options))], nil
	}
	return "", ErrEmptyAnswerPool
}
