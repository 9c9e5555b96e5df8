// File: internal/bot/errors.go
package bot

import "errors"

var (
	// ErrEmptyAnswerPool is returned when an answer is requested but both
	// the profile pool and the supplied options are empty. Profile
	// validation rejects this at load time, so hitting it at runtime means
	// a misconfigured profile slipped past the caller.
	ErrEmptyAnswerPool = errors.New("no candidate answers available")

	// ErrNotRunning is returned by control operations that require an
	// active worker.
	ErrNotRunning = errors.New("bot is not running")

	// ErrAlreadyStopped is returned when starting a bot whose worker has
	// already exited.
	ErrAlreadyStopped = errors.New("bot has been stopped")
)
