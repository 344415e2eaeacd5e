package console

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("console: aborted")
	// ErrNoProgress is returned when a step keeps failing validation past the
	// walker's attempt limit.
	ErrNoProgress = errors.New("console: step did not validate")
)
