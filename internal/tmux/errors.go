package tmux

import "errors"

// Custom error types for tmux-specific failures.
var (
	// ErrTmuxNotRunning is returned when tmux server is not available.
	ErrTmuxNotRunning = errors.New("tmux server is not running")

	// ErrInvalidTarget is returned when an option name is not a user option.
	ErrInvalidTarget = errors.New("invalid tmux target specification")

	// ErrTmuxCommandFailed is returned when a tmux command execution fails.
	ErrTmuxCommandFailed = errors.New("tmux command failed")
)
