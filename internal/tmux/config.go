package tmux

import "time"

const (
	// DefaultTimeout is the default timeout for tmux commands.
	DefaultTimeout = 5 * time.Second
	// DefaultBinary is the tmux executable looked up in PATH.
	DefaultBinary = "tmux"
)

// ClientOption is a functional option for configuring a DefaultClient.
type ClientOption func(*DefaultClient)

// WithSocketPath sets the tmux socket name for the client.
func WithSocketPath(socketPath string) ClientOption {
	return func(c *DefaultClient) {
		c.socketPath = socketPath
	}
}

// WithTimeout sets the timeout for tmux command execution.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *DefaultClient) {
		c.timeout = timeout
	}
}

// WithBinary sets the tmux executable.
func WithBinary(path string) ClientOption {
	return func(c *DefaultClient) {
		c.binary = path
	}
}
