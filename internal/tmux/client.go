// Package tmux provides a thin client for the tmux commands used to surface
// notifications: status messages and global user options.
package tmux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/colors"
)

// Client is an interface that abstracts the tmux operations in use.
type Client interface {
	// HasSession checks if a tmux server with at least one session is running.
	HasSession(ctx context.Context) (bool, error)

	// DisplayMessage shows a message in the status line of attached clients.
	DisplayMessage(ctx context.Context, message string) error

	// SetOption sets a global option.
	SetOption(ctx context.Context, name, value string) error

	// GetOption returns a global option value and whether it is set.
	GetOption(ctx context.Context, name string) (string, bool, error)

	// UnsetOption removes a global option.
	UnsetOption(ctx context.Context, name string) error

	// AppendOption appends value to a global option inside the tmux server.
	AppendOption(ctx context.Context, name, value string) error

	// SetOptionFormat sets a global option to the expansion of a tmux format.
	// The expansion reads and writes the option in a single server command.
	SetOptionFormat(ctx context.Context, name, format string) error

	// Run executes a tmux command with the given arguments.
	Run(ctx context.Context, args ...string) (string, string, error)
}

// DefaultClient implements Client using exec.Command to run tmux.
type DefaultClient struct {
	binary     string
	socketPath string
	timeout    time.Duration
}

var _ Client = (*DefaultClient)(nil)

// NewDefaultClient creates a new DefaultClient with the given options.
func NewDefaultClient(opts ...ClientOption) *DefaultClient {
	client := &DefaultClient{
		binary:  DefaultBinary,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// runCommand executes a tmux command with the given arguments.
// It returns stdout, stderr, and any error that occurred.
func (c *DefaultClient) runCommand(ctx context.Context, args ...string) (string, string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmdArgs := []string{}
	if c.socketPath != "" {
		cmdArgs = append(cmdArgs, "-L", c.socketPath)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, c.binary, cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	colors.Debug(fmt.Sprintf("tmux %v took %s (err=%v)", args, time.Since(start), err))
	return stdout.String(), stderr.String(), err
}

// Run executes a tmux command with the given arguments.
// It returns stdout, stderr, and any error that occurred.
func (c *DefaultClient) Run(ctx context.Context, args ...string) (string, string, error) {
	stdout, stderr, err := c.runCommand(ctx, args...)
	if err != nil {
		return stdout, stderr, fmt.Errorf("%w: %v: %w", ErrTmuxCommandFailed, args, err)
	}
	return stdout, stderr, nil
}

// HasSession reports false without error when the server is not running.
func (c *DefaultClient) HasSession(ctx context.Context) (bool, error) {
	_, _, err := c.runCommand(ctx, "has-session")
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %w", ErrTmuxNotRunning, err)
}

func (c *DefaultClient) DisplayMessage(ctx context.Context, message string) error {
	if _, stderr, err := c.Run(ctx, "display-message", message); err != nil {
		return withStderr(err, stderr)
	}
	return nil
}

func (c *DefaultClient) SetOption(ctx context.Context, name, value string) error {
	if err := validateOptionName(name); err != nil {
		return err
	}
	if _, stderr, err := c.Run(ctx, "set-option", "-gq", name, value); err != nil {
		return withStderr(err, stderr)
	}
	return nil
}

// GetOption treats an empty value as unset; tmux prints nothing for unset
// user options when -q is given.
func (c *DefaultClient) GetOption(ctx context.Context, name string) (string, bool, error) {
	if err := validateOptionName(name); err != nil {
		return "", false, err
	}
	stdout, stderr, err := c.Run(ctx, "show-option", "-gqv", name)
	if err != nil {
		return "", false, withStderr(err, stderr)
	}
	value := strings.TrimRight(stdout, "\n")
	return value, value != "", nil
}

func (c *DefaultClient) UnsetOption(ctx context.Context, name string) error {
	if err := validateOptionName(name); err != nil {
		return err
	}
	if _, stderr, err := c.Run(ctx, "set-option", "-gqu", name); err != nil {
		return withStderr(err, stderr)
	}
	return nil
}

func (c *DefaultClient) AppendOption(ctx context.Context, name, value string) error {
	if err := validateOptionName(name); err != nil {
		return err
	}
	if _, stderr, err := c.Run(ctx, "set-option", "-gqa", name, value); err != nil {
		return withStderr(err, stderr)
	}
	return nil
}

func (c *DefaultClient) SetOptionFormat(ctx context.Context, name, format string) error {
	if err := validateOptionName(name); err != nil {
		return err
	}
	if _, stderr, err := c.Run(ctx, "set-option", "-gqF", name, format); err != nil {
		return withStderr(err, stderr)
	}
	return nil
}

func validateOptionName(name string) error {
	if !strings.HasPrefix(name, "@") || len(name) < 2 || strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("%w: option %q", ErrInvalidTarget, name)
	}
	return nil
}

func withStderr(err error, stderr string) error {
	if s := strings.TrimSpace(stderr); s != "" {
		return fmt.Errorf("%w: %s", err, s)
	}
	return err
}
