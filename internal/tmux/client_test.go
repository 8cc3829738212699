package tmux

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTmux writes a shell script standing in for tmux. It appends its
// arguments to a log file and answers show-option from a state file.
func fakeTmux(t *testing.T, body string) (binary, logPath string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	dir := t.TempDir()
	logPath = filepath.Join(dir, "calls.log")
	binary = filepath.Join(dir, "tmux")
	script := "#!/bin/sh\necho \"$@\" >> " + logPath + "\n" + body + "\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, logPath
}

func calls(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestDefaultClientOptions(t *testing.T) {
	c := NewDefaultClient()
	assert.Equal(t, DefaultBinary, c.binary)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Empty(t, c.socketPath)

	c = NewDefaultClient(WithSocketPath("notify"), WithTimeout(time.Second), WithBinary("/bin/true"))
	assert.Equal(t, "notify", c.socketPath)
	assert.Equal(t, time.Second, c.timeout)
	assert.Equal(t, "/bin/true", c.binary)
}

func TestRunPassesSocketAndArgs(t *testing.T) {
	bin, logPath := fakeTmux(t, "echo ok")
	c := NewDefaultClient(WithBinary(bin), WithSocketPath("sock"))

	stdout, _, err := c.Run(context.Background(), "display-message", "hello world")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", stdout)
	assert.Equal(t, []string{"-L sock display-message hello world"}, calls(t, logPath))
}

func TestRunWrapsFailures(t *testing.T) {
	bin, _ := fakeTmux(t, "echo 'no server running' >&2; exit 1")
	c := NewDefaultClient(WithBinary(bin))

	_, stderr, err := c.Run(context.Background(), "list-sessions")
	require.ErrorIs(t, err, ErrTmuxCommandFailed)
	assert.Contains(t, stderr, "no server running")

	err = c.DisplayMessage(context.Background(), "x")
	require.ErrorIs(t, err, ErrTmuxCommandFailed)
	assert.Contains(t, err.Error(), "no server running")
}

func TestRunTimeout(t *testing.T) {
	bin, _ := fakeTmux(t, "exec sleep 5")
	c := NewDefaultClient(WithBinary(bin), WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, _, err := c.Run(context.Background(), "has-session")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestHasSession(t *testing.T) {
	bin, _ := fakeTmux(t, "exit 0")
	ok, err := NewDefaultClient(WithBinary(bin)).HasSession(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	bin, _ = fakeTmux(t, "exit 1")
	ok, err = NewDefaultClient(WithBinary(bin)).HasSession(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NewDefaultClient(WithBinary(filepath.Join(t.TempDir(), "missing"))).HasSession(context.Background())
	require.ErrorIs(t, err, ErrTmuxNotRunning)
	assert.False(t, ok)
}

func TestOptions(t *testing.T) {
	bin, logPath := fakeTmux(t, `case "$1" in show-option) [ "$3" = "@set" ] && echo 7 ;; esac; exit 0`)
	c := NewDefaultClient(WithBinary(bin))
	ctx := context.Background()

	require.NoError(t, c.SetOption(ctx, "@set", "7"))
	v, ok, err := c.GetOption(ctx, "@set")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7", v)

	_, ok, err = c.GetOption(ctx, "@unset")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.UnsetOption(ctx, "@set"))
	require.NoError(t, c.AppendOption(ctx, "@list", ",3"))
	require.NoError(t, c.SetOptionFormat(ctx, "@list", "#{@list}"))
	assert.Equal(t, []string{
		"set-option -gq @set 7",
		"show-option -gqv @set",
		"show-option -gqv @unset",
		"set-option -gqu @set",
		"set-option -gqa @list ,3",
		"set-option -gqF @list #{@list}",
	}, calls(t, logPath))
}

func TestOptionNamesMustBeUserOptions(t *testing.T) {
	c := NewDefaultClient(WithBinary("/nonexistent"))
	ctx := context.Background()

	require.ErrorIs(t, c.SetOption(ctx, "status-left", "x"), ErrInvalidTarget)
	_, _, err := c.GetOption(ctx, "@")
	require.ErrorIs(t, err, ErrInvalidTarget)
	require.ErrorIs(t, c.UnsetOption(ctx, "@bad name"), ErrInvalidTarget)
	require.ErrorIs(t, c.AppendOption(ctx, "status-right", "x"), ErrInvalidTarget)
	require.ErrorIs(t, c.SetOptionFormat(ctx, "@", "x"), ErrInvalidTarget)
}

func TestRealTmux(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if _, err := exec.Command("tmux", "has-session").CombinedOutput(); err != nil {
		t.Skip("tmux not running, skipping integration test")
	}
	c := NewDefaultClient()
	ctx := context.Background()

	require.NoError(t, c.SetOption(ctx, "@localnotify_test", "1"))
	v, ok, err := c.GetOption(ctx, "@localnotify_test")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	require.NoError(t, c.UnsetOption(ctx, "@localnotify_test"))
}
