package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMUX_LOCALNOTIFY_CONFIG_DIR", filepath.Join(dir, "config"))
	t.Setenv("TMUX_LOCALNOTIFY_STATE_DIR", filepath.Join(dir, "state"))

	var got []string
	code := run([]string{"version"}, func(args []string) error {
		got = args
		return nil
	})
	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"version"}, got)

	code = run(nil, func([]string) error { return errors.New("bad flag") })
	assert.Equal(t, 1, code)
}
