package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
	"github.com/cristianoliveira/tmux-localnotify/internal/config"
	"github.com/stretchr/testify/require"
)

func setupTest(t *testing.T) string {
	tmp := t.TempDir()
	t.Setenv("XDG_STATE_HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("HOME", tmp)
	config.Load()
	return tmp
}

func TestConfigFromGlobal(t *testing.T) {
	setupTest(t)

	t.Setenv("TMUX_LOCALNOTIFY_LOGGING_ENABLED", "true")
	t.Setenv("TMUX_LOCALNOTIFY_LOGGING_LEVEL", "warn")
	t.Setenv("TMUX_LOCALNOTIFY_LOGGING_MAX_BACKUPS", "5")
	config.Load()

	cfg := FromGlobalConfig()
	require.True(t, cfg.Enabled)
	require.Equal(t, "warn", cfg.Level)
	require.Equal(t, 5, cfg.MaxBackups)
	require.Equal(t, 10, cfg.MaxSizeMB)
	require.Equal(t, filepath.Base(os.Args[0]), cfg.Command)
	require.Equal(t, os.Getpid(), cfg.PID)
}

func TestDebugOverridesLevel(t *testing.T) {
	setupTest(t)

	t.Setenv("TMUX_LOCALNOTIFY_DEBUG", "true")
	t.Setenv("TMUX_LOCALNOTIFY_LOGGING_LEVEL", "error")
	config.Load()
	require.Equal(t, "debug", FromGlobalConfig().Level)
}

func TestLogDir(t *testing.T) {
	tmp := setupTest(t)

	dir, err := LogDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "tmux-localnotify", "logs"), dir)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestInitDisabled(t *testing.T) {
	setupTest(t)

	l, err := Init(Config{Enabled: false})
	require.NoError(t, err)
	_, ok := l.(noopLogger)
	require.True(t, ok)
	l.Info("dropped")
	require.NoError(t, l.Shutdown())
}

func TestInitEnabledWritesJSONFile(t *testing.T) {
	tmp := setupTest(t)

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Level = "debug"
	l, err := Init(cfg)
	require.NoError(t, err)

	l.Debug("scheduled", "id", 42)
	l.Info("fired", "id", 42, "occurrence", 1)
	require.NoError(t, l.Shutdown())

	path := filepath.Join(tmp, "tmux-localnotify", "logs", FileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	require.Equal(t, "fired", entry["msg"])
	require.Equal(t, "info", entry["level"])
	require.EqualValues(t, 42, entry["id"])
	require.EqualValues(t, os.Getpid(), entry["pid"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
}

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info")

	l.Info("notification", "id", 7, "content", "meet at noon", "api_token", "abc", "content_title", "x")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "[REDACTED]", entry["content"])
	require.Equal(t, "[REDACTED]", entry["api_token"])
	require.Equal(t, "[REDACTED]", entry["content_title"])
	require.EqualValues(t, 7, entry["id"])
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info")
	child := base.With("component", "store")

	child.Info("opened")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "store", entry["component"])

	buf.Reset()
	base.Info("plain")
	require.NotContains(t, buf.String(), "component")
}

func TestGlobalLogger(t *testing.T) {
	setupTest(t)
	t.Cleanup(func() { _ = ShutdownGlobal() })

	_, ok := GetGlobal().(noopLogger)
	require.True(t, ok)
	require.Empty(t, CurrentLogFile())

	t.Setenv("TMUX_LOCALNOTIFY_LOGGING_ENABLED", "true")
	config.Load()
	require.NoError(t, InitGlobal())
	require.NotEmpty(t, CurrentLogFile())
	require.Equal(t, FileName, filepath.Base(CurrentLogFile()))

	With("k", "v").Info("through global")
	require.NoError(t, ShutdownGlobal())
	_, ok = GetGlobal().(noopLogger)
	require.True(t, ok)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]clog.Level{
		"debug":   clog.DebugLevel,
		"INFO":    clog.InfoLevel,
		"warning": clog.WarnLevel,
		"error":   clog.ErrorLevel,
		"bogus":   clog.InfoLevel,
	}
	for in, want := range tests {
		require.Equal(t, want, parseLevel(in), in)
	}
}
