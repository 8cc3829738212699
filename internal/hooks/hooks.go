// Package hooks runs user scripts on notification lifecycle events.
//
// Scripts live in <hooks_dir>/<event>/ and run in lexical order. Each gets
// the event data in its environment:
//
//	NOTIFICATION_ID  EVENT  STATE  TRIGGER_AT  CONTENT  HOOK_POINT  HOOK_TIMESTAMP
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/config"
	"github.com/cristianoliveira/tmux-localnotify/internal/logging"
)

// Lifecycle event names.
const (
	EventSchedule = "schedule"
	EventUpdate   = "update"
	EventTrigger  = "trigger"
	EventClear    = "clear"
	EventCancel   = "cancel"
	EventClearAll = "clearall"
)

// Event describes one lifecycle transition.
type Event struct {
	Name      string
	ID        int32
	State     string
	TriggerAt int64
	Content   json.RawMessage
}

// Env returns the environment variables a hook script receives.
func (e Event) Env() map[string]string {
	env := map[string]string{
		"EVENT":          e.Name,
		"HOOK_POINT":     e.Name,
		"HOOK_TIMESTAMP": time.Now().Format(time.RFC3339),
	}
	if e.ID != 0 {
		env["NOTIFICATION_ID"] = strconv.FormatInt(int64(e.ID), 10)
	}
	if e.State != "" {
		env["STATE"] = e.State
	}
	if e.TriggerAt != 0 {
		env["TRIGGER_AT"] = strconv.FormatInt(e.TriggerAt, 10)
	}
	if len(e.Content) > 0 {
		env["CONTENT"] = string(e.Content)
	}
	return env
}

// Config controls the runner.
type Config struct {
	Enabled  bool
	Dir      string
	Timeout  time.Duration
	Async    bool
	MaxAsync int
}

// FromGlobalConfig builds a Config from the global configuration.
func FromGlobalConfig() Config {
	return Config{
		Enabled:  config.GetBool("hooks_enabled", true),
		Dir:      config.Get("hooks_dir", ""),
		Timeout:  config.GetDuration("hooks_timeout", 10*time.Second),
		Async:    config.GetBool("hooks_async", false),
		MaxAsync: config.GetInt("hooks_max_async", 10),
	}
}

// Runner executes hook scripts. Failures never propagate to the caller.
type Runner struct {
	cfg Config
	log logging.Logger

	pending sync.WaitGroup
	slots   chan struct{}
}

// New creates a Runner.
func New(cfg Config, log logging.Logger) *Runner {
	if log == nil {
		log = logging.Noop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAsync <= 0 {
		cfg.MaxAsync = 10
	}
	return &Runner{
		cfg:   cfg,
		log:   log.With("component", "hooks"),
		slots: make(chan struct{}, cfg.MaxAsync),
	}
}

// Emit runs every executable script registered for the event.
func (r *Runner) Emit(ctx context.Context, ev Event) {
	if r == nil || !r.cfg.Enabled || r.cfg.Dir == "" {
		return
	}
	scripts := r.scripts(ev.Name)
	if len(scripts) == 0 {
		return
	}
	env := os.Environ()
	for k, v := range ev.Env() {
		env = append(env, k+"="+v)
	}
	if exe, err := os.Executable(); err == nil {
		env = append(env, config.EnvPrefix+"BINARY="+exe)
	}

	r.log.Debug("running hooks", "event", ev.Name, "id", ev.ID, "scripts", len(scripts))
	for _, script := range scripts {
		if !r.cfg.Async {
			r.run(ctx, script, env)
			continue
		}
		select {
		case r.slots <- struct{}{}:
		default:
			r.log.Warn("too many async hooks pending, skipping", "script", filepath.Base(script), "max", r.cfg.MaxAsync)
			continue
		}
		r.pending.Add(1)
		go func(script string) {
			defer func() {
				<-r.slots
				r.pending.Done()
			}()
			r.run(context.WithoutCancel(ctx), script, env)
		}(script)
	}
}

// Wait blocks until every asynchronous hook finished.
func (r *Runner) Wait() {
	if r != nil {
		r.pending.Wait()
	}
}

func (r *Runner) scripts(event string) []string {
	dir := filepath.Join(r.cfg.Dir, event)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var scripts []string
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		path := filepath.Join(dir, f.Name())
		info, err := os.Stat(path)
		if err != nil || info.Mode()&0111 == 0 {
			continue
		}
		scripts = append(scripts, path)
	}
	sort.Strings(scripts)
	return scripts
}

func (r *Runner) run(ctx context.Context, script string, env []string) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, script)
	cmd.Env = env
	cmd.WaitDelay = time.Second
	output, err := cmd.CombinedOutput()
	name := filepath.Base(script)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %s: %w", r.cfg.Timeout, err)
		}
		r.log.Warn("hook failed", "script", name, "error", err.Error(), "output", string(output))
		return
	}
	r.log.Debug("hook completed", "script", name, "duration_seconds", time.Since(start).Seconds())
}
