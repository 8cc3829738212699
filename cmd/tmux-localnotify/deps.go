package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/config"
	"github.com/cristianoliveira/tmux-localnotify/internal/hooks"
	"github.com/cristianoliveira/tmux-localnotify/internal/logging"
	"github.com/cristianoliveira/tmux-localnotify/internal/manager"
	"github.com/cristianoliveira/tmux-localnotify/internal/notification"
	"github.com/cristianoliveira/tmux-localnotify/internal/options"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform/terminal"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform/timer"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform/tmuxsurface"
	"github.com/cristianoliveira/tmux-localnotify/internal/store"
	"github.com/cristianoliveira/tmux-localnotify/internal/store/factory"
	"github.com/cristianoliveira/tmux-localnotify/internal/tmux"
)

// record is what commands print for a notification.
type record struct {
	State   notification.State `json:"state"`
	Options options.Options    `json:"options"`
}

func toRecord(n *notification.Notification) record {
	return record{State: n.State(), Options: n.Options()}
}

func toRecords(ns []*notification.Notification) []record {
	out := make([]record, 0, len(ns))
	for _, n := range ns {
		out = append(out, toRecord(n))
	}
	return out
}

// runtime is a wired manager and the resources behind it.
type runtime struct {
	Manager *manager.Manager
	Timer   *timer.Registrar
	Hooks   *hooks.Runner
	backend store.Backend
}

// Close waits for pending hooks, stops timers and closes the backend.
func (r *runtime) Close() error {
	if r.Timer != nil {
		r.Timer.Stop()
	}
	r.Hooks.Wait()
	return r.backend.Close()
}

// openRuntimeFunc builds a runtime from the global configuration. A daemon
// runtime arms real timers; every other process defers arming to the daemon.
var openRuntimeFunc = openRuntime

func openRuntime(ctx context.Context, daemon bool) (*runtime, error) {
	log := logging.GetGlobal()

	backend, err := factory.NewFromDSN(ctx, config.Get("store_dsn", ""),
		factory.WithRedisRetry(config.GetInt("redis_retry_attempts", 3), time.Second),
		factory.WithRedisPrefix(config.Get("namespace", store.DefaultNamespace)),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	st := store.New(backend, config.Get("namespace", store.DefaultNamespace), log)

	surface, err := newSurface(config.Get("renderer", "tmux"))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	rt := &runtime{
		Hooks:   hooks.New(hooks.FromGlobalConfig(), log),
		backend: backend,
	}
	var registrar platform.Registrar = timer.Deferred{Log: log}
	if daemon {
		rt.Timer = timer.New()
		registrar = rt.Timer
	}

	rt.Manager, err = manager.New(ctx, manager.Deps{
		Store:       st,
		Registrar:   registrar,
		Renderer:    surface,
		Painter:     surface,
		Channels:    surface,
		ChannelID:   config.Get("channel_id", manager.DefaultChannelID),
		ChannelName: config.Get("channel_name", manager.DefaultChannelName),
		Events:      rt.Hooks,
		Log:         log,
	})
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}
	return rt, nil
}

// surface is everything the renderer adapters implement.
type surface interface {
	platform.Renderer
	platform.BadgePainter
	platform.ChannelProvider
}

func newSurface(kind string) (surface, error) {
	switch kind {
	case "terminal":
		return terminal.New(os.Stdout), nil
	case "tmux", "":
		client := tmux.NewDefaultClient(tmux.WithSocketPath(config.Get("tmux_socket", "")))
		return tmuxsurface.New(client, ""), nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", kind)
	}
}

// lazyClient opens the runtime on first use so that commands like version
// and help never touch the store or tmux.
type lazyClient struct {
	mu   sync.Mutex
	rt   *runtime
	open func(ctx context.Context, daemon bool) (*runtime, error)
}

func newLazyClient() *lazyClient {
	return &lazyClient{open: func(ctx context.Context, daemon bool) (*runtime, error) {
		return openRuntimeFunc(ctx, daemon)
	}}
}

func (c *lazyClient) manager(ctx context.Context) (*manager.Manager, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rt == nil {
		rt, err := c.open(ctx, false)
		if err != nil {
			return nil, err
		}
		c.rt = rt
	}
	return c.rt.Manager, nil
}

// Close releases the runtime if it was opened.
func (c *lazyClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rt == nil {
		return nil
	}
	err := c.rt.Close()
	c.rt = nil
	return err
}

func (c *lazyClient) Schedule(ctx context.Context, raw []byte) (record, error) {
	m, err := c.manager(ctx)
	if err != nil {
		return record{}, err
	}
	n, err := m.Schedule(ctx, raw, nil)
	if err != nil {
		return record{}, err
	}
	return toRecord(n), nil
}

func (c *lazyClient) Update(ctx context.Context, id int32, patch []byte) (record, error) {
	m, err := c.manager(ctx)
	if err != nil {
		return record{}, err
	}
	n, err := m.Update(ctx, id, patch, nil)
	if err != nil {
		return record{}, err
	}
	return toRecord(n), nil
}

func (c *lazyClient) Get(ctx context.Context, id int32) (record, bool, error) {
	m, err := c.manager(ctx)
	if err != nil {
		return record{}, false, err
	}
	n, ok := m.Get(ctx, id)
	if !ok {
		return record{}, false, nil
	}
	return toRecord(n), true, nil
}

func (c *lazyClient) List(ctx context.Context, state notification.State) ([]record, error) {
	m, err := c.manager(ctx)
	if err != nil {
		return nil, err
	}
	var ns []*notification.Notification
	if state == "" {
		ns, err = m.All(ctx)
	} else {
		ns, err = m.ByState(ctx, state)
	}
	if err != nil {
		return nil, err
	}
	return toRecords(ns), nil
}

func (c *lazyClient) Clear(ctx context.Context, id int32) (bool, error) {
	m, err := c.manager(ctx)
	if err != nil {
		return false, err
	}
	_, ok, err := m.Clear(ctx, id)
	return ok, err
}

func (c *lazyClient) Cancel(ctx context.Context, id int32) (bool, error) {
	m, err := c.manager(ctx)
	if err != nil {
		return false, err
	}
	_, ok, err := m.Cancel(ctx, id)
	return ok, err
}

func (c *lazyClient) ClearAll(ctx context.Context) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	return m.ClearAll(ctx)
}

func (c *lazyClient) CancelAll(ctx context.Context) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	return m.CancelAll(ctx)
}

func (c *lazyClient) Badge(ctx context.Context) (int, error) {
	m, err := c.manager(ctx)
	if err != nil {
		return 0, err
	}
	return m.Badge(ctx), nil
}

func (c *lazyClient) SetBadge(ctx context.Context, n int) error {
	m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	return m.SetBadge(ctx, n)
}

// appClient is shared by every command of this binary.
var appClient = newLazyClient()
