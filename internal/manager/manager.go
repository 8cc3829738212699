// Package manager is the entry point of the notification lifecycle: it owns
// no state of its own and rebuilds notifications from the store on every call.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/badge"
	"github.com/cristianoliveira/tmux-localnotify/internal/hooks"
	"github.com/cristianoliveira/tmux-localnotify/internal/logging"
	"github.com/cristianoliveira/tmux-localnotify/internal/metrics"
	"github.com/cristianoliveira/tmux-localnotify/internal/notification"
	"github.com/cristianoliveira/tmux-localnotify/internal/options"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
	"github.com/cristianoliveira/tmux-localnotify/internal/store"
)

// Channel defaults.
const (
	DefaultChannelID   = "default-channel-id"
	DefaultChannelName = "Default channel"
)

var (
	// ErrNotFound indicates that no readable record exists for an id.
	ErrNotFound = errors.New("notification not found")
	// ErrMissingDependency indicates an incomplete Deps.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrChannelBootstrap indicates the delivery channel could not be ensured.
	ErrChannelBootstrap = errors.New("channel bootstrap failed")
)

// Deps are the collaborators of a Manager.
type Deps struct {
	Store     *store.Store
	Registrar platform.Registrar
	Renderer  platform.Renderer
	// Badge is built from Store's backend and Painter when nil.
	Badge   *badge.Counter
	Painter platform.BadgePainter
	// Channels is optional; without it the channel bootstrap is skipped.
	// A failing bootstrap only blocks scheduling until it succeeds.
	Channels    platform.ChannelProvider
	ChannelID   string
	ChannelName string
	Events      notification.EventSink
	Log         logging.Logger
	Now         func() time.Time
}

// Manager implements the notification lifecycle operations. It is safe for
// concurrent use.
type Manager struct {
	env *notification.Env
	log logging.Logger

	channels    platform.ChannelProvider
	channelID   string
	channelName string
	bootMu      sync.Mutex
	booted      bool
}

var _ platform.Receiver = (*Manager)(nil)

// New validates deps and runs the idempotent channel bootstrap. A bootstrap
// failure is logged and retried by the next Schedule or Update, so read-only
// operations work while the platform is unavailable.
func New(ctx context.Context, d Deps) (*Manager, error) {
	if d.Store == nil || d.Registrar == nil || d.Renderer == nil {
		return nil, fmt.Errorf("manager: %w: store, registrar and renderer are required", ErrMissingDependency)
	}
	if d.Badge == nil {
		if d.Painter == nil {
			return nil, fmt.Errorf("manager: %w: badge or painter is required", ErrMissingDependency)
		}
		d.Badge = badge.New(d.Store.Backend(), d.Store.Namespace(), d.Painter, d.Log)
	}
	if d.Log == nil {
		d.Log = logging.Noop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	m := &Manager{
		log:         d.Log.With("component", "manager"),
		channels:    d.Channels,
		channelID:   d.ChannelID,
		channelName: d.ChannelName,
	}
	if m.channelID == "" {
		m.channelID = DefaultChannelID
	}
	if m.channelName == "" {
		m.channelName = DefaultChannelName
	}
	m.env = &notification.Env{
		Store:     d.Store,
		Badge:     d.Badge,
		Registrar: d.Registrar,
		Renderer:  d.Renderer,
		Receiver:  m,
		Events:    d.Events,
		Locks:     notification.NewLocks(),
		Log:       d.Log.With("component", "notification"),
		Now:       d.Now,
	}

	if err := m.ensureChannel(ctx); err != nil {
		m.log.Warn("platform_failure", "collaborator", "channel", "op", "ensure", "error", err.Error())
	}
	return m, nil
}

// ensureChannel runs the channel bootstrap until it succeeds once.
func (m *Manager) ensureChannel(ctx context.Context) error {
	m.bootMu.Lock()
	defer m.bootMu.Unlock()
	if m.booted || m.channels == nil {
		return nil
	}
	created, err := m.channels.EnsureChannel(ctx, m.channelID, m.channelName)
	if err != nil {
		metrics.IncPlatformFailure("channel", "ensure")
		return fmt.Errorf("manager: %w: %w", ErrChannelBootstrap, err)
	}
	if created {
		m.log.Info("channel created", "channel", m.channelID)
	}
	m.booted = true
	return nil
}

// Schedule parses a request and schedules it. A nil receiver delivers the
// trigger to the manager itself.
func (m *Manager) Schedule(ctx context.Context, raw []byte, r platform.Receiver) (*notification.Notification, error) {
	opts, err := options.Parse(raw, m.env.Now())
	if err != nil {
		return nil, err
	}
	return m.ScheduleOptions(ctx, opts, r)
}

// ScheduleOptions schedules already validated options. It fails with
// ErrChannelBootstrap while the delivery channel cannot be ensured.
func (m *Manager) ScheduleOptions(ctx context.Context, opts options.Options, r platform.Receiver) (*notification.Notification, error) {
	if err := m.ensureChannel(ctx); err != nil {
		return nil, err
	}
	if r == nil {
		r = m
	}
	n := notification.New(m.env, opts)
	if err := n.Schedule(ctx, r); err != nil {
		return nil, err
	}
	return n, nil
}

// Update merges a patch over the stored options and reschedules.
func (m *Manager) Update(ctx context.Context, id int32, patch []byte, r platform.Receiver) (*notification.Notification, error) {
	opts, ok := m.GetOptions(ctx, id)
	if !ok {
		return nil, fmt.Errorf("manager: update %d: %w", id, ErrNotFound)
	}
	merged, err := opts.Merge(patch, m.env.Now())
	if err != nil {
		return nil, err
	}
	return m.ScheduleOptions(ctx, merged, r)
}

// Get returns the notification stored for id.
func (m *Manager) Get(ctx context.Context, id int32) (*notification.Notification, bool) {
	n, err := notification.Load(ctx, m.env, id)
	if err != nil {
		m.logLoadError(id, err)
		return nil, false
	}
	return n, true
}

// GetOptions returns the options stored for id.
func (m *Manager) GetOptions(ctx context.Context, id int32) (options.Options, bool) {
	n, ok := m.Get(ctx, id)
	if !ok {
		return options.Options{}, false
	}
	return n.Options(), true
}

// Exists reports whether a readable record exists for id.
func (m *Manager) Exists(ctx context.Context, id int32) bool {
	_, ok := m.Get(ctx, id)
	return ok
}

// Clear clears one notification. It reports false when id is unknown.
func (m *Manager) Clear(ctx context.Context, id int32) (*notification.Notification, bool, error) {
	n, ok := m.Get(ctx, id)
	if !ok {
		return nil, false, nil
	}
	return n, true, n.Clear(ctx)
}

// Cancel cancels one notification. It reports false when id is unknown.
func (m *Manager) Cancel(ctx context.Context, id int32) (*notification.Notification, bool, error) {
	n, ok := m.Get(ctx, id)
	if !ok {
		return nil, false, nil
	}
	return n, true, n.Cancel(ctx)
}

// ClearAll removes every notification from the surface in one call and
// resets the badge. Fired one-shot notifications are dropped; repeating
// ones keep their schedule.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.env.Renderer.DismissAll(ctx); err != nil {
		metrics.IncPlatformFailure("renderer", "dismiss_all")
		m.log.Warn("platform_failure", "collaborator", "renderer", "op", "dismiss_all", "error", err.Error())
	}
	if err := m.env.Badge.Clear(ctx); err != nil {
		return err
	}
	all, err := m.All(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, n := range all {
		if n.State() != notification.StateTriggered || n.Options().Pending() {
			continue
		}
		if err := n.ClearDismissed(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if m.env.Events != nil {
		m.env.Events.Emit(ctx, hooks.Event{Name: hooks.EventClearAll})
	}
	return errors.Join(errs...)
}

// CancelAll cancels every stored notification and clears the surface.
func (m *Manager) CancelAll(ctx context.Context) error {
	ids, err := m.IDs(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range ids {
		if _, _, err := m.Cancel(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.env.Renderer.DismissAll(ctx); err != nil {
		metrics.IncPlatformFailure("renderer", "dismiss_all")
		m.log.Warn("platform_failure", "collaborator", "renderer", "op", "dismiss_all", "error", err.Error())
	}
	return errors.Join(errs...)
}

// IDs returns every stored identifier in ascending order.
func (m *Manager) IDs(ctx context.Context) ([]int32, error) {
	return m.env.Store.IDs(ctx)
}

// All returns every readable notification ordered by id.
func (m *Manager) All(ctx context.Context) ([]*notification.Notification, error) {
	ids, err := m.IDs(ctx)
	if err != nil {
		return nil, err
	}
	return m.ByIDs(ctx, ids), nil
}

// ByState returns the notifications currently in state.
func (m *Manager) ByState(ctx context.Context, state notification.State) ([]*notification.Notification, error) {
	all, err := m.All(ctx)
	if err != nil {
		return nil, err
	}
	var out []*notification.Notification
	for _, n := range all {
		if n.State() == state {
			out = append(out, n)
		}
	}
	return out, nil
}

// ByIDs returns the readable notifications among ids, in the given order.
func (m *Manager) ByIDs(ctx context.Context, ids []int32) []*notification.Notification {
	out := make([]*notification.Notification, 0, len(ids))
	for _, id := range ids {
		if n, ok := m.Get(ctx, id); ok {
			out = append(out, n)
		}
	}
	return out
}

// SetBadge sets the badge number.
func (m *Manager) SetBadge(ctx context.Context, n int) error {
	return m.env.Badge.Set(ctx, n)
}

// Badge returns the badge number.
func (m *Manager) Badge(ctx context.Context) int {
	return m.env.Badge.Get(ctx)
}

// Fire handles a due trigger delivered by the registrar.
func (m *Manager) Fire(ctx context.Context, id int32) {
	n, ok := m.Get(ctx, id)
	if !ok {
		m.log.Debug("fire for unknown notification ignored", "id", id)
		return
	}
	if err := n.Trigger(ctx); err != nil {
		m.log.Error("trigger failed", "id", id, "error", err.Error())
	}
}

func (m *Manager) logLoadError(id int32, err error) {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrCorruptRecord) {
		return
	}
	m.log.Warn("load failed", "id", id, "error", err.Error())
}
