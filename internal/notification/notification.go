// Package notification implements the lifecycle of a single notification:
// SCHEDULED -> TRIGGERED -> CLEARED | CANCELLED.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/badge"
	"github.com/cristianoliveira/tmux-localnotify/internal/hooks"
	"github.com/cristianoliveira/tmux-localnotify/internal/logging"
	"github.com/cristianoliveira/tmux-localnotify/internal/metrics"
	"github.com/cristianoliveira/tmux-localnotify/internal/options"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
	"github.com/cristianoliveira/tmux-localnotify/internal/store"
)

// State is the lifecycle state of a notification.
type State string

const (
	StateScheduled State = "SCHEDULED"
	StateTriggered State = "TRIGGERED"
	StateCleared   State = "CLEARED"
	StateCancelled State = "CANCELLED"
)

// dueTolerance is how far ahead of its due instant a trigger still fires.
const dueTolerance = time.Second

// ParseState converts a case-insensitive name into a State.
func ParseState(s string) (State, error) {
	switch State(strings.ToUpper(strings.TrimSpace(s))) {
	case StateScheduled:
		return StateScheduled, nil
	case StateTriggered:
		return StateTriggered, nil
	case StateCleared:
		return StateCleared, nil
	case StateCancelled:
		return StateCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown state %q", options.ErrInvalidRequest, s)
}

// Derive returns the state of a persisted record.
func Derive(opts options.Options) State {
	if opts.Trigger.Occurrence > 0 {
		return StateTriggered
	}
	return StateScheduled
}

// EventSink receives lifecycle events.
type EventSink interface {
	Emit(ctx context.Context, ev hooks.Event)
}

// Env carries the collaborators every notification operation uses.
type Env struct {
	Store     *store.Store
	Badge     *badge.Counter
	Registrar platform.Registrar
	Renderer  platform.Renderer
	// Receiver is armed when a notification re-arms itself from Trigger.
	Receiver platform.Receiver
	Events   EventSink
	Locks    *Locks
	Log      logging.Logger
	Now      func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Env) logger() logging.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logging.Noop()
}

func (e *Env) emit(ctx context.Context, name string, n *Notification) {
	if e.Events == nil {
		return
	}
	e.Events.Emit(ctx, hooks.Event{
		Name:      name,
		ID:        n.opts.ID,
		State:     string(n.state),
		TriggerAt: n.opts.Trigger.At,
		Content:   n.opts.Content,
	})
}

func (e *Env) platformFailure(collaborator, op string, id int32, err error) {
	metrics.IncPlatformFailure(collaborator, op)
	e.logger().Warn("platform_failure", "collaborator", collaborator, "op", op, "id", id, "error", err.Error())
}

// Notification is one notification bound to its environment. Values are
// rebuilt from the store on access; only CLEARED and CANCELLED exist purely
// in memory.
type Notification struct {
	env   *Env
	opts  options.Options
	state State
}

// New builds a notification from options with its derived state.
func New(env *Env, opts options.Options) *Notification {
	return &Notification{env: env, opts: opts, state: Derive(opts)}
}

// Load reconstructs the notification stored for id.
func Load(ctx context.Context, env *Env, id int32) (*Notification, error) {
	opts, err := env.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return New(env, opts), nil
}

func (n *Notification) ID() int32                { return n.opts.ID }
func (n *Notification) State() State             { return n.state }
func (n *Notification) Options() options.Options { return n.opts }

func (n *Notification) transition(to State) {
	if n.state != to {
		metrics.IncTransition(string(n.state), string(to))
	}
	n.state = to
}

// Schedule persists the options and arms the trigger when an occurrence is
// still pending. Persistence failures are returned; arm failures are logged.
func (n *Notification) Schedule(ctx context.Context, r platform.Receiver) error {
	unlock := n.env.Locks.Lock(n.opts.ID)
	defer unlock()

	if err := n.env.Store.Put(ctx, n.opts); err != nil {
		return err
	}
	if r == nil {
		r = n.env.Receiver
	}
	if n.opts.Pending() {
		if err := n.env.Registrar.Arm(ctx, n.opts.ID, n.opts.Trigger.Time(), r); err != nil {
			n.env.platformFailure("registrar", "arm", n.opts.ID, err)
		}
	}
	n.state = Derive(n.opts)
	metrics.IncTransition("NONE", string(n.state))

	event := hooks.EventSchedule
	if n.opts.Updated {
		event = hooks.EventUpdate
	}
	n.env.logger().Info("scheduled", "id", n.opts.ID, "at", n.opts.Trigger.At, "every", n.opts.Trigger.Every.String())
	n.env.emit(ctx, event, n)
	return nil
}

// Trigger handles a due trigger. A record that is gone makes it a no-op, so
// a trigger racing with cancel does nothing. Repeating notifications arm
// their next occurrence before the fired state is persisted.
func (n *Notification) Trigger(ctx context.Context) error {
	unlock := n.env.Locks.Lock(n.opts.ID)
	defer unlock()

	current, err := n.env.Store.Get(ctx, n.opts.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrCorruptRecord) {
			n.env.logger().Debug("trigger for missing notification ignored", "id", n.opts.ID)
			return nil
		}
		return err
	}
	n.opts = current
	n.state = Derive(current)
	if !current.Pending() {
		n.env.logger().Debug("trigger for fired notification ignored", "id", current.ID)
		return nil
	}
	if due := current.Trigger.Time(); due.After(n.env.now().Add(dueTolerance)) {
		// Rescheduled since this timer was armed: wait for the new instant.
		if err := n.env.Registrar.Arm(ctx, current.ID, due, n.env.Receiver); err != nil {
			n.env.platformFailure("registrar", "arm", current.ID, err)
		}
		n.env.logger().Debug("early trigger re-armed", "id", current.ID, "at", due)
		return nil
	}

	t := current.Trigger
	t.Occurrence++
	if current.IsRepeating() && (t.Count == 0 || t.Occurrence < t.Count) {
		if next, ok := current.Trigger.Next(n.env.now()); ok {
			if err := n.env.Registrar.Arm(ctx, current.ID, next, n.env.Receiver); err != nil {
				n.env.platformFailure("registrar", "arm", current.ID, err)
			}
			t.At = next.UnixMilli()
		}
	}
	fired := current.WithTrigger(t)
	if err := n.env.Store.Put(ctx, fired); err != nil {
		return err
	}
	n.opts = fired

	if err := n.env.Renderer.Show(ctx, fired.ID, fired.Content); err != nil {
		n.env.platformFailure("renderer", "show", fired.ID, err)
	}
	if fired.Badge > 0 && n.env.Badge != nil {
		if err := n.env.Badge.Set(ctx, fired.Badge); err != nil {
			n.env.logger().Warn("badge update failed", "id", fired.ID, "error", err.Error())
		}
	}
	n.transition(StateTriggered)
	n.env.logger().Info("triggered", "id", fired.ID, "occurrence", t.Occurrence)
	n.env.emit(ctx, hooks.EventTrigger, n)
	return nil
}

// Clear dismisses the notification. Repeating notifications with occurrences
// left stay scheduled; any other notification is cancelled.
func (n *Notification) Clear(ctx context.Context) error {
	return n.clear(ctx, false)
}

// ClearDismissed applies Clear to a notification the caller already removed
// from the surface, without emitting a per-notification event. The record is
// dropped only if, under the lock, it is still fired with nothing pending;
// one rescheduled since the caller looked stays armed.
func (n *Notification) ClearDismissed(ctx context.Context) error {
	return n.clear(ctx, true)
}

func (n *Notification) clear(ctx context.Context, dismissed bool) error {
	unlock := n.env.Locks.Lock(n.opts.ID)
	defer unlock()

	found := n.refresh(ctx)
	drop := !n.opts.IsRepeating() || n.opts.Exhausted()
	if dismissed {
		drop = found && n.state == StateTriggered && !n.opts.Pending()
	} else if err := n.env.Renderer.Dismiss(ctx, n.opts.ID); err != nil {
		n.env.platformFailure("renderer", "dismiss", n.opts.ID, err)
	}
	if drop {
		if err := n.remove(ctx); err != nil {
			return err
		}
	}
	n.transition(StateCleared)
	if !dismissed {
		n.env.emit(ctx, hooks.EventClear, n)
	}
	return nil
}

// Cancel disarms the trigger, removes the record and dismisses the
// notification.
func (n *Notification) Cancel(ctx context.Context) error {
	unlock := n.env.Locks.Lock(n.opts.ID)
	defer unlock()

	n.refresh(ctx)
	if err := n.remove(ctx); err != nil {
		return err
	}
	if err := n.env.Renderer.Dismiss(ctx, n.opts.ID); err != nil {
		n.env.platformFailure("renderer", "dismiss", n.opts.ID, err)
	}
	n.transition(StateCancelled)
	n.env.logger().Info("cancelled", "id", n.opts.ID)
	n.env.emit(ctx, hooks.EventCancel, n)
	return nil
}

func (n *Notification) remove(ctx context.Context) error {
	if err := n.env.Registrar.Disarm(ctx, n.opts.ID); err != nil {
		n.env.platformFailure("registrar", "disarm", n.opts.ID, err)
	}
	return n.env.Store.Remove(ctx, n.opts.ID)
}

// refresh reloads the record and reports whether it still exists.
func (n *Notification) refresh(ctx context.Context) bool {
	current, err := n.env.Store.Get(ctx, n.opts.ID)
	if err != nil {
		return false
	}
	n.opts = current
	n.state = Derive(current)
	return true
}
