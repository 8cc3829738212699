// Package badge keeps the persisted badge number and mirrors it to a painter.
package badge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cristianoliveira/tmux-localnotify/internal/logging"
	"github.com/cristianoliveira/tmux-localnotify/internal/metrics"
	"github.com/cristianoliveira/tmux-localnotify/internal/options"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
	"github.com/cristianoliveira/tmux-localnotify/internal/store"
)

const countKey = "count"

// Namespace returns the badge namespace derived from the notification namespace.
func Namespace(notifications string) string {
	if notifications == "" {
		notifications = store.DefaultNamespace
	}
	return notifications + ".badge"
}

// Counter is the badge number. Painter failures are logged and absorbed;
// persistence failures are returned.
type Counter struct {
	mu        sync.Mutex
	backend   store.Backend
	namespace string
	painter   platform.BadgePainter
	log       logging.Logger
}

// New creates a counter persisting into Namespace(namespace).
func New(backend store.Backend, namespace string, painter platform.BadgePainter, log logging.Logger) *Counter {
	if log == nil {
		log = logging.Noop()
	}
	return &Counter{
		backend:   backend,
		namespace: Namespace(namespace),
		painter:   painter,
		log:       log.With("component", "badge"),
	}
}

// Set persists n and paints it. Zero clears the painted badge.
func (c *Counter) Set(ctx context.Context, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: badge must be >= 0, got %d", options.ErrInvalidRequest, n)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.backend.Put(ctx, c.namespace, countKey, []byte(strconv.Itoa(n))); err != nil {
		return fmt.Errorf("badge: set %d: %w", n, err)
	}
	metrics.SetBadge(n)

	op := "paint"
	var err error
	if n == 0 {
		op = "clear"
		err = c.painter.Clear(ctx)
	} else {
		err = c.painter.Paint(ctx, n)
	}
	if err != nil {
		metrics.IncPlatformFailure("badge", op)
		c.log.Warn("platform_failure", "collaborator", "badge", "op", op, "value", n, "error", err.Error())
	}
	return nil
}

// Get returns the persisted value, or 0 when never set or unreadable.
func (c *Counter) Get(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := c.backend.Get(ctx, c.namespace, countKey)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n < 0 {
		c.log.Warn("unreadable badge value", "raw", string(raw))
		return 0
	}
	return n
}

// Clear sets the badge to 0.
func (c *Counter) Clear(ctx context.Context) error {
	return c.Set(ctx, 0)
}
