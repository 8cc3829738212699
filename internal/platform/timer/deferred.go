package timer

import (
	"context"
	"time"

	"github.com/cristianoliveira/tmux-localnotify/internal/logging"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
)

// Deferred is the registrar of short-lived processes. It arms nothing: the
// store already holds the trigger instant and the long-running daemon arms
// it on its next reconciliation pass, disarming ids whose record is gone.
type Deferred struct {
	Log logging.Logger
}

var _ platform.Registrar = Deferred{}

// Arm records nothing and succeeds.
func (d Deferred) Arm(_ context.Context, id int32, at time.Time, _ platform.Receiver) error {
	d.logger().Debug("arm deferred to daemon", "id", id, "at", at.UnixMilli())
	return nil
}

// Disarm records nothing and succeeds.
func (d Deferred) Disarm(_ context.Context, id int32) error {
	d.logger().Debug("disarm deferred to daemon", "id", id)
	return nil
}

func (d Deferred) logger() logging.Logger {
	if d.Log == nil {
		return logging.Noop()
	}
	return d.Log
}
