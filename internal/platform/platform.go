// Package platform defines the collaborators the notification manager drives:
// the trigger registrar, the visible notification surface, the badge and the
// delivery channel.
package platform

import (
	"context"
	"encoding/json"
	"time"
)

// Receiver handles a due trigger for a notification identifier.
type Receiver interface {
	Fire(ctx context.Context, id int32)
}

// ReceiverFunc adapts a function to Receiver.
type ReceiverFunc func(ctx context.Context, id int32)

// Fire calls f(ctx, id).
func (f ReceiverFunc) Fire(ctx context.Context, id int32) {
	f(ctx, id)
}

// Registrar arms and disarms one pending trigger per identifier.
// Arming an identifier that is already armed replaces the pending trigger.
type Registrar interface {
	Arm(ctx context.Context, id int32, at time.Time, r Receiver) error
	Disarm(ctx context.Context, id int32) error
}

// ArmedLister is implemented by registrars that can report what is armed.
type ArmedLister interface {
	Armed() map[int32]time.Time
}

// Renderer shows notifications on the user-visible surface.
type Renderer interface {
	Show(ctx context.Context, id int32, content json.RawMessage) error
	Dismiss(ctx context.Context, id int32) error
	DismissAll(ctx context.Context) error
}

// VisibleLister is implemented by renderers that can report what is shown.
type VisibleLister interface {
	Visible(ctx context.Context) ([]int32, error)
}

// BadgePainter draws the badge number.
type BadgePainter interface {
	Paint(ctx context.Context, n int) error
	Clear(ctx context.Context) error
}

// ChannelProvider registers the delivery channel notifications are posted to.
// EnsureChannel checks the platform state first and reports whether it created
// the channel.
type ChannelProvider interface {
	EnsureChannel(ctx context.Context, id, name string) (bool, error)
}
