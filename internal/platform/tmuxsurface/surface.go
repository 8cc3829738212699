// Package tmuxsurface surfaces notifications through a tmux server: messages
// in the status line, and global user options that status-line formats can
// read for the badge and the visible notifications.
package tmuxsurface

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
	"github.com/cristianoliveira/tmux-localnotify/internal/tmux"
)

// DefaultPrefix is the prefix of every user option the surface owns.
const DefaultPrefix = "@localnotify"

var channelSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Surface implements platform.Renderer, platform.VisibleLister,
// platform.BadgePainter and platform.ChannelProvider on tmux.
//
// The visible list is shared by every process talking to the same tmux
// server, so it is only changed with single server-side commands: Show
// appends and Dismiss rewrites the option through a format substitution.
// Concurrent Shows may append the same id twice; readers drop duplicates.
type Surface struct {
	client tmux.Client
	prefix string
}

var (
	_ platform.Renderer        = (*Surface)(nil)
	_ platform.VisibleLister   = (*Surface)(nil)
	_ platform.BadgePainter    = (*Surface)(nil)
	_ platform.ChannelProvider = (*Surface)(nil)
)

// New creates a Surface. An empty prefix selects DefaultPrefix.
func New(client tmux.Client, prefix string) *Surface {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Surface{client: client, prefix: prefix}
}

// VisibleOption is the option listing shown notification ids.
func (s *Surface) VisibleOption() string { return s.prefix + "_visible" }

// BadgeOption is the option holding the badge number.
func (s *Surface) BadgeOption() string { return s.prefix + "_badge" }

// ChannelOption is the option marking a registered channel.
func (s *Surface) ChannelOption(id string) string {
	return s.prefix + "_channel_" + channelSanitizer.ReplaceAllString(id, "_")
}

// Show displays the notification and records it as visible.
func (s *Surface) Show(ctx context.Context, id int32, content json.RawMessage) error {
	if err := s.client.DisplayMessage(ctx, Message(id, content)); err != nil {
		return fmt.Errorf("tmux surface: show %d: %w", id, err)
	}
	ids, err := s.visible(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	if err := s.client.AppendOption(ctx, s.VisibleOption(), ","+strconv.FormatInt(int64(id), 10)); err != nil {
		return fmt.Errorf("tmux surface: write visible: %w", err)
	}
	return nil
}

func (s *Surface) Dismiss(ctx context.Context, id int32) error {
	if err := s.client.SetOptionFormat(ctx, s.VisibleOption(), dismissFormat(s.VisibleOption(), id)); err != nil {
		return fmt.Errorf("tmux surface: dismiss %d: %w", id, err)
	}
	return nil
}

// dismissFormat expands to the option value with every occurrence of id
// replaced by a separator.
func dismissFormat(option string, id int32) string {
	return fmt.Sprintf("#{s/(^|,)%d(,|$)/,/:%s}", id, option)
}

func (s *Surface) DismissAll(ctx context.Context) error {
	if err := s.client.UnsetOption(ctx, s.VisibleOption()); err != nil {
		return fmt.Errorf("tmux surface: dismiss all: %w", err)
	}
	return nil
}

func (s *Surface) Visible(ctx context.Context) ([]int32, error) {
	return s.visible(ctx)
}

func (s *Surface) visible(ctx context.Context) ([]int32, error) {
	raw, ok, err := s.client.GetOption(ctx, s.VisibleOption())
	if err != nil {
		return nil, fmt.Errorf("tmux surface: read visible: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var ids []int32
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
		if err != nil || n <= 0 || slices.Contains(ids, int32(n)) {
			continue
		}
		ids = append(ids, int32(n))
	}
	return ids, nil
}

func (s *Surface) Paint(ctx context.Context, n int) error {
	if err := s.client.SetOption(ctx, s.BadgeOption(), strconv.Itoa(n)); err != nil {
		return fmt.Errorf("tmux surface: paint badge: %w", err)
	}
	return nil
}

// Clear removes the badge option, which status formats render as no badge.
func (s *Surface) Clear(ctx context.Context) error {
	if err := s.client.UnsetOption(ctx, s.BadgeOption()); err != nil {
		return fmt.Errorf("tmux surface: clear badge: %w", err)
	}
	return nil
}

// EnsureChannel marks the channel as registered unless it already is.
func (s *Surface) EnsureChannel(ctx context.Context, id, name string) (bool, error) {
	opt := s.ChannelOption(id)
	if _, ok, err := s.client.GetOption(ctx, opt); err != nil {
		return false, fmt.Errorf("tmux surface: query channel %s: %w", id, err)
	} else if ok {
		return false, nil
	}
	if name == "" {
		name = id
	}
	if err := s.client.SetOption(ctx, opt, name); err != nil {
		return false, fmt.Errorf("tmux surface: create channel %s: %w", id, err)
	}
	return true, nil
}

// Message formats the status-line text of a notification. Literal '#' is
// doubled so tmux does not expand it as a format.
func Message(id int32, content json.RawMessage) string {
	title, text := platform.Summary(content)
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]", id)
	if title != "" {
		b.WriteString(" " + title + ":")
	}
	if text != "" {
		b.WriteString(" " + text)
	}
	return strings.ReplaceAll(b.String(), "#", "##")
}
