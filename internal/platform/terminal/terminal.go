// Package terminal renders notifications as styled boxes on a writer. It is
// the fallback surface when no tmux server is available.
package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/cristianoliveira/tmux-localnotify/internal/colors"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
)

// Styles used by the renderer.
type Styles struct {
	Box   lipgloss.Style
	Title lipgloss.Style
	Badge lipgloss.Style
	Muted lipgloss.Style
}

// DefaultStyles returns the default box and badge styles.
func DefaultStyles() Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ansiColorNumber(colors.Blue))).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ansiColorNumber(colors.Blue))),
		Badge: lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color(ansiColorNumber(colors.Red))).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Renderer implements platform.Renderer, platform.VisibleLister,
// platform.BadgePainter and platform.ChannelProvider for a terminal.
// Visible notifications and channels are tracked in memory.
type Renderer struct {
	mu       sync.Mutex
	out      io.Writer
	styles   Styles
	visible  []int32
	channels map[string]string
}

var (
	_ platform.Renderer        = (*Renderer)(nil)
	_ platform.VisibleLister   = (*Renderer)(nil)
	_ platform.BadgePainter    = (*Renderer)(nil)
	_ platform.ChannelProvider = (*Renderer)(nil)
)

// New creates a renderer writing to out.
func New(out io.Writer) *Renderer {
	return &Renderer{out: out, styles: DefaultStyles(), channels: make(map[string]string)}
}

func (r *Renderer) Show(_ context.Context, id int32, content json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := fmt.Fprintln(r.out, r.render(id, content)); err != nil {
		return fmt.Errorf("terminal: show %d: %w", id, err)
	}
	if !slices.Contains(r.visible, id) {
		r.visible = append(r.visible, id)
	}
	return nil
}

func (r *Renderer) render(id int32, content json.RawMessage) string {
	title, text := platform.Summary(content)
	if title == "" {
		title = fmt.Sprintf("Notification %d", id)
	}
	lines := []string{r.styles.Title.Render(title)}
	if text != "" {
		lines = append(lines, text)
	}
	lines = append(lines, r.styles.Muted.Render(fmt.Sprintf("#%d", id)))
	return r.styles.Box.Render(strings.Join(lines, "\n"))
}

func (r *Renderer) Dismiss(_ context.Context, id int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := slices.Index(r.visible, id); i >= 0 {
		r.visible = slices.Delete(r.visible, i, i+1)
	}
	return nil
}

func (r *Renderer) DismissAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible = nil
	return nil
}

func (r *Renderer) Visible(_ context.Context) ([]int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.visible), nil
}

func (r *Renderer) Paint(_ context.Context, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.out, r.styles.Badge.Render(fmt.Sprintf("%d", n)))
	return err
}

func (r *Renderer) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.out, r.styles.Muted.Render("badge cleared"))
	return err
}

func (r *Renderer) EnsureChannel(_ context.Context, id, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[id]; ok {
		return false, nil
	}
	r.channels[id] = name
	return true, nil
}

// ansiColorNumber extracts the color number from an ANSI escape like "\033[0;34m".
func ansiColorNumber(ansi string) string {
	if len(ansi) < 2 {
		return ""
	}
	lastSemicolon := strings.LastIndex(ansi, ";")
	if lastSemicolon == -1 {
		return ""
	}
	return ansi[lastSemicolon+1 : len(ansi)-1]
}
