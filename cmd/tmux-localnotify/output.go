package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cristianoliveira/tmux-localnotify/internal/platform"
)

// parseID parses a notification identifier argument.
func parseID(arg string) (int32, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid notification id %q", arg)
	}
	return int32(id), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	stateStyles = map[string]lipgloss.Style{
		"SCHEDULED": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"TRIGGERED": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
)

const tableRow = "%-8s %-10s %-20s %-10s %s"

// writeTable prints records as aligned rows, one per notification.
func writeTable(w io.Writer, records []record) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf(tableRow, "ID", "STATE", "AT", "EVERY", "TITLE")))
	for _, r := range records {
		title, text := platform.Summary(r.Options.Content)
		if title == "" {
			title = text
		}
		state := fmt.Sprintf("%-10s", r.State)
		if style, ok := stateStyles[string(r.State)]; ok {
			state = style.Render(state)
		}
		at := time.UnixMilli(r.Options.Trigger.At).Local().Format("2006-01-02 15:04:05")
		fmt.Fprintf(w, "%-8d %s %-20s %-10s %s\n", r.Options.ID, state, at, r.Options.Trigger.Every.String(), title)
	}
}
