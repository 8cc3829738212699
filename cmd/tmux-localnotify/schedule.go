package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cristianoliveira/tmux-localnotify/cmd"
	"github.com/spf13/cobra"
)

type scheduleClient interface {
	Schedule(ctx context.Context, raw []byte) (record, error)
}

type scheduleFlags struct {
	id       int
	at       int64
	in       int64
	every    string
	interval int
	count    int
	title    string
	text     string
	badge    int
}

// request builds a schedule request from flags. Only flags the user set are
// included so that parsing applies its own defaults.
func (f scheduleFlags) request(changed func(string) bool) ([]byte, error) {
	if !changed("id") {
		return nil, fmt.Errorf("schedule: --id is required without a JSON request")
	}
	trigger := map[string]any{}
	if changed("at") {
		trigger["at"] = f.at
	}
	if changed("in") {
		trigger["in"] = f.in
	}
	if changed("every") {
		trigger["every"] = f.every
	}
	if changed("interval") {
		trigger["interval"] = f.interval
	}
	if changed("count") {
		trigger["count"] = f.count
	}
	req := map[string]any{"id": f.id, "trigger": trigger}

	switch {
	case changed("title"):
		content := map[string]any{"title": f.title}
		if changed("text") {
			content["text"] = f.text
		}
		req["content"] = content
	case changed("text"):
		req["content"] = f.text
	}
	if changed("badge") {
		req["badge"] = f.badge
	}
	return json.Marshal(req)
}

// NewScheduleCmd creates the schedule command with explicit dependencies.
func NewScheduleCmd(client scheduleClient) *cobra.Command {
	if client == nil {
		panic("NewScheduleCmd: client dependency cannot be nil")
	}

	var flags scheduleFlags

	scheduleCmd := &cobra.Command{
		Use:   "schedule [json]",
		Short: "Schedule a notification",
		Long: `tmux-localnotify schedule - Schedule a notification

USAGE:
    tmux-localnotify schedule '<json request>'
    tmux-localnotify schedule --id <n> [--at <ms> | --in <s>] [OPTIONS]

Scheduling an id that already exists replaces it.

OPTIONS:
    --id <n>            Notification id (required without JSON)
    --at <ms>           Trigger instant in epoch milliseconds
    --in <s>            Trigger after this many seconds
    --every <unit>      Repeat unit: second, minute, hour, day, week, month, year
    --interval <n>      Repeat every n units (default: 1)
    --count <n>         Stop after n occurrences
    --title <text>      Notification title
    --text <text>       Notification text
    --badge <n>         Badge number applied when the notification fires
    -h, --help          Show this help

EXAMPLES:
    tmux-localnotify schedule --id 1 --in 300 --text "stretch"
    tmux-localnotify schedule '{"id":2,"trigger":{"every":"day"},"content":"standup"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if len(args) == 1 {
				raw = []byte(strings.TrimSpace(args[0]))
			} else {
				var err error
				raw, err = flags.request(cmd.Flags().Changed)
				if err != nil {
					return err
				}
			}

			rec, err := client.Schedule(cmd.Context(), raw)
			if err != nil {
				return fmt.Errorf("schedule: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}

	scheduleCmd.Flags().IntVar(&flags.id, "id", 0, "Notification id")
	scheduleCmd.Flags().Int64Var(&flags.at, "at", 0, "Trigger instant in epoch milliseconds")
	scheduleCmd.Flags().Int64Var(&flags.in, "in", 0, "Trigger after this many seconds")
	scheduleCmd.Flags().StringVar(&flags.every, "every", "", "Repeat unit")
	scheduleCmd.Flags().IntVar(&flags.interval, "interval", 1, "Repeat every n units")
	scheduleCmd.Flags().IntVar(&flags.count, "count", 0, "Stop after n occurrences")
	scheduleCmd.Flags().StringVar(&flags.title, "title", "", "Notification title")
	scheduleCmd.Flags().StringVar(&flags.text, "text", "", "Notification text")
	scheduleCmd.Flags().IntVar(&flags.badge, "badge", 0, "Badge number")

	return scheduleCmd
}

// scheduleCmd represents the schedule command.
var scheduleCmd = NewScheduleCmd(appClient)

func init() {
	cmd.RootCmd.AddCommand(scheduleCmd)
}
