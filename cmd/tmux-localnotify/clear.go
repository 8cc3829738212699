package main

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/tmux-localnotify/cmd"
	"github.com/cristianoliveira/tmux-localnotify/internal/colors"
	"github.com/spf13/cobra"
)

type clearClient interface {
	Clear(ctx context.Context, id int32) (bool, error)
}

type clearAllClient interface {
	ClearAll(ctx context.Context) error
}

// NewClearCmd creates the clear command with explicit dependencies.
func NewClearCmd(client clearClient) *cobra.Command {
	if client == nil {
		panic("NewClearCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Dismiss a notification",
		Long: `tmux-localnotify clear - Dismiss a notification

Removes the notification from tmux. A repeating notification keeps its
schedule; any other notification is removed.

USAGE:
    tmux-localnotify clear <id>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ok, err := client.Clear(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			if !ok {
				return fmt.Errorf("clear: notification %d not found", id)
			}
			colors.Success(fmt.Sprintf("Notification %d cleared", id))
			return nil
		},
	}
}

// NewClearAllCmd creates the clear-all command with explicit dependencies.
func NewClearAllCmd(client clearAllClient) *cobra.Command {
	if client == nil {
		panic("NewClearAllCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "clear-all",
		Short: "Dismiss every notification and reset the badge",
		Long: `tmux-localnotify clear-all - Dismiss every notification

Removes all notifications from tmux in one call and resets the badge to 0.
Repeating notifications keep their schedule.

USAGE:
    tmux-localnotify clear-all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.ClearAll(cmd.Context()); err != nil {
				return fmt.Errorf("clear-all: %w", err)
			}
			colors.Success("cleared")
			return nil
		},
	}
}

var (
	clearCmd    = NewClearCmd(appClient)
	clearAllCmd = NewClearAllCmd(appClient)
)

func init() {
	cmd.RootCmd.AddCommand(clearCmd, clearAllCmd)
}
