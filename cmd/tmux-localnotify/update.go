package main

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/tmux-localnotify/cmd"
	"github.com/spf13/cobra"
)

type updateClient interface {
	Update(ctx context.Context, id int32, patch []byte) (record, error)
}

// NewUpdateCmd creates the update command with explicit dependencies.
func NewUpdateCmd(client updateClient) *cobra.Command {
	if client == nil {
		panic("NewUpdateCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "update <id> <json>",
		Short: "Merge changes into a notification",
		Long: `tmux-localnotify update - Merge changes into a notification

USAGE:
    tmux-localnotify update <id> '<json patch>'

Fields in the patch replace the stored ones; a trigger in the patch replaces
the whole stored trigger. The id cannot change.

EXAMPLES:
    tmux-localnotify update 1 '{"content":"stretch now"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := client.Update(cmd.Context(), id, []byte(args[1]))
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
}

// updateCmd represents the update command.
var updateCmd = NewUpdateCmd(appClient)

func init() {
	cmd.RootCmd.AddCommand(updateCmd)
}
