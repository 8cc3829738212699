package main

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/tmux-localnotify/cmd"
	"github.com/spf13/cobra"
)

type getClient interface {
	Get(ctx context.Context, id int32) (record, bool, error)
}

// NewGetCmd creates the get command with explicit dependencies.
func NewGetCmd(client getClient) *cobra.Command {
	if client == nil {
		panic("NewGetCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a notification",
		Long: `tmux-localnotify get - Show a notification as JSON

USAGE:
    tmux-localnotify get <id>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, ok, err := client.Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}
			if !ok {
				return fmt.Errorf("get: notification %d not found", id)
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
}

// getCmd represents the get command.
var getCmd = NewGetCmd(appClient)

func init() {
	cmd.RootCmd.AddCommand(getCmd)
}
