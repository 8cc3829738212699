package main

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/tmux-localnotify/cmd"
	"github.com/cristianoliveira/tmux-localnotify/internal/notification"
	"github.com/spf13/cobra"
)

type listClient interface {
	List(ctx context.Context, state notification.State) ([]record, error)
}

// NewListCmd creates the list command with explicit dependencies.
func NewListCmd(client listClient) *cobra.Command {
	if client == nil {
		panic("NewListCmd: client dependency cannot be nil")
	}

	var stateFlag string
	var formatFlag string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications",
		Long: `tmux-localnotify list - List stored notifications

USAGE:
    tmux-localnotify list [OPTIONS]

OPTIONS:
    --state <state>     Only SCHEDULED or TRIGGERED notifications
    --format <format>   table (default) or json
    -h, --help          Show this help`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var state notification.State
			if stateFlag != "" {
				var err error
				if state, err = notification.ParseState(stateFlag); err != nil {
					return fmt.Errorf("list: %w", err)
				}
			}
			if formatFlag != "table" && formatFlag != "json" {
				return fmt.Errorf("list: unknown format %q", formatFlag)
			}

			records, err := client.List(cmd.Context(), state)
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			if formatFlag == "json" {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			writeTable(cmd.OutOrStdout(), records)
			return nil
		},
	}

	listCmd.Flags().StringVar(&stateFlag, "state", "", "Filter by state")
	listCmd.Flags().StringVar(&formatFlag, "format", "table", "Output format: table or json")

	return listCmd
}

// listCmd represents the list command.
var listCmd = NewListCmd(appClient)

func init() {
	cmd.RootCmd.AddCommand(listCmd)
}
