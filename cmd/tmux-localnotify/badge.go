package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cristianoliveira/tmux-localnotify/cmd"
	"github.com/spf13/cobra"
)

type badgeClient interface {
	Badge(ctx context.Context) (int, error)
	SetBadge(ctx context.Context, n int) error
}

// NewBadgeCmd creates the badge command with explicit dependencies.
func NewBadgeCmd(client badgeClient) *cobra.Command {
	if client == nil {
		panic("NewBadgeCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "badge [n]",
		Short: "Show or set the badge number",
		Long: `tmux-localnotify badge - Show or set the badge number

USAGE:
    tmux-localnotify badge        Print the badge number
    tmux-localnotify badge <n>    Set the badge number; 0 clears it`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				n, err := client.Badge(cmd.Context())
				if err != nil {
					return fmt.Errorf("badge: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("badge: invalid number %q", args[0])
			}
			if err := client.SetBadge(cmd.Context(), n); err != nil {
				return fmt.Errorf("badge: %w", err)
			}
			return nil
		},
	}
}

// badgeCmd represents the badge command.
var badgeCmd = NewBadgeCmd(appClient)

func init() {
	cmd.RootCmd.AddCommand(badgeCmd)
}
