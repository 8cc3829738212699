package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cristianoliveira/tmux-localnotify/cmd"
	"github.com/cristianoliveira/tmux-localnotify/internal/colors"
	"github.com/spf13/cobra"
)

type cancelClient interface {
	Cancel(ctx context.Context, id int32) (bool, error)
}

type cancelAllClient interface {
	CancelAll(ctx context.Context) error
}

// NewCancelCmd creates the cancel command with explicit dependencies.
func NewCancelCmd(client cancelClient) *cobra.Command {
	if client == nil {
		panic("NewCancelCmd: client dependency cannot be nil")
	}

	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a notification",
		Long: `tmux-localnotify cancel - Cancel a notification

Stops any pending trigger, removes the notification from tmux and deletes
its record.

USAGE:
    tmux-localnotify cancel <id>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ok, err := client.Cancel(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("cancel: %w", err)
			}
			if !ok {
				return fmt.Errorf("cancel: notification %d not found", id)
			}
			colors.Success(fmt.Sprintf("Notification %d cancelled", id))
			return nil
		},
	}
}

// NewCancelAllCmd creates the cancel-all command with explicit dependencies.
func NewCancelAllCmd(client cancelAllClient) *cobra.Command {
	if client == nil {
		panic("NewCancelAllCmd: client dependency cannot be nil")
	}

	var yesFlag bool

	cancelAllCmd := &cobra.Command{
		Use:   "cancel-all",
		Short: "Cancel every notification",
		Long: `tmux-localnotify cancel-all - Cancel every notification

USAGE:
    tmux-localnotify cancel-all [--yes]

OPTIONS:
    -y, --yes       Do not ask for confirmation
    -h, --help      Show this help`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yesFlag && !skipConfirmation() && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Are you sure you want to cancel all notifications? (y/N): ") {
				colors.Info("Operation cancelled")
				return nil
			}
			if err := client.CancelAll(cmd.Context()); err != nil {
				return fmt.Errorf("cancel-all: %w", err)
			}
			colors.Success("All notifications cancelled")
			return nil
		},
	}

	cancelAllCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Do not ask for confirmation")

	return cancelAllCmd
}

// skipConfirmation is true in CI and test environments.
func skipConfirmation() bool {
	return os.Getenv("CI") != "" || os.Getenv("BATS_TMPDIR") != ""
}

// confirm asks a yes/no question. Anything unreadable counts as no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes"
}

var (
	cancelCmd    = NewCancelCmd(appClient)
	cancelAllCmd = NewCancelAllCmd(appClient)
)

func init() {
	cmd.RootCmd.AddCommand(cancelCmd, cancelAllCmd)
}
