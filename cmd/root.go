package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cristianoliveira/tmux-localnotify/internal/version"
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:           "tmux-localnotify",
	Short:         "Schedule local notifications for your tmux session.",
	Long:          `Schedule local notifications for your tmux session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with the given arguments.
func Execute(args []string) error {
	RootCmd.SetArgs(args)
	return RootCmd.Execute()
}

// outputWriter overrides the help destination in tests.
var outputWriter io.Writer

func init() {
	RootCmd.Version = version.String()

	// Hide the completion command
	RootCmd.CompletionOptions.HiddenDefaultCmd = true

	RootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != cmd.Root() {
			w := outputWriter
			if w == nil {
				w = cmd.OutOrStdout()
			}
			fmt.Fprintln(w, cmd.Long)
			return
		}
		PrintHelp(cmd)
	})
}

var commandOrder = []string{
	"schedule",
	"update",
	"get",
	"list",
	"clear",
	"cancel",
	"clear-all",
	"cancel-all",
	"badge",
	"run",
	"help",
	"version",
}

// PrintHelp prints the command overview in a fixed order.
func PrintHelp(cmd *cobra.Command) {
	var cmdLines []string
	for _, name := range commandOrder {
		var found *cobra.Command
		for _, c := range cmd.Commands() {
			if c.Name() == name {
				found = c
				break
			}
		}
		if found == nil {
			continue
		}
		cmdLines = append(cmdLines, fmt.Sprintf("    %-22s %s", found.Use, found.Short))
	}

	helpText := fmt.Sprintf(`tmux-localnotify v%s

Schedule local notifications for your tmux session.

USAGE:
    tmux-localnotify [COMMAND] [OPTIONS]

COMMANDS:
%s

OPTIONS:
    -h, --help      Show help message
`, cmd.Version, strings.Join(cmdLines, "\n"))

	w := outputWriter
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprint(w, helpText)
}
