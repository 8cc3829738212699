package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestPrintHelp(t *testing.T) {
	root := &cobra.Command{Use: "tmux-localnotify", Version: "0.1.0"}
	root.AddCommand(
		&cobra.Command{Use: "version", Short: "Show version information"},
		&cobra.Command{Use: "schedule [json]", Short: "Schedule a notification"},
		&cobra.Command{Use: "badge [n]", Short: "Show or set the badge number"},
		&cobra.Command{Use: "hidden-extra", Short: "Not listed"},
	)

	var buf bytes.Buffer
	outputWriter = &buf
	defer func() { outputWriter = nil }()

	PrintHelp(root)
	output := buf.String()

	assert.Contains(t, output, "tmux-localnotify v0.1.0")
	assert.Contains(t, output, "USAGE:")
	assert.Contains(t, output, "COMMANDS:")
	assert.Contains(t, output, "OPTIONS:")
	assert.NotContains(t, output, "hidden-extra")

	schedule := strings.Index(output, "schedule [json]")
	badge := strings.Index(output, "badge [n]")
	ver := strings.Index(output, "version")
	assert.True(t, schedule > 0 && schedule < badge && badge < ver, "commands follow the fixed order")
}

func TestHelpCommandPrintsRootHelp(t *testing.T) {
	var buf bytes.Buffer
	outputWriter = &buf
	defer func() { outputWriter = nil }()

	helpCmd.Run(helpCmd, nil)
	assert.Contains(t, buf.String(), "tmux-localnotify v")
}
