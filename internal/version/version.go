// Package version holds build information for tmux-localnotify.
package version

import "fmt"

// Name is the binary name shown in version output.
const Name = "tmux-localnotify"

// Version is overridden at build time using ldflags.
var Version = "development"

// Commit is the git commit hash. It is overridden at build time using ldflags.
var Commit = "unknown"

// String returns the version including the commit hash when known.
func String() string {
	if Commit != "unknown" && Commit != "" {
		return Version + "+" + Commit
	}
	return Version
}

// Line returns the single line printed by the version command.
func Line() string {
	return fmt.Sprintf("%s version %s", Name, String())
}
