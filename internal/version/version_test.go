package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() { Version, Commit = origVersion, origCommit }()

	tests := []struct {
		name     string
		ver      string
		commit   string
		expected string
	}{
		{name: "development without commit", ver: "development", commit: "unknown", expected: "development"},
		{name: "release with commit", ver: "1.0.0", commit: "abc1234", expected: "1.0.0+abc1234"},
		{name: "empty commit", ver: "0.2.0", commit: "", expected: "0.2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = tt.ver, tt.commit
			assert.Equal(t, tt.expected, String())
			assert.Equal(t, "tmux-localnotify version "+tt.expected, Line())
		})
	}
}
