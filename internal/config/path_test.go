package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("TALLY_TEST_DIR", "/data")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty path",
			input:    "",
			expected: "",
		},
		{
			name:     "plain path unchanged",
			input:    "/var/lib/tally.db",
			expected: "/var/lib/tally.db",
		},
		{
			name:     "tilde prefix",
			input:    "~/.local/share/tally/tally.db",
			expected: filepath.Join(home, ".local", "share", "tally", "tally.db"),
		},
		{
			name:     "bare tilde",
			input:    "~",
			expected: home,
		},
		{
			name:     "environment variable",
			input:    "$TALLY_TEST_DIR/tally.db",
			expected: "/data/tally.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}

func TestDefaultDatabasePath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	assert.Equal(t, filepath.Join("/custom/data", "tally", "tally.db"), DefaultDatabasePath())

	t.Setenv("XDG_DATA_HOME", "")
	assert.Contains(t, DefaultDatabasePath(), filepath.Join("tally", "tally.db"))
}
