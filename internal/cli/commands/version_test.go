package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"0.1.0", "chainlint v0.1.0"},
		{"1.2.3", "chainlint v1.2.3"},
		{"dev", "chainlint vdev"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			stdout, _, err := execute(t, NewVersionCommand(tt.version))
			require.NoError(t, err)
			assert.Contains(t, stdout, tt.want)
			assert.Contains(t, stdout, "SQLAlchemy")
		})
	}
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand("test")

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}
