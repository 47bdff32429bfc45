package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion, originalCommit, originalDate := version, commit, date
	SetVersionInfo("1.2.3", "abc123", "2025-04-23")
	defer SetVersionInfo(originalVersion, originalCommit, originalDate)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "seqpack version 1.2.3")
	assert.Contains(t, out, "abc123")
}
