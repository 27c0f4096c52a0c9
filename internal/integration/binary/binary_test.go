package binary_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/guttation/internal/integration/binary"
)

func TestResolveOverride(t *testing.T) {
	t.Parallel()

	override := filepath.Join(t.TempDir(), "scalene")
	require.NoError(t, os.WriteFile(override, []byte("#!/bin/sh\n"), 0o700))

	path, ok := binary.Resolve(override, "scalene")
	assert.True(t, ok)
	assert.Equal(t, override, path)
}

func TestResolveMissingOverride(t *testing.T) {
	t.Parallel()

	_, ok := binary.Resolve(filepath.Join(t.TempDir(), "absent"), "scalene")
	assert.False(t, ok)
}

func TestResolvePathLookup(t *testing.T) {
	t.Parallel()

	// Any POSIX system has sh on PATH.
	path, ok := binary.Resolve("", "sh")
	assert.True(t, ok)
	assert.NotEmpty(t, path)
}
