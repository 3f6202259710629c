package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountDocWords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs", "guide"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("one two three"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "intro.md"), []byte("four\nfive"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "guide", "usage.md"), []byte("six"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "DESIGN.md"), []byte("not counted at all"), 0o644))
	t.Chdir(dir)

	words, err := countDocWords()
	require.NoError(t, err)
	assert.Equal(t, 6, words)
}
