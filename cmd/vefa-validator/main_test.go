package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()

	names := make(map[string]bool)
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["validate"])
	assert.True(t, names["test"])
	assert.True(t, names["packages"])
}

func TestReadJobs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.xml")
	require.NoError(t, os.WriteFile(path, []byte("<doc/>"), 0o644))

	jobs, err := readJobs([]string{path})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, path, jobs[0].Filename)
	assert.Equal(t, "<doc/>", string(jobs[0].Content))

	_, err = readJobs([]string{filepath.Join(dir, "missing.xml")})
	assert.Error(t, err)
}

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.xml", "b.xml", "note.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := expandGlobs([]string{filepath.Join(dir, "*.xml")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.xml"),
		filepath.Join(dir, "b.xml"),
	}, files)

	// Overlapping patterns deduplicate.
	files, err = expandGlobs([]string{
		filepath.Join(dir, "*.xml"),
		filepath.Join(dir, "a.xml"),
	})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
