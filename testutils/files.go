package testutils

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFiles writes each name to content below dir, creating directories as
// needed, and returns the written paths sorted.
func WriteFiles(t *testing.T, dir string, files map[string]string) []string {
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ReadFile returns the content of path, failing the test if it cannot be
// read.
func ReadFile(t *testing.T, path string) string {
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}
