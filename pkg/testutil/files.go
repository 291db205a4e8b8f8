package testutil

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// WriteFiles creates every file with mode 0644, making parent directories
// as needed. Keys are paths on fs, values the file contents.
func WriteFiles(t testing.TB, fs afero.Fs, files map[string]string) {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0755))
		require.NoError(t, afero.WriteFile(fs, name, []byte(files[name]), 0644))
	}
}

// WriteFilesUnder is WriteFiles with every key joined onto root
func WriteFilesUnder(t testing.TB, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	joined := make(map[string]string, len(files))
	for name, content := range files {
		joined[filepath.Join(root, filepath.FromSlash(name))] = content
	}
	WriteFiles(t, fs, joined)
}

// ReadFile returns the content of path, failing the test if it cannot be read
func ReadFile(t testing.TB, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}
