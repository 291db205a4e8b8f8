// Test Type: Unit Test
// Description: Tests for the shared test file helpers

package testutil_test

import (
	"testing"

	"github.com/arthur-debert/packsmith/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestWriteFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFiles(t, fs, map[string]string{
		"/a/b/c.txt": "deep",
		"/top.txt":   "top",
	})

	assert.Equal(t, "deep", testutil.ReadFile(t, fs, "/a/b/c.txt"))
	assert.Equal(t, "top", testutil.ReadFile(t, fs, "/top.txt"))
}

func TestWriteFilesUnder(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFilesUnder(t, fs, "/root", map[string]string{"x/y.txt": "y"})

	assert.Equal(t, "y", testutil.ReadFile(t, fs, "/root/x/y.txt"))
}
