// Package testutils holds fixtures shared by loader tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo initializes a Loam repository in a fresh temp dir and returns
// its absolute path. It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "resolve temp dir")

	repo, err := loam.Init(dir, opts...)
	require.NoError(t, err, "init loam repo")

	return dir, repo
}

// WriteEntity writes an entity document at dir/id.md, creating parent
// directories for nested IDs such as "town/well".
func WriteEntity(t *testing.T, dir, id, content string) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(id)+".md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
