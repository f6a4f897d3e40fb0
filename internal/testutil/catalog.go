package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/factoryplan/internal/catalog"
)

// FixtureCatalog compiles the built-in catalog that every fixture plan is
// written against.
func FixtureCatalog() (*catalog.Catalog, error) {
	return catalog.Builtin()
}

// Catalog compiles the fixture catalog or fails the test.
func Catalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := FixtureCatalog()
	require.NoError(t, err, "fixture catalog must compile")
	return c
}

// WriteCatalogDir writes the fixture catalog into a fresh temp directory
// and returns its path, for code that loads catalogs from disk.
func WriteCatalogDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.cue"), []byte(catalog.BuiltinCUE), 0o644))
	return dir
}
