package root_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocm/holo-pkg/internal/root"
)

func TestNewDefaultsToSlash(t *testing.T) {
	h := root.New("")
	assert.Equal(t, "/", h.Path())
}

func TestJoinResolvesRelativePath(t *testing.T) {
	h := root.New("/var/target")
	p, err := h.Join("usr/bin/foo")
	require.NoError(t, err)
	assert.Equal(t, "/var/target/usr/bin/foo", p)
}

func TestJoinRejectsEscapeViaDotDot(t *testing.T) {
	h := root.New("/var/target")
	_, err := h.Join("../../etc/passwd")
	assert.Error(t, err)
}

func TestJoinAllowsRootItself(t *testing.T) {
	h := root.New("/var/target")
	p, err := h.Join(".")
	require.NoError(t, err)
	assert.Equal(t, "/var/target", p)
}

func TestWellKnownPathsAreBeneathMetaDir(t *testing.T) {
	h := root.New("/var/target")
	assert.Equal(t, "/var/target/var/db/xbps/regpkgdb.plist", h.RegpkgdbPath())
	assert.Equal(t, "/var/target/var/db/xbps/repositories.plist", h.RepositoriesPath())
	assert.Equal(t, "/var/target/var/db/xbps/metadata/libfoo", h.MetadataDir("libfoo"))
	assert.Equal(t, "/var/target/var/db/xbps/.regpkgdb.lock", h.LockPath())
}

func TestHasShellReflectsRootContents(t *testing.T) {
	dir := t.TempDir()
	h := root.New(dir)
	assert.False(t, h.HasShell())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", "sh"), []byte("#!/bin/sh\n"), 0755))
	assert.True(t, h.HasShell())
}
