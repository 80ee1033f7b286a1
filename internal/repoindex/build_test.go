package repoindex_test

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocm/holo-pkg/internal/pkgdb"
	"github.com/holocm/holo-pkg/internal/repoindex"
)

func propsPlist(pkgname, version string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>pkgname</key>
	<string>` + pkgname + `</string>
	<key>version</key>
	<string>` + version + `</string>
	<key>short_desc</key>
	<string>a test package</string>
	<key>architecture</key>
	<string>x86_64</string>
	<key>run_depends</key>
	<array/>
</dict>
</plist>
`
}

func writeArchive(t *testing.T, path, pkgname, version string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	body := propsPlist(pkgname, version)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "props.plist", Mode: 0644, Size: int64(len(body))}))
	_, err := tw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestBuildIngestsArchivesFromHostArchAndNoarch(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "x86_64", "libfoo-1.0.xbps"), "libfoo", "1.0")
	writeArchive(t, filepath.Join(dir, "noarch", "docs-1.0.xbps"), "docs", "1.0")

	var warnings []error
	result, err := repoindex.Build(dir, "x86_64", func(e error) { warnings = append(warnings, e) })
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.False(t, result.NothingToDo)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 2, result.Index.TotalPkgs())

	_, err = os.Stat(repoindex.IndexPath(dir))
	assert.NoError(t, err)
}

func TestBuildReportsNothingToDoOnEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	result, err := repoindex.Build(dir, "x86_64", func(error) {})
	require.NoError(t, err)
	assert.True(t, result.NothingToDo)
}

func TestBuildWarnsOnUnreadableArchiveButContinues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x86_64"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x86_64", "broken-1.0.xbps"), []byte("not a tar"), 0644))
	writeArchive(t, filepath.Join(dir, "x86_64", "libfoo-1.0.xbps"), "libfoo", "1.0")

	var warnings []error
	result, err := repoindex.Build(dir, "x86_64", func(e error) { warnings = append(warnings, e) })
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Equal(t, 1, result.Added)
}

func TestBuildIsIdempotentOnSecondRun(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "x86_64", "libfoo-1.0.xbps"), "libfoo", "1.0")

	_, err := repoindex.Build(dir, "x86_64", func(error) {})
	require.NoError(t, err)

	result, err := repoindex.Build(dir, "x86_64", func(error) {})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Kept)
	assert.Equal(t, 0, result.Added)
}

func TestRemovePackageRewritesIndex(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, filepath.Join(dir, "x86_64", "libfoo-1.0.xbps"), "libfoo", "1.0")
	_, err := repoindex.Build(dir, "x86_64", func(error) {})
	require.NoError(t, err)

	removed, err := repoindex.RemovePackage(dir, "libfoo")
	require.NoError(t, err)
	assert.True(t, removed)

	idx, err := pkgdb.LoadIndex(repoindex.IndexPath(dir))
	require.NoError(t, err)
	assert.Nil(t, idx.Find("libfoo"))
}
