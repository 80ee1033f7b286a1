package pkgdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocm/holo-pkg/internal/descriptor"
	"github.com/holocm/holo-pkg/internal/pkgdb"
	"github.com/holocm/holo-pkg/internal/state"
)

func TestRegistryInsertAndFind(t *testing.T) {
	r := pkgdb.NewRegistry()
	d := &pkgdb.InstalledDescriptor{
		Descriptor: descriptor.Descriptor{PkgName: "libfoo", Version: "1.0"},
		State:      state.Installed,
	}
	require.NoError(t, r.Insert(d))
	assert.Equal(t, d, r.Find("libfoo"))

	err := r.Insert(d)
	assert.Error(t, err)
}

func TestRequiredBySetIsDeduplicated(t *testing.T) {
	d := &pkgdb.InstalledDescriptor{Descriptor: descriptor.Descriptor{PkgName: "libbar", Version: "1.0"}}
	d.AddRequiredBy("app-1.0")
	d.AddRequiredBy("app-1.0")
	assert.Equal(t, []string{"app-1.0"}, d.RequiredBy)
	assert.True(t, d.HasRequiredBy("app-1.0"))

	d.RemoveRequiredBy("app-1.0")
	assert.False(t, d.HasRequiredBy("app-1.0"))
	assert.Empty(t, d.RequiredBy)
}

func TestRegistryNodeRoundTrip(t *testing.T) {
	r := pkgdb.NewRegistry()
	d := &pkgdb.InstalledDescriptor{
		Descriptor:       descriptor.Descriptor{PkgName: "libfoo", Version: "1.0"},
		State:            state.Installed,
		AutomaticInstall: true,
		RequiredBy:       []string{"app-1.0"},
		Files:            []pkgdb.FileEntry{{Path: "usr/lib/libfoo.so", SHA256: "deadbeef"}},
	}
	require.NoError(t, r.Insert(d))

	node := r.ToNode()
	restored, err := pkgdb.RegistryFromNode(node)
	require.NoError(t, err)

	got := restored.Find("libfoo")
	require.NotNil(t, got)
	assert.Equal(t, state.Installed, got.State)
	assert.True(t, got.AutomaticInstall)
	assert.Equal(t, []string{"app-1.0"}, got.RequiredBy)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "usr/lib/libfoo.so", got.Files[0].Path)
	assert.Equal(t, "deadbeef", got.Files[0].SHA256)
}

func TestRegistryRemove(t *testing.T) {
	r := pkgdb.NewRegistry()
	require.NoError(t, r.Insert(&pkgdb.InstalledDescriptor{Descriptor: descriptor.Descriptor{PkgName: "libfoo"}}))
	r.Remove("libfoo")
	assert.Nil(t, r.Find("libfoo"))
}
