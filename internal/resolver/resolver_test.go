package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocm/holo-pkg/internal/descriptor"
	"github.com/holocm/holo-pkg/internal/pkgdb"
	"github.com/holocm/holo-pkg/internal/resolver"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

func mustAdd(t *testing.T, idx *pkgdb.Index, d *descriptor.Descriptor) {
	t.Helper()
	require.NoError(t, idx.Add(d))
}

func TestResolveOrdersDependenciesBeforeDependents(t *testing.T) {
	idx := pkgdb.NewIndex("/repo")
	mustAdd(t, idx, &descriptor.Descriptor{PkgName: "libbar", Version: "1.0"})
	mustAdd(t, idx, &descriptor.Descriptor{PkgName: "app", Version: "1.0", RunDepends: []string{"libbar"}})

	registry := pkgdb.NewRegistry()
	steps, err := resolver.New([]*pkgdb.Index{idx}, registry).Resolve([]string{"app"})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "libbar", steps[0].Descriptor.PkgName)
	assert.Equal(t, "app", steps[1].Descriptor.PkgName)
	assert.True(t, steps[0].Automatic)
	assert.False(t, steps[1].Automatic)
}

func TestResolveDetectsCycle(t *testing.T) {
	idx := pkgdb.NewIndex("/repo")
	mustAdd(t, idx, &descriptor.Descriptor{PkgName: "a", Version: "1.0", RunDepends: []string{"b"}})
	mustAdd(t, idx, &descriptor.Descriptor{PkgName: "b", Version: "1.0", RunDepends: []string{"a"}})

	registry := pkgdb.NewRegistry()
	_, err := resolver.New([]*pkgdb.Index{idx}, registry).Resolve([]string{"a"})
	require.Error(t, err)
	assert.True(t, xbpserr.Is(err, xbpserr.Cycle))
}

func TestResolveReportsUnsatisfiableConstraint(t *testing.T) {
	idx := pkgdb.NewIndex("/repo")
	mustAdd(t, idx, &descriptor.Descriptor{PkgName: "libbar", Version: "1.0", RunDepends: []string{}})
	mustAdd(t, idx, &descriptor.Descriptor{PkgName: "a", Version: "1.0", RunDepends: []string{"libbar>=2.0"}})

	registry := pkgdb.NewRegistry()
	_, err := resolver.New([]*pkgdb.Index{idx}, registry).Resolve([]string{"a"})
	require.Error(t, err)
	assert.True(t, xbpserr.Is(err, xbpserr.UnsatisfiableConstraint))
}

func TestResolveHonorsRepositoryPriorityOnVersionTie(t *testing.T) {
	primary := pkgdb.NewIndex("/primary")
	mustAdd(t, primary, &descriptor.Descriptor{PkgName: "libfoo", Version: "2.0"})
	secondary := pkgdb.NewIndex("/secondary")
	mustAdd(t, secondary, &descriptor.Descriptor{PkgName: "libfoo", Version: "2.0"})

	registry := pkgdb.NewRegistry()
	steps, err := resolver.New([]*pkgdb.Index{primary, secondary}, registry).Resolve([]string{"libfoo"})
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Same(t, primary.Find("libfoo"), steps[0].Descriptor)
}

// TestResolveHighestVersionWinsAcrossRepos exercises spec's unconstrained
// resolution rule directly: the lower-priority repo holds the higher
// version, so a resolver that merely picked the first repo containing the
// name would wrongly return 1.0 instead of 2.0.
func TestResolveHighestVersionWinsAcrossRepos(t *testing.T) {
	primary := pkgdb.NewIndex("/primary")
	mustAdd(t, primary, &descriptor.Descriptor{PkgName: "libfoo", Version: "1.0"})
	secondary := pkgdb.NewIndex("/secondary")
	mustAdd(t, secondary, &descriptor.Descriptor{PkgName: "libfoo", Version: "2.0"})

	registry := pkgdb.NewRegistry()
	steps, err := resolver.New([]*pkgdb.Index{primary, secondary}, registry).Resolve([]string{"libfoo"})
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "2.0", steps[0].Descriptor.Version)
}

func TestResolveMarksKeepWhenAlreadyCurrent(t *testing.T) {
	idx := pkgdb.NewIndex("/repo")
	mustAdd(t, idx, &descriptor.Descriptor{PkgName: "libfoo", Version: "1.0"})

	registry := pkgdb.NewRegistry()
	require.NoError(t, registry.Insert(&pkgdb.InstalledDescriptor{
		Descriptor: descriptor.Descriptor{PkgName: "libfoo", Version: "1.0"},
	}))

	steps, err := resolver.New([]*pkgdb.Index{idx}, registry).Resolve([]string{"libfoo"})
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, resolver.Keep, steps[0].Action)
}
