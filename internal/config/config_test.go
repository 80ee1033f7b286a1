package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocm/holo-pkg/internal/config"
)

func TestLoadMissingFileYieldsZeroValue(t *testing.T) {
	s, err := config.Load(filepath.Join(t.TempDir(), "nope.conf"))
	require.NoError(t, err)
	assert.Equal(t, config.Settings{}, s)
}

func TestLoadParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xbps.conf")
	body := "Root = \"/mnt/target\"\n" +
		"Architecture = \"x86_64\"\n" +
		"Repositories = [\"/srv/repo1\", \"/srv/repo2\"]\n" +
		"SyncOnStart = true\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/target", s.Root)
	assert.Equal(t, "x86_64", s.Architecture)
	assert.Equal(t, []string{"/srv/repo1", "/srv/repo2"}, s.Repositories)
	assert.True(t, s.SyncOnStart)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xbps.conf")
	require.NoError(t, os.WriteFile(path, []byte("this is not = valid [ toml"), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestResolveRootPrefersFlagThenSettingsThenDefault(t *testing.T) {
	s := config.Settings{Root: "/from/settings"}
	assert.Equal(t, "/from/flag", s.ResolveRoot("/from/flag"))
	assert.Equal(t, "/from/settings", s.ResolveRoot(""))
	assert.Equal(t, "/", config.Settings{}.ResolveRoot(""))
}

func TestResolveArchitecturePrefersFlagThenSettings(t *testing.T) {
	s := config.Settings{Architecture: "armv7l"}
	assert.Equal(t, "x86_64", s.ResolveArchitecture("x86_64"))
	assert.Equal(t, "armv7l", s.ResolveArchitecture(""))
}
