package script_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocm/holo-pkg/internal/root"
	"github.com/holocm/holo-pkg/internal/script"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

func TestRunIsNoOpOnEmptyContent(t *testing.T) {
	h := root.New(t.TempDir())
	assert.NoError(t, script.Run(h, nil, script.Install, script.Post, "libfoo-1.0"))
}

func TestRunExecutesScriptWithinTargetRoot(t *testing.T) {
	dir := t.TempDir()
	h := root.New(dir)

	content := []byte("#!/bin/sh\ntouch \"$(dirname \"$0\")/../marker\"\n")
	err := script.Run(h, content, script.Install, script.Post, "libfoo-1.0")
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "var", "db", "xbps", "marker"))
	assert.NoError(t, statErr)
}

func TestRunReportsNonzeroExitAsScriptFailed(t *testing.T) {
	h := root.New(t.TempDir())
	content := []byte("#!/bin/sh\nexit 1\n")

	err := script.Run(h, content, script.Remove, script.Pre, "libfoo-1.0")
	require.Error(t, err)
	assert.True(t, xbpserr.Is(err, xbpserr.ScriptFailed))
}

func TestDescribeFormatsKindAndStage(t *testing.T) {
	assert.Equal(t, "INSTALL script (post)", script.Describe(script.Install, script.Post))
}
