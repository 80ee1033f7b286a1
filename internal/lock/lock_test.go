package lock_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocm/holo-pkg/internal/lock"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", ".regpkgdb.lock")

	l, err := lock.Acquire(path)
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.NoError(t, l.Release())
}

func TestAcquireFailsWhenAlreadyHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", ".regpkgdb.lock")

	first, err := lock.Acquire(path)
	require.NoError(t, err)
	defer first.Release()

	_, err = lock.Acquire(path)
	assert.Error(t, err)
}

func TestReleaseOnNilLockIsSafe(t *testing.T) {
	var l *lock.Lock
	assert.NoError(t, l.Release())
}
