package plist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocm/holo-pkg/internal/plist"
)

func TestDictPreservesInsertionOrder(t *testing.T) {
	d := plist.NewDict()
	d.Set("zebra", "z")
	d.Set("apple", "a")
	d.Set("mango", "m")
	assert.Equal(t, []string{"zebra", "apple", "mango"}, d.Keys())

	d.Set("apple", "a2")
	assert.Equal(t, []string{"zebra", "apple", "mango"}, d.Keys())
}

func TestDictDeleteRemovesKeyOrder(t *testing.T) {
	d := plist.NewDict()
	d.Set("a", "1")
	d.Set("b", "2")
	d.Delete("a")
	assert.Equal(t, []string{"b"}, d.Keys())
	_, ok := d.Get("a")
	assert.False(t, ok)
}

func TestDictTypedAccessors(t *testing.T) {
	d := plist.NewDict()
	d.Set("name", "libfoo")
	d.Set("size", uint64(42))
	d.Set("broken", true)
	d.Set("tags", plist.StringArray([]string{"x", "y"}))

	s, ok := d.GetString("name")
	require.True(t, ok)
	assert.Equal(t, "libfoo", s)

	n, ok := d.GetUint64("size")
	require.True(t, ok)
	assert.Equal(t, uint64(42), n)

	b, ok := d.GetBool("broken")
	require.True(t, ok)
	assert.True(t, b)

	arr, ok := d.GetArray("tags")
	require.True(t, ok)
	items, err := arr.StringItems()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, items)
}

func TestArrayAppendAndRemoveAt(t *testing.T) {
	a := plist.NewArray()
	a.Append("one")
	a.Append("two")
	a.Append("three")
	a.RemoveAt(1)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, "one", a.At(0))
	assert.Equal(t, "three", a.At(1))
}

func TestArrayStringItemsRejectsNonString(t *testing.T) {
	a := plist.NewArray("ok", uint64(1))
	_, err := a.StringItems()
	assert.Error(t, err)
}
