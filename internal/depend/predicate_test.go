package depend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocm/holo-pkg/internal/depend"
)

func TestParseBareName(t *testing.T) {
	p, err := depend.Parse("libfoo")
	require.NoError(t, err)
	assert.Equal(t, "libfoo", p.Name)
	assert.Equal(t, "", p.Op)
	assert.True(t, p.Satisfies("anything"))
}

func TestParseOperators(t *testing.T) {
	cases := []struct {
		text, name, op, version string
	}{
		{"libfoo>=1.0", "libfoo", ">=", "1.0"},
		{"libfoo<=1.0", "libfoo", "<=", "1.0"},
		{"libfoo>1.0", "libfoo", ">", "1.0"},
		{"libfoo<1.0", "libfoo", "<", "1.0"},
		{"libfoo=1.0", "libfoo", "=", "1.0"},
	}
	for _, c := range cases {
		p, err := depend.Parse(c.text)
		require.NoError(t, err, c.text)
		assert.Equal(t, c.name, p.Name, c.text)
		assert.Equal(t, c.op, p.Op, c.text)
		assert.Equal(t, c.version, p.Version, c.text)
	}
}

func TestParseEmptyIsError(t *testing.T) {
	_, err := depend.Parse("")
	assert.Error(t, err)
}

func TestSatisfies(t *testing.T) {
	p, err := depend.Parse("libfoo>=1.0")
	require.NoError(t, err)
	assert.True(t, p.Satisfies("1.0"))
	assert.True(t, p.Satisfies("2.0"))
	assert.False(t, p.Satisfies("0.9"))
}

func TestConjunctionIntersectsAllPredicates(t *testing.T) {
	lower, err := depend.Parse("libfoo>=1.0")
	require.NoError(t, err)
	upper, err := depend.Parse("libfoo<2.0")
	require.NoError(t, err)

	conj := depend.Intersect("libfoo", []depend.Predicate{lower, upper})
	assert.True(t, conj.Satisfies("1.5"))
	assert.False(t, conj.Satisfies("0.5"))
	assert.False(t, conj.Satisfies("2.5"))
}

func TestStringRoundTrip(t *testing.T) {
	p, err := depend.Parse("libfoo>=1.0")
	require.NoError(t, err)
	assert.Equal(t, "libfoo>=1.0", p.String())
}
