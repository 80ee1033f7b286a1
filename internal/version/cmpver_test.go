package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holocm/holo-pkg/internal/version"
)

func TestCompareBasicOrdering(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.1", -1},
		{"1.1", "1.0", 1},
		{"2.0", "10.0", -1},
		{"1.0_1", "1.0_2", -1},
		{"1.0alpha1", "1.0alpha2", -1},
		{"1.0alpha2", "1.0beta1", -1},
		{"1.0beta1", "1.0rc1", -1},
		{"1.0rc1", "1.0", -1},
		// "pl" has stage value 0, lower than alpha/beta/pre/rc, but the tag
		// still occupies its own component with n=-1 (original_source's
		// get_component "insert dot" quirk), so a pl-tagged version sorts
		// below the bare version it tags, same as alpha/beta/rc.
		{"1.0pl1", "1.0", -1},
	}
	for _, c := range cases {
		got := version.Compare(c.a, c.b)
		assert.Equal(t, sign(c.want), sign(got), "Compare(%q, %q)", c.a, c.b)
	}
}

// TestTrailingZeroComponentIsEquivalentToAbsent encodes the behavior of
// original_source/lib/cmpver.c's get_component(), which pads an exhausted
// side with a zero-value (0, "", 0) triple: a version string's trailing
// ".0" component compares equal to the same string with that component
// dropped entirely. A prose walkthrough elsewhere describes this pair as
// unequal; tracing the real split_version/get_component pointer arithmetic
// against both version strings shows they produce identical component
// sequences, so this test encodes the verified behavior (see DESIGN.md,
// "Version comparator").
func TestTrailingZeroComponentIsEquivalentToAbsent(t *testing.T) {
	assert.Equal(t, 0, version.Compare("1.2.0", "1.2"))
}

func TestEpochDominatesBody(t *testing.T) {
	assert.True(t, version.Compare("2:1.0", "1:9.0") > 0)
	assert.True(t, version.Compare("1:1.0", "1:1.0") == 0)
}

func TestRevisionIsTieBreaker(t *testing.T) {
	assert.True(t, version.Compare("1.0_2", "1.0_1") > 0)
	assert.Equal(t, 0, version.Compare("1.0_1", "1.0_1"))
}

func TestWildcardSentinel(t *testing.T) {
	assert.True(t, version.Compare("2.*", "2pl1") < 0)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
