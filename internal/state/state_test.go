package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holocm/holo-pkg/internal/state"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

func TestValidTransitions(t *testing.T) {
	cases := []struct {
		from, to state.State
	}{
		{state.NotInstalled, state.Unpacked},
		{state.Unpacked, state.Installed},
		{state.Unpacked, state.Broken},
		{state.Installed, state.ConfigFiles},
		{state.Installed, state.NotInstalled},
		{state.Broken, state.NotInstalled},
		{state.ConfigFiles, state.NotInstalled},
	}
	for _, c := range cases {
		assert.NoError(t, state.Transition("pkg", c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestInvalidTransitionIsRejected(t *testing.T) {
	err := state.Transition("pkg", state.NotInstalled, state.Installed)
	assert.True(t, xbpserr.Is(err, xbpserr.StateInvalid))
}

func TestUnrecognizedStateIsRejected(t *testing.T) {
	err := state.Transition("pkg", state.State("bogus"), state.Installed)
	assert.True(t, xbpserr.Is(err, xbpserr.StateInvalid))
}
