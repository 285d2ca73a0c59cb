package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/hwtop/internal/config"
)

func TestSubcommandsAreValidModes(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())

		// Every subcommand name must parse as a mode; the run handlers
		// derive the mode from it.
		mode, err := config.ParseMode(cmd.Name())
		require.NoError(t, err)
		assert.Equal(t, cmd.Name(), mode.String())
	}

	assert.ElementsMatch(t, []string{"info", "extra", "plain"}, names)
}
