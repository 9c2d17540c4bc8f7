package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVerbosityControlsOutput(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf)
	t.Cleanup(func() { SetVerbosity(0) })

	SetVerbosity(0)
	Infof("hidden %d", 1)
	Warnf("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown 2")

	SetVerbosity(2)
	Debugf("debug line")
	assert.Contains(t, buf.String(), "debug line")
	assert.Equal(t, "debug", LevelName())
}

func TestSetVerbosityClamps(t *testing.T) {
	t.Cleanup(func() { SetVerbosity(0) })
	SetVerbosity(9)
	assert.Equal(t, 4, Verbosity())
	assert.Equal(t, "trace", LevelName())
	SetVerbosity(-3)
	assert.Equal(t, 0, Verbosity())
}

func TestParseLevel(t *testing.T) {
	lvl, count, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)
	assert.Equal(t, 2, count)

	_, _, err = ParseLevel("loud")
	assert.Error(t, err)
}
