package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	c := Default()
	c.Link.Transport = "serial"
	c.Link.Port = "/dev/ttyUSB0"
	c.Playback.FrameDelayMs = 250

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("link:\n  transport: serial\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "serial", got.Link.Transport)
	// untouched fields keep their defaults
	assert.Equal(t, 9600, got.Link.Baud)
	assert.Equal(t, "GLHF_API_KEY", got.API.KeyEnv)
	assert.True(t, got.Playback.AutoPlay)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("link: [not a map"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
