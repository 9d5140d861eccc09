package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("server:\n  port: \"9090\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, DefaultWidth, cfg.RenderWidth)
	assert.Equal(t, DefaultHeight, cfg.RenderHeight)
	assert.Equal(t, DefaultFPS, cfg.RenderFPS)
	assert.Equal(t, MaxVideoBytes, cfg.MaxVideoBytes)
	assert.Equal(t, "private", cfg.DefaultPrivacy)
	assert.Equal(t, defaultRenderTimeout, cfg.RenderTimeout)
	assert.Equal(t, defaultArtifactTTL, cfg.ArtifactTTL)
}

func TestParseDurations(t *testing.T) {
	cfg, err := Parse([]byte("render:\n  timeout: 90s\nretention:\n  artifact_ttl: bogus\n"))
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.RenderTimeout)
	assert.Equal(t, defaultArtifactTTL, cfg.ArtifactTTL, "invalid durations fall back to the default")
}

func TestManagerCreatesDefaultFileAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := NewManager(path)

	cfg, err := m.Load()
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err, "missing config file is created with defaults")

	cfg.RenderFPS = 24
	cfg.RenderTimeout = 2 * time.Minute
	require.NoError(t, m.Save(cfg))

	reloaded, err := m.Reload()
	require.NoError(t, err)
	assert.Equal(t, 24, reloaded.RenderFPS)
	assert.Equal(t, 2*time.Minute, reloaded.RenderTimeout)
	assert.Same(t, reloaded, m.Get())
}
