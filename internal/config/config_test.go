package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRender(t *testing.T) {
	cfg := DefaultRender()
	assert.Equal(t, 1.0, cfg.Pitch)
	assert.Equal(t, 1.0, cfg.Tempo)
	assert.True(t, cfg.StopDuplicatedSound)
	assert.Equal(t, OutputWAV, cfg.Output)
}

func TestRenderFromEnvOverrides(t *testing.T) {
	os.Setenv("RENDER_PITCH", "1.5")
	os.Setenv("RENDER_OUTPUT", "FLAC")
	defer os.Unsetenv("RENDER_PITCH")
	defer os.Unsetenv("RENDER_OUTPUT")

	cfg := RenderFromEnv()
	assert.Equal(t, 1.5, cfg.Pitch)
	assert.Equal(t, OutputFLAC, cfg.Output)
}

func TestDefaultPCM(t *testing.T) {
	cfg := DefaultPCM()
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, 2, cfg.Channels)
	assert.Equal(t, 16, cfg.Bits)
}
