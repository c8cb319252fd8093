package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmsrender/bmsrender/internal/config"
	"github.com/bmsrender/bmsrender/internal/pcm"
)

func TestEncodeWAVRoundTripsHeader(t *testing.T) {
	info := pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 2, RateHz: 44100}
	buf, err := pcm.AllocateFrames(info, 100)
	require.NoError(t, err)

	out, err := Encode(buf, config.OutputWAV, Options{})
	require.NoError(t, err)

	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WAVE", string(out[8:12]))
	assert.Equal(t, "data", string(out[36:40]))
	assert.Equal(t, len(out), 44+len(buf.Bytes()))
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	info := pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 2, RateHz: 44100}
	buf, err := pcm.AllocateFrames(info, 10)
	require.NoError(t, err)

	_, err = Encode(buf, config.OutputFormat("aiff"), Options{})
	assert.Error(t, err)
}
