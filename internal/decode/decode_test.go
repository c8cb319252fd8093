package decode

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWAV constructs a minimal canonical 16-bit stereo 44.1kHz PCM WAV
// file for sniff/decode tests.
func buildWAV(frames int) []byte {
	channels, rate, bits := 2, 44100, 16
	dataSize := frames * channels * bits / 8
	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(rate))
	byteRate := rate * channels * bits / 8
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	blockAlign := channels * bits / 8
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bits))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	return buf
}

func TestSniffWAV(t *testing.T) {
	data := buildWAV(100)
	f, err := Sniff(data, "")
	require.NoError(t, err)
	assert.Equal(t, WAV, f)
}

func TestDecodeWAVOneSecondStereo(t *testing.T) {
	data := buildWAV(44100)
	buf, err := Decode(data, "wav", nil)
	require.NoError(t, err)
	assert.Equal(t, 44100, buf.Frames())
	assert.Equal(t, 2, buf.Info().Channels)
	assert.Equal(t, 16, buf.Info().Bits)
}

func TestSniffShortInputErrors(t *testing.T) {
	_, err := Sniff([]byte{1, 2}, "")
	assert.ErrorIs(t, err, ErrShortInput)
}

func TestSniffFallsBackToExtension(t *testing.T) {
	f, err := Sniff([]byte{0, 0, 0, 0}, "ogg")
	require.NoError(t, err)
	assert.Equal(t, Vorbis, f)
}
