package effect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

func sineBuffer(t *testing.T, freq float64, seconds float64) pcm.Buffer {
	t.Helper()
	info := pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 2, RateHz: 44100}
	frames := int(float64(info.RateHz) * seconds)
	buf, err := pcm.AllocateFrames(info, frames)
	require.NoError(t, err)
	data := buf.Bytes()
	stride := info.BytesPerFrame()
	bps := info.BytesPerSample()
	for i := 0; i < frames; i++ {
		v := math.Sin(2 * math.Pi * freq * float64(i) / float64(info.RateHz))
		for ch := 0; ch < info.Channels; ch++ {
			sample.Store(sample.S16, data, i*stride+ch*bps, v)
		}
	}
	return buf
}

func TestPitchLengthLaw(t *testing.T) {
	buf := sineBuffer(t, 440, 1.0)
	out, err := Pitch(buf, 2.0)
	require.NoError(t, err)
	want := buf.Frames() / 2
	assert.InDelta(t, want, out.Frames(), 1)
}

func TestTempoLengthLaw(t *testing.T) {
	buf := sineBuffer(t, 440, 3.0)
	out, err := Tempo(buf, 0.666)
	require.NoError(t, err)
	want := int(float64(buf.Frames()) * 0.666)
	assert.InDelta(t, want, out.Frames(), 1)
}

func TestIdentityComposition(t *testing.T) {
	buf := sineBuffer(t, 440, 0.1)

	v, err := Volume(buf, 1.0)
	require.NoError(t, err)
	p, err := Pitch(v, 1.0)
	require.NoError(t, err)
	tmp, err := Tempo(p, 1.0)
	require.NoError(t, err)

	require.Equal(t, buf.Frames(), tmp.Frames())
	assert.Equal(t, buf.Bytes(), tmp.Bytes())
}

func TestVolumeSaturates(t *testing.T) {
	info := pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 1, RateHz: 44100}
	buf, err := pcm.AllocateFrames(info, 1)
	require.NoError(t, err)
	sample.Store(sample.S16, buf.Bytes(), 0, 0.9)

	out, err := Volume(buf, 2.0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sample.Load(sample.S16, out.Bytes(), 0), 0.001)
}

func TestPitchRejectsNonPositiveRatio(t *testing.T) {
	buf := sineBuffer(t, 440, 0.1)
	_, err := Pitch(buf, 0)
	assert.Error(t, err)
}

func TestTempoRejectsNonPositiveLength(t *testing.T) {
	buf := sineBuffer(t, 440, 0.1)
	_, err := Tempo(buf, -1)
	assert.Error(t, err)
}
