package scheduler

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmsrender/bmsrender/internal/bank"
	"github.com/bmsrender/bmsrender/internal/chart"
	"github.com/bmsrender/bmsrender/internal/mixer"
	"github.com/bmsrender/bmsrender/internal/pcm"
)

// buildToneWAV builds a canonical 16-bit mono WAV of durationMs containing
// a non-silent sine tone, so offline-render RMS assertions can
// distinguish "sound played" from "silence".
func buildToneWAV(rate, durationMs int) []byte {
	frames := rate * durationMs / 1000
	dataSize := frames * 2
	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(rate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i := 0; i < frames; i++ {
		v := int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(v))
	}
	return buf
}

func rms(buf pcm.Buffer, startMs, endMs int64) float64 {
	rate := buf.Info().RateHz
	startFrame := int(startMs) * rate / 1000
	endFrame := int(endMs) * rate / 1000
	data := buf.Bytes()

	var sumSq float64
	n := 0
	for f := startFrame; f < endFrame && f < buf.Frames(); f++ {
		off := f * 2
		v := int16(binary.LittleEndian.Uint16(data[off:]))
		sumSq += float64(v) * float64(v)
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}

// TestOfflineRenderWindows exercises an offline render with three NoteOn
// events on lane 1 at 0/100/200ms, each bound to a 50ms tick sample on
// channel 1. RecordTo must yield non-zero RMS energy in [0,50], [100,150],
// [200,250] and zero RMS in the gaps between.
func TestOfflineRenderWindows(t *testing.T) {
	rate := 44100
	info := pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 1, RateHz: rate}

	src := chart.New([]chart.NoteEvent{
		{TimeMs: 0, Lane: 1, Channel: 1, Autoplay: true},
		{TimeMs: 100, Lane: 1, Channel: 1, Autoplay: true},
		{TimeMs: 200, Lane: 1, Channel: 1, Autoplay: true},
	})

	bk := bank.MapBank{"tick.wav": buildToneWAV(rate, 50)}
	soundFiles := map[int]string{1: "tick.wav"}

	m := mixer.New(info, 4, -1, false)
	s := New(src, soundFiles, bk, m, info, Config{Autoplay: true, BaseVolume: 1.0})

	for {
		_, done, err := s.LoadNext()
		require.NoError(t, err)
		if done {
			break
		}
	}

	out, err := s.RecordTo()
	require.NoError(t, err)

	assert.Greater(t, rms(out, 0, 50), 100.0)
	assert.Greater(t, rms(out, 100, 150), 100.0)
	assert.Greater(t, rms(out, 200, 250), 100.0)

	assert.Less(t, rms(out, 50, 100), 1.0)
	assert.Less(t, rms(out, 150, 200), 1.0)
	assert.Less(t, rms(out, 250, 300), 1.0)
}

func TestGetLastSoundTime(t *testing.T) {
	src := chart.New([]chart.NoteEvent{
		{TimeMs: 0, Lane: 1, Channel: 1, DurationMs: 200},
		{TimeMs: 500, Lane: 1, Channel: 1},
	})
	s := New(src, nil, bank.MapBank{}, mixer.New(pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 1, RateHz: 44100}, 4, -1, false), pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 1, RateHz: 44100}, Config{})
	assert.Equal(t, int64(500), s.GetLastSoundTime())
}

func TestLoadAllParallel(t *testing.T) {
	info := pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 1, RateHz: 44100}
	src := chart.New([]chart.NoteEvent{{TimeMs: 0, Lane: 1, Channel: 1}})
	bk := bank.MapBank{"tick.wav": buildToneWAV(44100, 50)}
	m := mixer.New(info, 4, -1, false)
	s := New(src, map[int]string{1: "tick.wav"}, bk, m, info, Config{Autoplay: true})

	err := s.LoadAllParallel(NewLoadPool(2))
	require.NoError(t, err)

	_, done, err := s.LoadNext()
	require.NoError(t, err)
	assert.True(t, done)
}
