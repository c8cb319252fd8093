package render

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmsrender/bmsrender/internal/bank"
	"github.com/bmsrender/bmsrender/internal/chart"
	"github.com/bmsrender/bmsrender/internal/config"
)

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

func TestPipelineRunProducesNonEmptyOutput(t *testing.T) {
	cfg := config.AppConfig{
		Render: config.RenderConfig{Quality: 0.6, Pitch: 1.0, Tempo: 1.0, Volume: 0.8, Output: config.OutputWAV, MaxAudible: -1},
		PCM:    config.PCMConfig{SampleRate: 44100, Channels: 1, Bits: 16},
		Pool:   config.PoolConfig{Workers: 2},
	}

	src := chart.New([]chart.NoteEvent{
		{TimeMs: 0, Lane: 1, Channel: 1, Autoplay: true},
		{TimeMs: 100, Lane: 1, Channel: 1, Autoplay: true},
	})
	res := bank.MapBank{"tick.wav": buildToneWAV(44100, 50)}

	var lastProgress float64
	p := New(cfg, func(f float64) { lastProgress = f })

	out, err := p.Run(Input{Source: src, SoundFiles: map[int]string{1: "tick.wav"}, Bank: res})
	require.NoError(t, err)
	assert.Greater(t, out.Frames(), 0)
	assert.Equal(t, 1.0, lastProgress)
}

func TestPipelineAppliesVolume(t *testing.T) {
	cfg := config.AppConfig{
		Render: config.RenderConfig{Pitch: 1.0, Tempo: 1.0, Volume: 0.5, Output: config.OutputWAV, MaxAudible: -1},
		PCM:    config.PCMConfig{SampleRate: 44100, Channels: 1, Bits: 16},
		Pool:   config.PoolConfig{Workers: 1},
	}
	src := chart.New([]chart.NoteEvent{{TimeMs: 0, Lane: 1, Channel: 1, Autoplay: true}})
	res := bank.MapBank{"tick.wav": buildToneWAV(44100, 50)}

	p := New(cfg, nil)
	out, err := p.Run(Input{Source: src, SoundFiles: map[int]string{1: "tick.wav"}, Bank: res})
	require.NoError(t, err)
	assert.Greater(t, out.Frames(), 0)
}
