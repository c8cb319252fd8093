package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

func testInfo() pcm.Info {
	return pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 2, RateHz: 44100}
}

func TestChannelExhaustion(t *testing.T) {
	info := testInfo()
	m := New(info, 4, -1, false)

	snd, err := pcm.AllocateFrames(info, 100)
	require.NoError(t, err)
	cached, err := m.CreateSound("tick", snd)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		ch := m.PlaySound("tick", cached, 1)
		require.NotNil(t, ch, "slot %d should be available", i)
	}

	for i := 0; i < 5; i++ {
		ch := m.PlaySound("tick", cached, 1)
		assert.Nil(t, ch, "all channels are occupied, no slot should be stolen")
	}
}

func TestMixAllSaturatesSigned16(t *testing.T) {
	info := pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 1, RateHz: 44100}
	m := New(info, 2, -1, false)

	loud, err := pcm.AllocateFrames(info, 1)
	require.NoError(t, err)
	sample.Store(sample.S16, loud.Bytes(), 0, 1.0) // max positive
	cached, err := m.CreateSound("loud", loud)
	require.NoError(t, err)

	m.PlaySound("loud", cached, 1)
	m.PlaySound("loud", cached, 1)
	m.Update()

	dst := make([]byte, info.BytesPerFrame())
	m.MixAll(dst, 1)

	v := sample.Load(sample.S16, dst, 0)
	assert.InDelta(t, 1.0, v, 0.001, "mixing two max-amplitude samples must saturate, not overflow")
}

func TestPlaySoundStopsDuplicateWhenEnabled(t *testing.T) {
	info := testInfo()
	m := New(info, 4, -1, true)

	snd, err := pcm.AllocateFrames(info, 1000)
	require.NoError(t, err)
	cached, err := m.CreateSound("kick", snd)
	require.NoError(t, err)

	first := m.PlaySound("kick", cached, 1)
	require.NotNil(t, first)
	assert.True(t, first.IsPlaying())

	m.PlaySound("kick", cached, 1)
	assert.False(t, first.IsPlaying(), "stop_duplicated_sound should stop the prior instance")
}

func TestChannelPlayStopInvariant(t *testing.T) {
	c := NewChannel(testInfo())
	assert.False(t, c.IsPlaying())
	c.Play(3)
	assert.True(t, c.IsPlaying())
	c.Stop()
	assert.False(t, c.IsPlaying())
}
