package pcm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateFramesInvariant(t *testing.T) {
	b, err := AllocateFrames(Default(), 1000)
	require.NoError(t, err)
	assert.NoError(t, b.CheckInvariant())
	assert.Equal(t, 1000*2*2, len(b.Bytes()))
}

func TestEmptyBufferHasZeroSizes(t *testing.T) {
	b := Empty(Default())
	assert.True(t, b.IsEmpty())
	assert.Equal(t, 0, b.Frames())
	assert.Equal(t, 0, len(b.Bytes()))
}

func TestCloneIsIndependent(t *testing.T) {
	b, _ := AllocateFrames(Default(), 10)
	c := b.Clone()
	c.Bytes()[0] = 0xFF
	assert.NotEqual(t, b.Bytes()[0], c.Bytes()[0])
}

func TestResampleMonoToStereoDuplicates(t *testing.T) {
	mono := Info{Sign: Signed, Bits: 16, Channels: 1, RateHz: 44100}
	b, _ := AllocateFrames(mono, 4)
	stereo, err := b.ResampleTo(Info{Sign: Signed, Bits: 16, Channels: 2, RateHz: 44100})
	require.NoError(t, err)
	assert.Equal(t, 2, stereo.Info().Channels)
	assert.Equal(t, b.Frames(), stereo.Frames())
}

func TestRejectUnsigned24Bit(t *testing.T) {
	i := Info{Sign: Unsigned, Bits: 24, Channels: 2, RateHz: 44100}
	assert.Error(t, i.Validate())
}

func TestRejectNonStandardFloatDepth(t *testing.T) {
	i := Info{Sign: Float, Bits: 16, Channels: 2, RateHz: 44100}
	assert.Error(t, i.Validate())
}
