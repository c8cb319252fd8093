package sample

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func s16le(v int16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(v))
	return b
}

func TestMixSaturatesSigned16(t *testing.T) {
	dst := s16le(32767)
	src := s16le(32767)
	Mix(S16, dst, src, 1)
	require.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(dst)))

	dst = s16le(-32768)
	src = s16le(-32768)
	Mix(S16, dst, src, 1)
	require.Equal(t, int16(-32768), int16(binary.LittleEndian.Uint16(dst)))
}

func TestCopyThenMixEqualsMixFromZero(t *testing.T) {
	src := s16le(1234)
	zero := make([]byte, 2)
	Mix(S16, zero, src, 1)

	dst := make([]byte, 2)
	Copy(S16, dst, src, 1)
	Mix(S16, dst, make([]byte, 2), 1)

	assert.Equal(t, zero, dst)
}

func TestS24RoundTrip(t *testing.T) {
	buf := make([]byte, 3)
	storeS24(buf, -1000)
	assert.Equal(t, int32(-1000), loadS24(buf))

	storeS24(buf, s24Max)
	assert.Equal(t, int32(s24Max), loadS24(buf))
}

func TestS24SaturatingMix(t *testing.T) {
	a := make([]byte, 3)
	storeS24(a, s24Max)
	b := make([]byte, 3)
	storeS24(b, s24Max)
	Mix(S24, a, b, 1)
	assert.Equal(t, int32(s24Max), loadS24(a))
}

func TestFloatMixUnclamped(t *testing.T) {
	dst := make([]byte, 4)
	src := make([]byte, 4)
	binary.LittleEndian.PutUint32(dst, math.Float32bits(0.9))
	binary.LittleEndian.PutUint32(src, math.Float32bits(0.9))
	Mix(F32, dst, src, 1)
	got := math.Float32frombits(binary.LittleEndian.Uint32(dst))
	assert.InDelta(t, 1.8, got, 1e-5)
}
