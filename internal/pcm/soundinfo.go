// Package pcm implements the PCM buffer abstraction: an owning,
// contiguous byte region plus a SoundInfo format descriptor, with
// allocate/clone/swap/take-ownership operations and rate/width/channel
// resampling.
package pcm

import (
	"fmt"

	"github.com/bmsrender/bmsrender/internal/sample"
)

// SignClass distinguishes how a sample's bit pattern is interpreted.
// This replaces an overloaded "2 means float" integer encoding with an
// explicit sum type.
type SignClass int

const (
	Unsigned SignClass = iota
	Signed
	Float
)

func (s SignClass) String() string {
	switch s {
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	case Float:
		return "float"
	}
	return "unknown"
}

// Info is the immutable format descriptor anchoring every PCM buffer.
type Info struct {
	Sign     SignClass
	Bits     int
	Channels int
	RateHz   int
}

// Validate rejects unsupported combinations: (unsigned, 24) and
// (float, bits != 32 && bits != 64).
func (i Info) Validate() error {
	if i.Channels < 1 {
		return fmt.Errorf("pcm: channels must be >= 1, got %d", i.Channels)
	}
	if i.RateHz < 1 {
		return fmt.Errorf("pcm: rate_hz must be >= 1, got %d", i.RateHz)
	}
	switch i.Sign {
	case Unsigned:
		if i.Bits == 24 {
			return fmt.Errorf("pcm: unsigned 24-bit samples are not supported")
		}
		if i.Bits != 8 && i.Bits != 16 && i.Bits != 32 {
			return fmt.Errorf("pcm: unsupported unsigned bit depth %d", i.Bits)
		}
	case Signed:
		if i.Bits != 8 && i.Bits != 16 && i.Bits != 24 && i.Bits != 32 {
			return fmt.Errorf("pcm: unsupported signed bit depth %d", i.Bits)
		}
	case Float:
		if i.Bits != 32 && i.Bits != 64 {
			return fmt.Errorf("pcm: float depth must be 32 or 64, got %d", i.Bits)
		}
	default:
		return fmt.Errorf("pcm: unknown sign class %v", i.Sign)
	}
	return nil
}

// Kind maps Info to the sample.Kind the arithmetic kernel dispatches on.
func (i Info) Kind() sample.Kind {
	switch i.Sign {
	case Unsigned:
		switch i.Bits {
		case 8:
			return sample.U8
		case 16:
			return sample.U16
		case 32:
			return sample.U32
		}
	case Signed:
		switch i.Bits {
		case 8:
			return sample.S8
		case 16:
			return sample.S16
		case 24:
			return sample.S24
		case 32:
			return sample.S32
		}
	case Float:
		if i.Bits == 32 {
			return sample.F32
		}
		return sample.F64
	}
	return sample.S16
}

// BytesPerSample is the storage stride of a single sample (one channel).
func (i Info) BytesPerSample() int {
	return sample.BytesOf(i.Kind())
}

// BytesPerFrame is BytesPerSample * Channels: one frame covers all channels.
func (i Info) BytesPerFrame() int {
	return i.BytesPerSample() * i.Channels
}

// FramesForBytes converts a byte count to a whole frame count.
func (i Info) FramesForBytes(n int) int {
	bpf := i.BytesPerFrame()
	if bpf == 0 {
		return 0
	}
	return n / bpf
}

// BytesForFrames converts a frame count to bytes.
func (i Info) BytesForFrames(frames int) int {
	return frames * i.BytesPerFrame()
}

// FramesForMillis converts a duration in milliseconds to a frame count.
func (i Info) FramesForMillis(ms int64) int {
	return int(ms * int64(i.RateHz) / 1000)
}

// MillisForFrames converts a frame count to milliseconds.
func (i Info) MillisForFrames(frames int) int64 {
	if i.RateHz == 0 {
		return 0
	}
	return int64(frames) * 1000 / int64(i.RateHz)
}

// Default is the canonical mixer interchange format: 16-bit signed,
// 44.1kHz stereo.
func Default() Info {
	return Info{Sign: Signed, Bits: 16, Channels: 2, RateHz: 44100}
}
