package pcm

import (
	"fmt"

	"github.com/bmsrender/bmsrender/internal/sample"
)

// Buffer owns a contiguous byte region plus the Info describing it. The
// zero value is a valid empty buffer (nil data, zero frames).
type Buffer struct {
	info   Info
	data   []byte
	frames int
}

// Empty returns a zero-length buffer at the given format.
func Empty(info Info) Buffer {
	return Buffer{info: info}
}

// AllocateFrames allocates a zero-filled buffer of exactly n frames.
func AllocateFrames(info Info, n int) (Buffer, error) {
	if err := info.Validate(); err != nil {
		return Buffer{}, err
	}
	if n < 0 {
		return Buffer{}, fmt.Errorf("pcm: negative frame count %d", n)
	}
	return Buffer{info: info, data: make([]byte, info.BytesForFrames(n)), frames: n}, nil
}

// AllocateDuration allocates a zero-filled buffer covering ms milliseconds.
func AllocateDuration(info Info, ms int64) (Buffer, error) {
	return AllocateFrames(info, info.FramesForMillis(ms))
}

// Take wraps an externally decoded byte slice as an owned buffer, without
// copying. Used by decoder backends handing back their native output.
func Take(info Info, frames int, owned []byte) (Buffer, error) {
	if err := info.Validate(); err != nil {
		return Buffer{}, err
	}
	need := info.BytesForFrames(frames)
	if len(owned) < need {
		return Buffer{}, fmt.Errorf("pcm: take: buffer has %d bytes, need %d for %d frames", len(owned), need, frames)
	}
	return Buffer{info: info, data: owned[:need], frames: frames}, nil
}

// Info returns the buffer's format descriptor.
func (b Buffer) Info() Info { return b.info }

// Frames returns the frame count.
func (b Buffer) Frames() int { return b.frames }

// Bytes returns the raw owned byte slice (len == info.BytesForFrames(frames)).
func (b Buffer) Bytes() []byte { return b.data }

// DurationMs returns the buffer's duration in milliseconds.
func (b Buffer) DurationMs() int64 { return b.info.MillisForFrames(b.frames) }

// IsEmpty reports whether the buffer holds no frames.
func (b Buffer) IsEmpty() bool { return b.frames == 0 || len(b.data) == 0 }

// FrameSlice returns the byte sub-slice spanning frames [start,end).
func (b Buffer) FrameSlice(start, end int) []byte {
	bpf := b.info.BytesPerFrame()
	if start < 0 {
		start = 0
	}
	if end > b.frames {
		end = b.frames
	}
	if end < start {
		end = start
	}
	return b.data[start*bpf : end*bpf]
}

// Clear zero-fills the whole buffer in place.
func (b *Buffer) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// Clone returns an independent deep copy.
func (b Buffer) Clone() Buffer {
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return Buffer{info: b.info, data: cp, frames: b.frames}
}

// Swap exchanges the contents of a and b in place.
func Swap(a, b *Buffer) {
	*a, *b = *b, *a
}

// checkInvariant verifies bytes == frames * channels * bits/8.
func (b Buffer) checkInvariant() error {
	want := b.info.BytesForFrames(b.frames)
	if len(b.data) != want {
		return fmt.Errorf("pcm: invariant violated: %d bytes, want %d for %d frames", len(b.data), want, b.frames)
	}
	return nil
}

// CheckInvariant exposes the structural invariant check for tests.
func (b Buffer) CheckInvariant() error { return b.checkInvariant() }

// Kind is a convenience accessor for the buffer's sample.Kind.
func (b Buffer) Kind() sample.Kind { return b.info.Kind() }
