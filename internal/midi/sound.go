package midi

import (
	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

// Sound adapts a Synth to internal/mixer's Streaming interface: a
// pull-based PCM source with no fixed length, matching
// original_source/src/Midi.h's MidiSound. As in the original, there is no
// per-call seek/offset: every Copy/Mix simply continues from wherever the
// underlying synth's internal cursor left off, since a real-time song
// render has no meaningful random-access position.
type Sound struct {
	synth         *Synth
	kind          sample.Kind
	bytesPerFrame int
	exhausted     bool
	scratch       []byte
}

// NewSound wraps synth for playback at info's frame layout. info's
// channel count and bit depth must match the rate/channels/bits the
// Synth was constructed with.
func NewSound(synth *Synth, info pcm.Info) *Sound {
	return &Sound{synth: synth, kind: info.Kind(), bytesPerFrame: info.BytesPerFrame()}
}

// Copy fills dst with up to frameCount frames of synthesized MIDI PCM,
// overwriting it and zero-padding any shortfall once the song ends.
// Returns the number of frames actually produced by the synth (before
// padding).
func (s *Sound) Copy(dst []byte, frameCount int) int {
	want := s.capBytes(dst, frameCount)

	if s.exhausted {
		for i := 0; i < want; i++ {
			dst[i] = 0
		}
		return 0
	}

	n := s.synth.ReadWave(dst[:want])
	for i := n; i < want; i++ {
		dst[i] = 0
	}
	if n < want {
		s.exhausted = true
	}
	return n / s.bytesPerFrame
}

// Mix saturating-adds up to frameCount frames of synthesized MIDI PCM
// into dst, leaving it untouched once the song is exhausted.
func (s *Sound) Mix(dst []byte, frameCount int) int {
	want := s.capBytes(dst, frameCount)
	if s.exhausted || want == 0 {
		return 0
	}

	if cap(s.scratch) < want {
		s.scratch = make([]byte, want)
	}
	scratch := s.scratch[:want]

	n := s.synth.ReadWave(scratch)
	for i := n; i < want; i++ {
		scratch[i] = 0
	}
	if n < want {
		s.exhausted = true
	}

	samples := want / sample.BytesOf(s.kind)
	sample.Mix(s.kind, dst, scratch, samples)
	return n / s.bytesPerFrame
}

func (s *Sound) capBytes(dst []byte, frameCount int) int {
	want := frameCount * s.bytesPerFrame
	if want > len(dst) {
		want = len(dst)
	}
	return want
}

// Done reports whether the underlying song has been fully consumed.
func (s *Sound) Done() bool { return s.exhausted }

// Close releases the underlying synth.
func (s *Sound) Close() {
	s.synth.Close()
}
