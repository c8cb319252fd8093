package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

// decodeVorbis decodes an Ogg/Vorbis stream into its natural 32-bit float
// interchange format. If preferred is non-nil, the decoded buffer is
// additionally resampled to that format so the caller does not need a
// separate ResampleTo call.
func decodeVorbis(data []byte, preferred *PreferredHint) (pcm.Buffer, error) {
	reader, err := oggvorbis.NewReader(bytes.NewReader(data))
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: vorbis: %w", err)
	}

	channels := reader.Channels()
	info := pcm.Info{Sign: pcm.Float, Bits: 32, Channels: channels, RateHz: reader.SampleRate()}
	if err := info.Validate(); err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: vorbis: %w", err)
	}

	var floats []float32
	chunk := make([]float32, 4096*channels)
	for {
		n, rerr := reader.Read(chunk)
		if n > 0 {
			floats = append(floats, chunk[:n]...)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return pcm.Buffer{}, fmt.Errorf("decode: vorbis: %w", rerr)
		}
		if n == 0 {
			break
		}
	}

	frames := len(floats) / channels
	out, err := pcm.AllocateFrames(info, frames)
	if err != nil {
		return pcm.Buffer{}, err
	}
	buf := out.Bytes()
	for i, f := range floats[:frames*channels] {
		sample.Store(sample.F32, buf, i*4, float64(f))
	}

	if preferred != nil {
		resampled, err := out.ResampleTo(*preferred)
		if err == nil {
			return resampled, nil
		}
	}
	return out, nil
}
