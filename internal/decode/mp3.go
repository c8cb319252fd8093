package decode

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/bmsrender/bmsrender/internal/pcm"
)

// decodeMP3 decodes an MP3 stream into its natural format: 16-bit signed
// stereo (go-mp3 always outputs 16-bit interleaved stereo PCM, matching
// an indirect dependency on gopxl/beep/mp3 which wraps the same
// library).
func decodeMP3(data []byte) (pcm.Buffer, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: mp3: %w", err)
	}

	info := pcm.Info{Sign: pcm.Signed, Bits: 16, Channels: 2, RateHz: dec.SampleRate()}
	if err := info.Validate(); err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: mp3: %w", err)
	}

	var out []byte
	chunk := make([]byte, 32*1024)
	for {
		n, rerr := dec.Read(chunk)
		if n > 0 {
			out = append(out, chunk[:n]...)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return pcm.Buffer{}, fmt.Errorf("decode: mp3: %w", rerr)
		}
		if n == 0 {
			break
		}
	}

	frames := info.FramesForBytes(len(out))
	owned := make([]byte, info.BytesForFrames(frames))
	copy(owned, out)
	return pcm.Take(info, frames, owned)
}
