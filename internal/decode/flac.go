package decode

import (
	"fmt"
	"os"

	flacdec "github.com/drgolem/go-flac/flac"

	"github.com/bmsrender/bmsrender/internal/pcm"
)

// decodeFLAC decodes a FLAC stream via libFLAC (github.com/drgolem/go-flac,
// a cgo binding). The library's decoder only opens file paths, so the
// in-memory byte slice is spilled to a temporary file first — the rest of
// the engine still only ever sees a pcm.Buffer. FLAC's natural format
// is integer, with sub-32-bit depths promoted to 32-bit.
func decodeFLAC(data []byte, preferred *PreferredHint) (pcm.Buffer, error) {
	tmp, err := os.CreateTemp("", "bmsrender-decode-*.flac")
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: flac: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if _, err := tmp.Write(data); err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: flac: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: flac: %w", err)
	}

	const outBits = 32
	dec, err := flacdec.NewFlacFrameDecoder(outBits)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: flac: %w", err)
	}
	defer dec.Delete()

	if err := dec.Open(tmp.Name()); err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: flac: %w", err)
	}
	defer dec.Close()

	rate, channels, _ := dec.GetFormat()
	info := pcm.Info{Sign: pcm.Signed, Bits: outBits, Channels: channels, RateHz: rate}
	if err := info.Validate(); err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: flac: %w", err)
	}

	total := dec.TotalSamples()
	if total <= 0 {
		total = 1 << 20 // unknown length: grow in chunks below
	}
	out, err := pcm.AllocateFrames(info, int(total))
	if err != nil {
		return pcm.Buffer{}, err
	}
	buf := out.Bytes()

	const chunkFrames = 4096
	frameBytes := info.BytesPerFrame()
	written := 0
	for {
		if written+chunkFrames > out.Frames() {
			grown, gerr := pcm.AllocateFrames(info, written+chunkFrames)
			if gerr != nil {
				return pcm.Buffer{}, gerr
			}
			copy(grown.Bytes(), buf[:written*frameBytes])
			out = grown
			buf = out.Bytes()
		}
		n, derr := dec.DecodeSamples(chunkFrames, buf[written*frameBytes:(written+chunkFrames)*frameBytes])
		written += n
		if n == 0 || derr != nil {
			break
		}
	}

	final, err := pcm.AllocateFrames(info, written)
	if err != nil {
		return pcm.Buffer{}, err
	}
	copy(final.Bytes(), buf[:written*frameBytes])

	if preferred != nil {
		resampled, rerr := final.ResampleTo(*preferred)
		if rerr == nil {
			return resampled, nil
		}
	}
	return final, nil
}
