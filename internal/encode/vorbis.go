package encode

import (
	"fmt"
	"sort"

	"github.com/bmsrender/bmsrender/internal/codec/vorbisenc"
	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

const vorbisChunkFrames = 1024

// encodeVorbis encodes via internal/codec/vorbisenc, VBR throughout.
// libvorbis only accepts mono or stereo; buffers of other channel counts
// must be remapped by the caller via pcm.Buffer.ResampleTo first.
func encodeVorbis(buf pcm.Buffer, opts Options) ([]byte, error) {
	info := buf.Info()
	if info.Channels < 1 || info.Channels > 2 {
		return nil, fmt.Errorf("encode: vorbis: %d channels unsupported (mono/stereo only)", info.Channels)
	}

	enc, err := vorbisenc.NewEncoder(info.RateHz, info.Channels, float32(opts.Quality))
	if err != nil {
		return nil, fmt.Errorf("encode: vorbis: %w", err)
	}
	defer enc.Close()

	keys := make([]string, 0, len(opts.Metadata))
	for k := range opts.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := enc.AddTag(k, opts.Metadata[k]); err != nil {
			return nil, fmt.Errorf("encode: vorbis: %w", err)
		}
	}

	kind := info.Kind()
	bps := info.BytesPerSample()
	data := buf.Bytes()
	channels := info.Channels
	planar := make([][]float32, channels)
	for ch := range planar {
		planar[ch] = make([]float32, vorbisChunkFrames)
	}

	frames := buf.Frames()
	for start := 0; start < frames; start += vorbisChunkFrames {
		end := start + vorbisChunkFrames
		if end > frames {
			end = frames
		}
		n := end - start
		for i := 0; i < n; i++ {
			frameOff := (start + i) * channels * bps
			for ch := 0; ch < channels; ch++ {
				planar[ch][i] = float32(sample.Load(kind, data, frameOff+ch*bps))
			}
		}
		if err := enc.EncodeFloat(planar, n); err != nil {
			return nil, fmt.Errorf("encode: vorbis: %w", err)
		}
	}

	out, err := enc.Finish()
	if err != nil {
		return nil, fmt.Errorf("encode: vorbis: %w", err)
	}
	return out, nil
}
