package effect

import (
	"fmt"

	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

// Pitch produces a new buffer of ⌊frames/p⌋ frames; destination frame i
// reads source frame ⌊i·p⌋ for every channel. There is no anti-aliasing:
// sound material is short and the user selects the rate.
func Pitch(buf pcm.Buffer, p float64) (pcm.Buffer, error) {
	if p <= 0 {
		return pcm.Buffer{}, fmt.Errorf("effect: pitch: ratio must be positive, got %v", p)
	}

	info := buf.Info()
	framesIn := buf.Frames()
	framesOut := int(float64(framesIn) / p)

	out, err := pcm.AllocateFrames(info, framesOut)
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("effect: pitch: %w", err)
	}
	if framesOut == 0 {
		return out, nil
	}

	kind := info.Kind()
	bps := info.BytesPerSample()
	stride := info.Channels * bps
	src := buf.Bytes()
	dst := out.Bytes()

	for i := 0; i < framesOut; i++ {
		srcIdx := int(float64(i) * p)
		if srcIdx >= framesIn {
			srcIdx = framesIn - 1
		}
		for ch := 0; ch < info.Channels; ch++ {
			v := sample.Load(kind, src, srcIdx*stride+ch*bps)
			sample.Store(kind, dst, i*stride+ch*bps, v)
		}
	}
	return out, nil
}
