// Package effect implements the orthogonal, composable render-time
// transformations of : volume, pitch, and tempo. The documented
// composition order is volume → pitch → tempo.
package effect

import (
	"fmt"

	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

// Volume multiplies every sample by gain, saturating at the sample-type
// limit, returning a new buffer of the same shape as buf.
func Volume(buf pcm.Buffer, gain float64) (pcm.Buffer, error) {
	out, err := pcm.AllocateFrames(buf.Info(), buf.Frames())
	if err != nil {
		return pcm.Buffer{}, fmt.Errorf("effect: volume: %w", err)
	}
	n := buf.Frames() * buf.Info().Channels
	sample.CopyScaled(buf.Kind(), out.Bytes(), buf.Bytes(), n, gain)
	return out, nil
}
