// Package encode implements the encoder dispatch: given a rendered
// pcm.Buffer, a target container, and a metadata map, produce the final
// byte stream for that container.
package encode

import (
	"fmt"

	"github.com/bmsrender/bmsrender/internal/config"
	"github.com/bmsrender/bmsrender/internal/pcm"
)

// Options carries the per-render encode parameters: VBR quality for
// Vorbis, and a free-form tag map for formats that carry metadata
// (FLAC's VORBIS_COMMENT block, Vorbis's comment header).
type Options struct {
	Quality  float64
	Metadata map[string]string
}

// Encode dispatches on format and returns the encoded container bytes.
func Encode(buf pcm.Buffer, format config.OutputFormat, opts Options) ([]byte, error) {
	switch format {
	case config.OutputWAV:
		return encodeWAV(buf)
	case config.OutputFLAC:
		return encodeFLAC(buf, opts)
	case config.OutputVorbis:
		return encodeVorbis(buf, opts)
	default:
		return nil, fmt.Errorf("encode: unsupported output format %q", format)
	}
}
