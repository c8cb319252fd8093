// Package decode implements the decoder dispatch: sniff the container
// format from leading bytes (falling back to an extension hint), then
// hand off to a per-format backend that returns an owned pcm.Buffer in
// that format's natural interchange representation.
package decode

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bmsrender/bmsrender/internal/pcm"
)

// Format identifies a sniffed or hinted container format.
type Format int

const (
	Unknown Format = iota
	WAV
	Vorbis
	FLAC
	MP3
)

// ErrShortInput is returned when fewer than 4 bytes are available to sniff.
var ErrShortInput = fmt.Errorf("decode: input too short to sniff format")

// Sniff inspects leading bytes, falling back to the extension hint when
// no magic matches.
func Sniff(data []byte, extHint string) (Format, error) {
	if len(data) < 4 {
		return Unknown, ErrShortInput
	}
	switch {
	case bytes.HasPrefix(data, []byte("OggS")):
		return Vorbis, nil
	case bytes.HasPrefix(data, []byte("RIFF")):
		return WAV, nil
	case bytes.HasPrefix(data, []byte("fLaC")):
		return FLAC, nil
	case bytes.HasPrefix(data, []byte("ID3")), len(data) > 1 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return MP3, nil
	}
	switch strings.ToLower(strings.TrimPrefix(extHint, ".")) {
	case "ogg":
		return Vorbis, nil
	case "wav":
		return WAV, nil
	case "flac":
		return FLAC, nil
	case "mp3":
		return MP3, nil
	}
	return Unknown, fmt.Errorf("decode: unrecognized format (magic and extension %q both unmatched)", extHint)
}

// PreferredHint optionally lets a backend attempt native emission in the
// given format; on failure the caller falls back to ResampleTo.
type PreferredHint = pcm.Info

// Decode sniffs data and dispatches to the matching backend, returning an
// owned pcm.Buffer in that backend's natural format. extHint is the
// filename extension, used only when magic-sniffing is inconclusive.
func Decode(data []byte, extHint string, preferred *PreferredHint) (pcm.Buffer, error) {
	format, err := Sniff(data, extHint)
	if err != nil {
		return pcm.Buffer{}, err
	}
	switch format {
	case WAV:
		return decodeWAV(data)
	case Vorbis:
		return decodeVorbis(data, preferred)
	case FLAC:
		return decodeFLAC(data, preferred)
	case MP3:
		return decodeMP3(data)
	default:
		return pcm.Buffer{}, fmt.Errorf("decode: unknown format")
	}
}
