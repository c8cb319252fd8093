package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/bmsrender/bmsrender/internal/pcm"
)

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// decodeWAV walks the RIFF/WAVE chunk list looking for "fmt " and "data",
// matching the hand-rolled parsing style of an earlier loadWAV
// (internal/streaming/audio.go) but handling arbitrary chunk order/size
// and both integer and IEEE-float PCM.
func decodeWAV(data []byte) (pcm.Buffer, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return pcm.Buffer{}, fmt.Errorf("decode: not a RIFF/WAVE file")
	}

	var (
		channels   int
		rate       int
		bits       int
		formatTag  uint16
		haveFmt    bool
		pcmData    []byte
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return pcm.Buffer{}, fmt.Errorf("decode: fmt chunk too short")
			}
			formatTag = binary.LittleEndian.Uint16(data[body : body+2])
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			rate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcmData = data[body : body+size]
		}
		pos = body + size
		if size%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	if !haveFmt || pcmData == nil {
		return pcm.Buffer{}, fmt.Errorf("decode: WAV missing fmt or data chunk")
	}

	var info pcm.Info
	switch formatTag {
	case wavFormatPCM:
		sign := pcm.Signed
		if bits == 8 {
			sign = pcm.Unsigned // canonical 8-bit WAV PCM is unsigned
		}
		info = pcm.Info{Sign: sign, Bits: bits, Channels: channels, RateHz: rate}
	case wavFormatFloat:
		info = pcm.Info{Sign: pcm.Float, Bits: bits, Channels: channels, RateHz: rate}
	default:
		return pcm.Buffer{}, fmt.Errorf("decode: unsupported WAV audio_format %d (ADPCM not supported)", formatTag)
	}
	if err := info.Validate(); err != nil {
		return pcm.Buffer{}, fmt.Errorf("decode: %w", err)
	}

	frames := info.FramesForBytes(len(pcmData))
	owned := make([]byte, info.BytesForFrames(frames))
	copy(owned, pcmData)
	return pcm.Take(info, frames, owned)
}
