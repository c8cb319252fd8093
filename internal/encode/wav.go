package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/bmsrender/bmsrender/internal/pcm"
)

// encodeWAV writes a canonical RIFF/WAVE container: fmt chunk (audio_format
// 1 for integer PCM, 3 for IEEE float per ) followed by
// the data chunk holding buf's bytes verbatim, mirroring
// original_source/src/Encoder_WAV.cpp's header layout.
func encodeWAV(buf pcm.Buffer) ([]byte, error) {
	info := buf.Info()
	if err := buf.CheckInvariant(); err != nil {
		return nil, fmt.Errorf("encode: wav: %w", err)
	}

	formatTag := uint16(1)
	if info.Sign == pcm.Float {
		formatTag = 3
	}

	data := buf.Bytes()
	dataSize := len(data)
	blockAlign := info.BytesPerFrame()
	byteRate := info.RateHz * blockAlign

	out := make([]byte, 44+dataSize)
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], formatTag)
	binary.LittleEndian.PutUint16(out[22:24], uint16(info.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(info.RateHz))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(info.Bits))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))
	copy(out[44:], data)

	return out, nil
}
