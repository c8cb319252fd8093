package encode

import (
	"encoding/binary"
	"fmt"
	"sort"

	flacenc "github.com/drgolem/go-flac/flac"

	"github.com/bmsrender/bmsrender/internal/pcm"
	"github.com/bmsrender/bmsrender/internal/sample"
)

// encodeFLAC encodes via libFLAC's stream encoder (github.com/drgolem/go-flac,
// a cgo binding) at compression level 5, then splices in a hand-rolled
// VORBIS_COMMENT metadata block since the library exposes no
// metadata-block API of its own.
func encodeFLAC(buf pcm.Buffer, opts Options) ([]byte, error) {
	info := buf.Info()
	bits := info.Bits
	if info.Sign == pcm.Float || (bits != 8 && bits != 16 && bits != 24 && bits != 32) {
		bits = 32
	}

	enc, err := flacenc.NewFlacEncoder(info.RateHz, info.Channels, bits)
	if err != nil {
		return nil, fmt.Errorf("encode: flac: %w", err)
	}
	defer enc.Close()

	if err := enc.SetCompressionLevel(5); err != nil {
		return nil, fmt.Errorf("encode: flac: %w", err)
	}
	if err := enc.SetTotalSamplesEstimate(int64(buf.Frames())); err != nil {
		return nil, fmt.Errorf("encode: flac: %w", err)
	}
	if err := enc.InitStream(); err != nil {
		return nil, fmt.Errorf("encode: flac: %w", err)
	}

	samples := interleavedInt32(buf, bits)
	if len(samples) > 0 {
		if err := enc.ProcessInterleaved(samples, buf.Frames()); err != nil {
			return nil, fmt.Errorf("encode: flac: %w", err)
		}
	}
	if err := enc.Finish(); err != nil {
		return nil, fmt.Errorf("encode: flac: %w", err)
	}

	raw := enc.TakeBytes()
	return injectVorbisComment(raw, opts.Metadata)
}

// interleavedInt32 converts buf's samples (any pcm.Info width) to signed
// int32 right-justified to bits, as required by FlacEncoder.ProcessInterleaved.
func interleavedInt32(buf pcm.Buffer, bits int) []int32 {
	info := buf.Info()
	n := buf.Frames() * info.Channels
	out := make([]int32, n)
	data := buf.Bytes()
	bps := info.BytesPerSample()
	maxVal := float64(int64(1)<<(bits-1) - 1)
	for i := 0; i < n; i++ {
		v := sample.Load(info.Kind(), data, i*bps)
		out[i] = int32(v * maxVal)
	}
	return out
}

// injectVorbisComment splices a VORBIS_COMMENT metadata block immediately
// after the mandatory leading STREAMINFO block of a FLAC stream produced by
// FlacEncoder.InitStream/TakeBytes.
func injectVorbisComment(raw []byte, tags map[string]string) ([]byte, error) {
	const magicLen = 4
	const blockHeaderLen = 4
	if len(raw) < magicLen+blockHeaderLen || string(raw[:magicLen]) != "fLaC" {
		return nil, fmt.Errorf("encode: flac: encoder output missing fLaC signature")
	}

	header := raw[magicLen : magicLen+blockHeaderLen]
	blockType := header[0] & 0x7F
	if blockType != 0 {
		return nil, fmt.Errorf("encode: flac: first metadata block is not STREAMINFO")
	}
	streamInfoLen := int(header[1])<<16 | int(header[2])<<8 | int(header[3])
	streamInfoEnd := magicLen + blockHeaderLen + streamInfoLen
	if streamInfoEnd > len(raw) {
		return nil, fmt.Errorf("encode: flac: truncated STREAMINFO block")
	}

	comment := buildVorbisComment(tags)
	if len(comment) > 1<<24-1 {
		return nil, fmt.Errorf("encode: flac: metadata block too large")
	}

	newHeader := make([]byte, blockHeaderLen)
	newHeader[0] = 0x80 | 4 // last-metadata-block=1, type=VORBIS_COMMENT(4)
	newHeader[1] = byte(len(comment) >> 16)
	newHeader[2] = byte(len(comment) >> 8)
	newHeader[3] = byte(len(comment))

	clearedStreamInfoHeader := make([]byte, blockHeaderLen)
	copy(clearedStreamInfoHeader, header)
	clearedStreamInfoHeader[0] &^= 0x80 // a block now follows, so clear last-flag

	out := make([]byte, 0, len(raw)+blockHeaderLen+len(comment))
	out = append(out, raw[:magicLen]...)
	out = append(out, clearedStreamInfoHeader...)
	out = append(out, raw[magicLen+blockHeaderLen:streamInfoEnd]...)
	out = append(out, newHeader...)
	out = append(out, comment...)
	out = append(out, raw[streamInfoEnd:]...)
	return out, nil
}

// buildVorbisComment encodes a Vorbis comment block body (little-endian
// per the Vorbis comment spec, unlike FLAC's own big-endian block headers).
func buildVorbisComment(tags map[string]string) []byte {
	vendor := "bmsrender"
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []byte
	out = appendUint32LE(out, uint32(len(vendor)))
	out = append(out, vendor...)
	out = appendUint32LE(out, uint32(len(keys)))
	for _, k := range keys {
		entry := k + "=" + tags[k]
		out = appendUint32LE(out, uint32(len(entry)))
		out = append(out, entry...)
	}
	return out
}

func appendUint32LE(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
