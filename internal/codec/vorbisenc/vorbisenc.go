// Package vorbisenc binds libvorbis's VBR analysis encoder and libogg's
// stream multiplexer directly via cgo. No pure-Go Ogg/Vorbis encoder exists
// anywhere in the retrieved corpus (only decoders), so this package is
// modelled on github.com/drgolem/go-flac's cgo shape — a thin Go struct
// owning C state with an explicit Init/Process/Finish/Close lifecycle —
// applied to the C libraries original_source/src/Encoder_OGG.cpp itself
// wraps.
package vorbisenc

/*
#cgo pkg-config: vorbisenc vorbis ogg
#include <stdlib.h>
#include <vorbis/vorbisenc.h>
#include <vorbis/codec.h>
#include <ogg/ogg.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"math/rand"
	"unsafe"
)

// Encoder wraps one libvorbis analysis/bitrate pipeline plus one libogg
// logical stream.
//
// THREAD SAFETY: not safe for concurrent use, matching FlacEncoder in
// github.com/drgolem/go-flac.
type Encoder struct {
	vi C.vorbis_info
	vc C.vorbis_comment
	vd C.vorbis_dsp_state
	vb C.vorbis_block
	os C.ogg_stream_state

	channels   int
	sampleRate int
	out        []byte
	headerDone bool
	closed     bool
}

// NewEncoder initializes a VBR encoder at the given quality (-0.1..1.0, per
// vorbis_encode_init_vbr); original_source/src/Encoder_OGG.cpp's default
// quality level of 4 corresponds to 0.4 on this scale.
func NewEncoder(sampleRate, channels int, quality float32) (*Encoder, error) {
	if sampleRate < 1 {
		return nil, fmt.Errorf("vorbisenc: invalid sample rate %d", sampleRate)
	}
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("vorbisenc: invalid channel count %d (only mono/stereo supported)", channels)
	}

	e := &Encoder{channels: channels, sampleRate: sampleRate}
	C.vorbis_info_init(&e.vi)
	if C.vorbis_encode_init_vbr(&e.vi, C.long(channels), C.long(sampleRate), C.float(quality)) != 0 {
		C.vorbis_info_clear(&e.vi)
		return nil, errors.New("vorbisenc: vorbis_encode_init_vbr failed")
	}

	C.vorbis_comment_init(&e.vc)
	e.addTagLocked("ENCODER", "bmsrender")

	C.vorbis_analysis_init(&e.vd, &e.vi)
	C.vorbis_block_init(&e.vd, &e.vb)
	C.ogg_stream_init(&e.os, C.int(rand.Int31()))

	return e, nil
}

// AddTag adds a Vorbis comment header tag. Must be called before the first
// EncodeFloat call, since the comment header is emitted lazily on first use.
func (e *Encoder) AddTag(key, value string) error {
	if e.headerDone {
		return errors.New("vorbisenc: AddTag called after header already written")
	}
	e.addTagLocked(key, value)
	return nil
}

func (e *Encoder) addTagLocked(key, value string) {
	k := C.CString(key)
	v := C.CString(value)
	defer C.free(unsafe.Pointer(k))
	defer C.free(unsafe.Pointer(v))
	C.vorbis_comment_add_tag(&e.vc, k, v)
}

// writeHeader emits the three Vorbis header packets on their own flushed
// page, as per original_source/src/Encoder_OGG.cpp ("audio data will start
// on a new page, as per spec").
func (e *Encoder) writeHeader() error {
	if e.headerDone {
		return nil
	}
	var header, headerComm, headerCode C.ogg_packet
	if C.vorbis_analysis_headerout(&e.vd, &e.vc, &header, &headerComm, &headerCode) != 0 {
		return errors.New("vorbisenc: vorbis_analysis_headerout failed")
	}
	C.ogg_stream_packetin(&e.os, &header)
	C.ogg_stream_packetin(&e.os, &headerComm)
	C.ogg_stream_packetin(&e.os, &headerCode)

	for {
		var og C.ogg_page
		if C.ogg_stream_flush(&e.os, &og) == 0 {
			break
		}
		e.appendPage(&og)
	}
	e.headerDone = true
	return nil
}

func (e *Encoder) appendPage(og *C.ogg_page) {
	header := C.GoBytes(unsafe.Pointer(og.header), C.int(og.header_len))
	body := C.GoBytes(unsafe.Pointer(og.body), C.int(og.body_len))
	e.out = append(e.out, header...)
	e.out = append(e.out, body...)
}

// EncodeFloat submits numSamples frames of per-channel float32 PCM in
// [-1,1], per libvorbis's vorbis_analysis_buffer API (one slice per
// channel, not interleaved).
func (e *Encoder) EncodeFloat(planar [][]float32, numSamples int) error {
	if len(planar) != e.channels {
		return fmt.Errorf("vorbisenc: EncodeFloat: got %d channel slices, want %d", len(planar), e.channels)
	}
	if err := e.writeHeader(); err != nil {
		return err
	}
	if numSamples == 0 {
		return nil
	}

	buffer := C.vorbis_analysis_buffer(&e.vd, C.int(numSamples))
	channelPtrs := (*[8]*C.float)(unsafe.Pointer(buffer))[:e.channels:e.channels]
	for ch := 0; ch < e.channels; ch++ {
		dst := unsafe.Slice((*float32)(unsafe.Pointer(channelPtrs[ch])), numSamples)
		copy(dst, planar[ch][:numSamples])
	}

	if C.vorbis_analysis_wrote(&e.vd, C.int(numSamples)) != 0 {
		return errors.New("vorbisenc: vorbis_analysis_wrote failed")
	}
	return e.drain()
}

// Finish signals end-of-stream, flushes remaining packets/pages, and
// returns the complete encoded Ogg/Vorbis byte stream.
func (e *Encoder) Finish() ([]byte, error) {
	if err := e.writeHeader(); err != nil {
		return nil, err
	}
	if C.vorbis_analysis_wrote(&e.vd, 0) != 0 {
		return nil, errors.New("vorbisenc: vorbis_analysis_wrote(eos) failed")
	}
	if err := e.drain(); err != nil {
		return nil, err
	}
	return e.out, nil
}

func (e *Encoder) drain() error {
	for C.vorbis_analysis_blockout(&e.vd, &e.vb) == 1 {
		if C.vorbis_analysis(&e.vb, nil) != 0 {
			return errors.New("vorbisenc: vorbis_analysis failed")
		}
		if C.vorbis_bitrate_addblock(&e.vb) != 0 {
			return errors.New("vorbisenc: vorbis_bitrate_addblock failed")
		}
		var op C.ogg_packet
		for C.vorbis_bitrate_flushpacket(&e.vd, &op) == 1 {
			C.ogg_stream_packetin(&e.os, &op)
			for {
				var og C.ogg_page
				if C.ogg_stream_pageout(&e.os, &og) == 0 {
					break
				}
				e.appendPage(&og)
			}
		}
	}
	return nil
}

// Close releases all C resources. Safe to call multiple times.
func (e *Encoder) Close() {
	if e.closed {
		return
	}
	e.closed = true
	C.ogg_stream_clear(&e.os)
	C.vorbis_block_clear(&e.vb)
	C.vorbis_dsp_clear(&e.vd)
	C.vorbis_comment_clear(&e.vc)
	C.vorbis_info_clear(&e.vi)
}
