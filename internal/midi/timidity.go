package midi

/*
#cgo pkg-config: timidity
#include <stdlib.h>
#include <timidity.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// synthRefCount and synthMu guard the process-wide libtimidity library
// state, mirroring original_source/src/Midi.cpp's static midi_count: the
// C library's mid_init/mid_exit pair is process-global, so every Synth
// instance shares one reference count rather than re-initializing the
// instrument tables per song.
var (
	synthMu       sync.Mutex
	synthRefCount int
)

func acquireLibrary() error {
	synthMu.Lock()
	defer synthMu.Unlock()

	if synthRefCount == 0 {
		if C.mid_init_no_config() != 0 {
			return errors.New("midi: mid_init_no_config failed (no instrument config available)")
		}
	}
	synthRefCount++
	return nil
}

func releaseLibrary() {
	synthMu.Lock()
	defer synthMu.Unlock()

	synthRefCount--
	if synthRefCount == 0 {
		C.mid_exit()
	}
}

// Synth wraps one libtimidity MidSong: a loaded MIDI sequence pulled as
// PCM via GetMixedPCMData, matching original_source/src/Midi's Init +
// GetMixedPCMData pair. Construction/teardown participates in the
// process-wide reference count above.
type Synth struct {
	song *C.MidSong

	rateHz   int
	channels int
	bits     int

	closed bool
}

// NewSynth loads data (a standard MIDI file) and starts a song rendering
// PCM at rateHz/channels/bits, per original_source/src/Midi.cpp's Init.
// bits must be 8, 16, or 32 (libtimidity's MID_AUDIO_S8/S16LSB/S32LSB).
func NewSynth(data []byte, rateHz, channels, bits int) (*Synth, error) {
	if err := acquireLibrary(); err != nil {
		return nil, err
	}

	format, err := audioFormat(bits)
	if err != nil {
		releaseLibrary()
		return nil, err
	}

	opts := C.MidSongOptions{
		rate:        C.MidDWord(rateHz),
		format:      format,
		channels:    C.MidUByte(channels),
		buffer_size: C.MidDWord(rateHz), // one second of scratch per read, matching the original's sizing
	}

	cData := C.CBytes(data)
	defer C.free(cData)

	stream := C.mid_istream_open_mem(cData, C.int32_t(len(data)))
	if stream == nil {
		releaseLibrary()
		return nil, errors.New("midi: mid_istream_open_mem failed")
	}

	song := C.mid_song_load(stream, &opts)
	C.mid_istream_close(stream)
	if song == nil {
		releaseLibrary()
		return nil, errors.New("midi: mid_song_load failed (unreadable or unsupported MIDI data)")
	}

	C.mid_song_start(song)

	return &Synth{song: song, rateHz: rateHz, channels: channels, bits: bits}, nil
}

func audioFormat(bits int) (C.MidDWord, error) {
	switch bits {
	case 8:
		return C.MID_AUDIO_S8, nil
	case 16:
		return C.MID_AUDIO_S16LSB, nil
	case 32:
		return C.MID_AUDIO_S32LSB, nil
	default:
		return 0, fmt.Errorf("midi: unsupported bit depth %d (want 8, 16, or 32)", bits)
	}
}

// SetVolume sets the overall song volume (0-MAXVOLUME per libtimidity).
func (s *Synth) SetVolume(v int) {
	C.mid_song_set_volume(s.song, C.int(v))
}

// SendEvent dispatches a decoded status/data pair directly into the
// running song, matching original_source's Midi::SendEvent (channel, a,
// b map straight onto MidEvent's fields; time is left to the caller to
// stamp since this binding has no notion of the song's internal clock
// outside of ReadWave's own pacing).
func (s *Synth) SendEvent(eventType EventType, channel, a, b uint8) {
	ev := C.MidEvent{
		_type:   C.MidEventType(eventType),
		channel: C.MidUByte(channel),
		a:       C.MidUByte(a),
		b:       C.MidUByte(b),
	}
	C.mid_song_load_events(s.song, &ev, 1)
}

// ReadWave pulls up to len(dst) bytes of mixed PCM, matching
// original_source's GetMixedPCMData. It returns the number of bytes
// actually written; fewer than requested (including zero) means the
// song has reached its end.
func (s *Synth) ReadWave(dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	n := C.mid_song_read_wave(s.song, (*C.MidByte)(unsafe.Pointer(&dst[0])), C.int32_t(len(dst)))
	return int(n)
}

// Close frees the song and releases the process-wide library reference.
// Safe to call multiple times.
func (s *Synth) Close() {
	if s.closed {
		return
	}
	s.closed = true
	C.mid_song_free(s.song)
	releaseLibrary()
}
