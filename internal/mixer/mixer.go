package mixer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bmsrender/bmsrender/internal/pcm"
)

// HardChannelCap bounds the audible set regardless of MaxAudible: up to
// 1024 channels may be audible at once.
const HardChannelCap = 1024

// audibilityWindow is the frame count, read from each channel's cursor
// onward, used by Update's RMS-like ranking.
const audibilityWindow = 128

// Mixer owns a name-keyed sound cache and a fixed set of playback
// Channels, adapted from an AudioMixer, generalized from a hardcoded
// 8-slot sound-effect list to an arbitrary cache keyed by name.
type Mixer struct {
	mu sync.Mutex

	info pcm.Info

	sounds map[string]*pcm.Buffer

	channels    []*Channel
	audible     []*Channel
	maxAudible  int
	stopDupe    bool
	boundName   map[*Channel]string
}

// New creates a Mixer with n fixed channel slots rendering at info.
// maxAudible < 0 means all playing channels are audible (up to
// HardChannelCap); stopDuplicated enables SoundPool's
// stop-the-existing-instance-first retrigger policy.
func New(info pcm.Info, n int, maxAudible int, stopDuplicated bool) *Mixer {
	channels := make([]*Channel, n)
	for i := range channels {
		channels[i] = NewChannel(info)
	}
	return &Mixer{
		info:       info,
		sounds:     make(map[string]*pcm.Buffer),
		channels:   channels,
		maxAudible: maxAudible,
		stopDupe:   stopDuplicated,
		boundName:  make(map[*Channel]string),
	}
}

// CreateSound loads and caches buf under name; a duplicate name returns
// the already-cached buffer (converted to the mixer's canonical format on
// first insertion).
func (m *Mixer) CreateSound(name string, buf pcm.Buffer) (*pcm.Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sounds[name]; ok {
		return existing, nil
	}

	canonical := buf
	if buf.Info() != m.info {
		converted, err := buf.ResampleTo(m.info)
		if err != nil {
			return nil, fmt.Errorf("mixer: create_sound %q: %w", name, err)
		}
		canonical = converted
	}

	owned := canonical
	m.sounds[name] = &owned
	return &owned, nil
}

// PlaySound finds the first Channel that is neither playing nor occupied,
// binds sound, and starts it; returns nil if all slots are busy. When the
// mixer was constructed with stopDuplicated, any channel already bound to
// the same cached name is stopped first.
func (m *Mixer) PlaySound(name string, sound *pcm.Buffer, loopCount int) *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopDupe {
		for _, c := range m.channels {
			if m.boundName[c] == name && c.IsPlaying() {
				c.Stop()
			}
		}
	}

	for _, c := range m.channels {
		if c.IsPlaying() || c.IsOccupied() {
			continue
		}
		c.BindSound(sound)
		c.Play(loopCount)
		m.boundName[c] = name
		return c
	}
	return nil
}

// Update maintains the audible_channels list used by MixAll, ranking
// playing channels by recent audibility when maxAudible is bounded.
func (m *Mixer) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()

	playing := make([]*Channel, 0, len(m.channels))
	for _, c := range m.channels {
		if c.IsPlaying() {
			playing = append(playing, c)
		}
	}

	if m.maxAudible < 0 {
		if len(playing) > HardChannelCap {
			playing = playing[:HardChannelCap]
		}
		m.audible = playing
		return
	}

	sort.SliceStable(playing, func(i, j int) bool {
		return playing[i].recentLevel(audibilityWindow) > playing[j].recentLevel(audibilityWindow)
	})

	limit := m.maxAudible
	if limit > len(playing) {
		limit = len(playing)
	}
	if limit > HardChannelCap {
		limit = HardChannelCap
	}
	m.audible = playing[:limit]
}

// MixAll zero-fills dst then mixes every audible channel into it. Mixing
// runs without holding the cache/channel-list lock; callers must not
// mutate channel bindings concurrently with MixAll.
func (m *Mixer) MixAll(dst []byte, frameCount int) {
	for i := range dst {
		dst[i] = 0
	}
	m.mu.Lock()
	audible := m.audible
	m.mu.Unlock()

	for _, c := range audible {
		c.Mix(dst, frameCount)
	}
}

// Channels exposes the fixed channel slots, e.g. for the scheduler to bind
// the MIDI streaming adapter to a dedicated slot.
func (m *Mixer) Channels() []*Channel { return m.channels }
