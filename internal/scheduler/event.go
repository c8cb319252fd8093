// Package scheduler translates chart.Source events into mixer playback
// commands on a virtual timeline.
package scheduler

import (
	"sort"

	"github.com/bmsrender/bmsrender/internal/chart"
)

// EventKind distinguishes the three shapes a KeySoundEvent can take.
type EventKind int

const (
	NoteOn EventKind = iota
	NoteOff
	MidiControl
)

// KeySoundEvent is one scheduled command: {time_ms, channel_index,
// event_kind, is_midi, autoplay, playable, args[3]}.
type KeySoundEvent struct {
	TimeMs       int64
	ChannelIndex int
	Kind         EventKind
	IsMIDI       bool
	Autoplay     bool
	Playable     bool
	// Args holds (status, a, b) for a MidiControl event, or is unused
	// otherwise.
	Args [3]uint8
}

// buildLanes populates per-lane event vectors from src: lane 0 collects
// BGM, MIDI control, and autoplay events; lanes
// 1..N collect player-hit notes. Notes with non-zero duration get a
// synthetic NoteOff appended at time+duration. Each lane is sorted by
// time, stable by insertion order within a tie.
func buildLanes(src chart.Source) [][]KeySoundEvent {
	lanes := make(map[int][]KeySoundEvent)
	maxLane := 0

	for _, ev := range src.Events() {
		lane := ev.Lane
		if ev.Autoplay {
			lane = 0
		}
		if lane > maxLane {
			maxLane = lane
		}

		kind := NoteOn
		playable := lane != 0 && !ev.IsMIDI
		if ev.IsMIDI {
			kind = MidiControl
		}

		lanes[lane] = append(lanes[lane], KeySoundEvent{
			TimeMs:       ev.TimeMs,
			ChannelIndex: ev.Channel,
			Kind:         kind,
			IsMIDI:       ev.IsMIDI,
			Autoplay:     ev.Autoplay || lane == 0,
			Playable:     playable,
			Args:         ev.MIDIArgs,
		})

		if !ev.IsMIDI && ev.DurationMs > 0 {
			lanes[lane] = append(lanes[lane], KeySoundEvent{
				TimeMs:       ev.TimeMs + ev.DurationMs,
				ChannelIndex: ev.Channel,
				Kind:         NoteOff,
				Autoplay:     ev.Autoplay || lane == 0,
				Playable:     playable,
			})
		}
	}

	out := make([][]KeySoundEvent, maxLane+1)
	for lane := 0; lane <= maxLane; lane++ {
		events := lanes[lane]
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].TimeMs < events[j].TimeMs
		})
		out[lane] = events
	}
	return out
}

// lastSoundTime is max over all events of event.time (+duration, already
// folded into the synthetic NoteOff above); backs GetLastSoundTime.
func lastSoundTime(lanes [][]KeySoundEvent) int64 {
	var last int64
	for _, lane := range lanes {
		for _, ev := range lane {
			if ev.TimeMs > last {
				last = ev.TimeMs
			}
		}
	}
	return last
}
