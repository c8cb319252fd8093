// Package chart defines the read-only event contract the scheduler
// consumes. Chart container parsing itself is out of scope — chart
// parsing is treated as an opaque read-only data source; this package
// only fixes the shape every parser must produce.
package chart

// NoteEvent is one note, BGM cue, or MIDI command as read from a chart:
// an ordered note/command/BGM event with time, channel, key, velocity,
// and duration.
type NoteEvent struct {
	TimeMs int64

	// Lane is the scheduler lane this event belongs to: 0 for BGM/MIDI
	// control events, 1..N for playable tracks.
	Lane int

	// Channel indexes the mixer channel / sound-bank entry this event
	// binds to.
	Channel int

	Key      int
	Velocity uint8

	// DurationMs is non-zero for notes that need a synthetic NoteOff
	// appended at TimeMs+DurationMs.
	DurationMs int64

	IsMIDI bool
	// MIDIArgs holds (a, b, c) for a MidiEvent command, consumed as a
	// single Control event when IsMIDI is true.
	MIDIArgs [3]uint8

	// Autoplay marks events the scheduler fires without waiting for an
	// external play(lane) call. The scheduler places such events on lane 0
	// whatever Lane says.
	Autoplay bool
}

// Source is an opaque, ordered chart event stream. Implementations may
// back onto any concrete chart notation; the scheduler only depends on
// this interface.
type Source interface {
	Events() []NoteEvent
}

// Chart is the simplest Source: a fixed, already-ordered event slice.
type Chart struct {
	events []NoteEvent
}

// New wraps events as a Source. Callers are expected to have already
// sorted events by TimeMs within each lane; New does not re-sort, since
// a parser typically emits events in chart order already.
func New(events []NoteEvent) *Chart {
	return &Chart{events: events}
}

func (c *Chart) Events() []NoteEvent { return c.events }
