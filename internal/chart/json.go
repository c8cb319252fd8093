package chart

import (
	"encoding/json"
	"strconv"
)

// jsonDocument is the minimal on-disk shape a chart file must provide to
// satisfy Source via LoadJSON: just enough structure to exercise the
// scheduler end to end. Real chart-notation parsers — external
// collaborators to this package — would produce a Source by
// implementing this package's interface directly instead.
type jsonDocument struct {
	Sounds   map[string]string `json:"sounds"`
	MIDIFile string            `json:"midi_file"`
	Events   []jsonEvent       `json:"events"`
}

type jsonEvent struct {
	TimeMs     int64    `json:"time_ms"`
	Lane       int      `json:"lane"`
	Channel    int      `json:"channel"`
	Key        int      `json:"key"`
	Velocity   uint8    `json:"velocity"`
	DurationMs int64    `json:"duration_ms"`
	IsMIDI     bool     `json:"is_midi"`
	MIDIArgs   [3]uint8 `json:"midi_args"`
	Autoplay   bool     `json:"autoplay"`
}

// LoadJSON decodes data as a jsonDocument, returning a ready Source, its
// channel->filename sound-bank mapping, and the document's midi_file
// name (empty if the document gives none).
func LoadJSON(data []byte) (*Chart, map[int]string, string, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, "", err
	}

	events := make([]NoteEvent, len(doc.Events))
	for i, e := range doc.Events {
		events[i] = NoteEvent{
			TimeMs:     e.TimeMs,
			Lane:       e.Lane,
			Channel:    e.Channel,
			Key:        e.Key,
			Velocity:   e.Velocity,
			DurationMs: e.DurationMs,
			IsMIDI:     e.IsMIDI,
			MIDIArgs:   e.MIDIArgs,
			Autoplay:   e.Autoplay,
		}
	}

	soundFiles := make(map[int]string, len(doc.Sounds))
	for k, v := range doc.Sounds {
		channel, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		soundFiles[channel] = v
	}

	return New(events), soundFiles, doc.MIDIFile, nil
}
