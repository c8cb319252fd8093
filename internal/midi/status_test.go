package midi

import "testing"

func TestDecodeStatusNoteEvents(t *testing.T) {
	cases := []struct {
		name   string
		status byte
		a      byte
		want   EventType
	}{
		{"note off", 0x80, 60, EventNoteOff},
		{"note on", 0x90, 60, EventNoteOn},
		{"key pressure", 0xA0, 60, EventKeyPressure},
		{"program change", 0xC0, 0, EventProgram},
		{"channel pressure unimplemented", 0xD0, 0, EventNone},
		{"pitch wheel", 0xE0, 0, EventPitchWheel},
		{"sysex start ignored", 0xF0, 0, EventNone},
		{"sysex end ignored", 0xF7, 0, EventNone},
		{"meta ignored", 0xFF, 0x51, EventNone},
		{"data byte is not a status", 0x45, 0, EventNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecodeStatus(tc.status, tc.a); got != tc.want {
				t.Errorf("DecodeStatus(%#x, %#x) = %v, want %v", tc.status, tc.a, got, tc.want)
			}
		})
	}
}

func TestDecodeStatusControlChangeTable(t *testing.T) {
	cases := []struct {
		controller byte
		want       EventType
	}{
		{7, EventMainVolume},
		{10, EventPan},
		{11, EventExpression},
		{64, EventSustain},
		{120, EventAllSoundsOff},
		{121, EventResetControllers},
		{123, EventAllNotesOff},
		{0, EventToneBank},
		{5, EventNone}, // unmapped controller number
	}
	for _, tc := range cases {
		if got := DecodeStatus(0xB0, tc.controller); got != tc.want {
			t.Errorf("DecodeStatus(0xB0, %d) = %v, want %v", tc.controller, got, tc.want)
		}
	}
}

func TestChannelExtraction(t *testing.T) {
	if got := Channel(0x93); got != 3 {
		t.Errorf("Channel(0x93) = %d, want 3", got)
	}
	if got := Channel(0x8F); got != 0x0F {
		t.Errorf("Channel(0x8F) = %d, want 15", got)
	}
}
