package event

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/leandrodaf/mididings/sdk/contracts"
)

func TestConstructorsValidateRanges(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (Event, error)
		ok   bool
	}{
		{"note on", func() (Event, error) { return NewNoteOn(0, 15, 127, 127) }, true},
		{"note on bad channel", func() (Event, error) { return NewNoteOn(0, 16, 60, 100) }, false},
		{"note on bad note", func() (Event, error) { return NewNoteOn(0, 0, 128, 100) }, false},
		{"note off bad velocity", func() (Event, error) { return NewNoteOff(0, 0, 60, -1) }, false},
		{"ctrl", func() (Event, error) { return NewCtrl(1, 3, 7, 100) }, true},
		{"ctrl bad value", func() (Event, error) { return NewCtrl(1, 3, 7, 200) }, false},
		{"negative port", func() (Event, error) { return NewCtrl(-1, 0, 7, 100) }, false},
		{"sysex", func() (Event, error) { return NewSysEx(0, []byte{0x7E, 0x01}) }, true},
		{"sysex with framing byte", func() (Event, error) { return NewSysEx(0, []byte{0xF7}) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				var invalid *contracts.InvalidEventError
				if !errors.As(err, &invalid) {
					t.Fatalf("expected InvalidEventError, got %v", err)
				}
			}
		})
	}
}

func TestNewSysExCopiesPayload(t *testing.T) {
	data := []byte{0x01, 0x02}
	ev, err := NewSysEx(0, data)
	if err != nil {
		t.Fatal(err)
	}
	data[0] = 0x7F
	if ev.Data[0] != 0x01 {
		t.Errorf("payload shares memory with the caller: %v", ev.Data)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want Event
	}{
		{"note on", []byte{0x91, 60, 100}, Event{Kind: KindNoteOn, Port: 2, Channel: 1, Note: 60, Velocity: 100}},
		{"note on velocity zero", []byte{0x90, 60, 0}, Event{Kind: KindNoteOff, Port: 2, Channel: 0, Note: 60}},
		{"note off", []byte{0x8F, 61, 64}, Event{Kind: KindNoteOff, Port: 2, Channel: 15, Note: 61, Velocity: 64}},
		{"control change", []byte{0xB3, 7, 90}, Event{Kind: KindCtrl, Port: 2, Channel: 3, Controller: 7, Value: 90}},
		{"sysex", []byte{0xF0, 0x7E, 0x00, 0xF7}, Event{Kind: KindSysEx, Port: 2, Data: []byte{0x7E, 0x00}}},
		{"empty sysex", []byte{0xF0, 0xF7}, Event{Kind: KindSysEx, Port: 2, Data: []byte{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(2, tt.raw)
			if err != nil {
				t.Fatalf("Decode(% X): %v", tt.raw, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Decode(% X) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDecodeFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"running status", []byte{60, 100}},
		{"program change", []byte{0xC0, 5}},
		{"pitch bend", []byte{0xE0, 0, 64}},
		{"clock", []byte{0xF8}},
		{"truncated note on", []byte{0x90, 60}},
		{"data byte high bit", []byte{0x90, 0x80, 10}},
		{"truncated sysex", []byte{0xF0, 0x01, 0x02}},
		{"sysex with status byte inside", []byte{0xF0, 0x01, 0x90, 0xF7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(0, tt.raw)
			var invalid *contracts.InvalidEventError
			if !errors.As(err, &invalid) {
				t.Fatalf("Decode(% X) error = %v, want InvalidEventError", tt.raw, err)
			}
		})
	}
}

func TestEncodeRoundTripsDecode(t *testing.T) {
	events := []Event{
		{Kind: KindNoteOn, Channel: 2, Note: 64, Velocity: 80},
		{Kind: KindNoteOff, Channel: 2, Note: 64, Velocity: 10},
		{Kind: KindCtrl, Channel: 9, Controller: 64, Value: 127},
		{Kind: KindSysEx, Data: []byte{0x43, 0x10, 0x4C}},
	}
	for _, ev := range events {
		raw, err := Encode(ev)
		if err != nil {
			t.Fatalf("Encode(%v): %v", ev, err)
		}
		got, err := Decode(0, raw)
		if err != nil {
			t.Fatalf("Decode(% X): %v", raw, err)
		}
		if !got.Equal(ev) {
			t.Errorf("round trip of %v gave %v", ev, got)
		}
	}
}

func TestEncodeBytes(t *testing.T) {
	raw, err := Encode(Event{Kind: KindNoteOn, Channel: 1, Note: 60, Velocity: 100})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{0x91, 60, 100}) {
		t.Errorf("Encode note on = % X", raw)
	}

	raw, err = Encode(Event{Kind: KindSysEx, Data: []byte{0x01}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, []byte{0xF0, 0x01, 0xF7}) {
		t.Errorf("Encode sysex = % X", raw)
	}
}

func TestEncodeRejectsNoneAndInvalid(t *testing.T) {
	if _, err := Encode(None()); err == nil {
		t.Error("encoding a None event should fail")
	}
	if _, err := Encode(Event{Kind: KindNoteOn, Channel: 20}); err == nil {
		t.Error("encoding channel 20 should fail")
	}
}

func TestClamp(t *testing.T) {
	for in, want := range map[int]uint8{-5: 0, 0: 0, 64: 64, 127: 127, 300: 127} {
		if got := Clamp(in); got != want {
			t.Errorf("Clamp(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestUnsupported(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want bool
	}{
		{"clock", []byte{0xF8}, true},
		{"active sensing", []byte{0xFE}, true},
		{"song position", []byte{0xF2, 0, 0}, true},
		{"program change", []byte{0xC0, 5}, true},
		{"pitch bend", []byte{0xE1, 0, 64}, true},
		{"poly pressure", []byte{0xA0, 60, 10}, true},
		{"note on", []byte{0x90, 60, 100}, false},
		{"truncated note", []byte{0x90, 60}, false},
		{"controller", []byte{0xB3, 7, 1}, false},
		{"sysex", []byte{0xF0, 1, 0xF7}, false},
		{"stray end of sysex", []byte{0xF7}, false},
		{"stray data", []byte{0x40}, false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Unsupported(tt.raw); got != tt.want {
				t.Fatalf("Unsupported(% X) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		stream []byte
		want   [][]byte
	}{
		{"single", []byte{0x90, 60, 100}, [][]byte{{0x90, 60, 100}}},
		{"two", []byte{0x90, 60, 100, 0xB0, 7, 1}, [][]byte{{0x90, 60, 100}, {0xB0, 7, 1}}},
		{"running status", []byte{0x90, 60, 100, 62, 0}, [][]byte{{0x90, 60, 100}, {0x90, 62, 0}}},
		{"program change", []byte{0xC0, 5, 0x90, 1, 2}, [][]byte{{0xC0, 5}, {0x90, 1, 2}}},
		{"sysex", []byte{0xF0, 1, 2, 0xF7, 0xB0, 1, 2}, [][]byte{{0xF0, 1, 2, 0xF7}, {0xB0, 1, 2}}},
		{"real-time", []byte{0x90, 0xF8, 60, 100}, [][]byte{{0x90}, {0xF8}, {0x90, 60, 100}}},
		{"truncated", []byte{0xB0, 7, 0x90, 60, 1}, [][]byte{{0xB0, 7}, {0x90, 60, 1}}},
		{"unterminated sysex", []byte{0xF0, 1, 2}, [][]byte{{0xF0, 1, 2}}},
		{"stray data", []byte{60, 100}, [][]byte{{60}, {100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Split(tt.stream); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Split(% X) = % X, want % X", tt.stream, got, tt.want)
			}
		})
	}
}
