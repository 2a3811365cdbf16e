// Package event holds the MIDI event model the patch engine works on.
package event

import (
	"bytes"
	"fmt"

	"github.com/leandrodaf/mididings/sdk/contracts"
)

// Kind tags the variant of an Event.
type Kind uint8

const (
	// KindNone is the synthetic event init and exit patches are run with.
	// It is never sent to a transport.
	KindNone Kind = iota
	KindNoteOn
	KindNoteOff
	KindCtrl
	KindSysEx
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NONE"
	case KindNoteOn:
		return "NOTEON"
	case KindNoteOff:
		return "NOTEOFF"
	case KindCtrl:
		return "CTRL"
	case KindSysEx:
		return "SYSEX"
	}
	return fmt.Sprintf("KIND(%d)", uint8(k))
}

// Range limits of the event fields.
const (
	MaxChannel = 15
	MaxData    = 127
)

// Event is a MIDI event. Only the fields meaningful to Kind are set:
// NoteOn/NoteOff use Channel, Note and Velocity, Ctrl uses Channel,
// Controller and Value, SysEx uses Data. Port is set for every kind.
//
// Events are values. Data is shared between copies and must be treated as
// read-only.
type Event struct {
	Kind       Kind
	Port       int
	Channel    uint8
	Note       uint8
	Velocity   uint8
	Controller uint8
	Value      uint8
	Data       []byte // SysEx payload without the F0/F7 framing.
}

// None returns the synthetic event used to drive init and exit patches.
func None() Event {
	return Event{Kind: KindNone}
}

// NewNoteOn builds a validated NoteOn event.
func NewNoteOn(port, channel, note, velocity int) (Event, error) {
	if err := checkVoice(port, channel, note, velocity); err != nil {
		return Event{}, err
	}
	return Event{Kind: KindNoteOn, Port: port, Channel: uint8(channel), Note: uint8(note), Velocity: uint8(velocity)}, nil
}

// NewNoteOff builds a validated NoteOff event.
func NewNoteOff(port, channel, note, velocity int) (Event, error) {
	if err := checkVoice(port, channel, note, velocity); err != nil {
		return Event{}, err
	}
	return Event{Kind: KindNoteOff, Port: port, Channel: uint8(channel), Note: uint8(note), Velocity: uint8(velocity)}, nil
}

// NewCtrl builds a validated control change event.
func NewCtrl(port, channel, controller, value int) (Event, error) {
	if err := checkVoice(port, channel, controller, value); err != nil {
		return Event{}, err
	}
	return Event{Kind: KindCtrl, Port: port, Channel: uint8(channel), Controller: uint8(controller), Value: uint8(value)}, nil
}

// NewSysEx builds a SysEx event. The payload is copied and must not contain
// the F0/F7 framing bytes.
func NewSysEx(port int, data []byte) (Event, error) {
	if err := checkPort(port); err != nil {
		return Event{}, err
	}
	if err := checkSysEx(data); err != nil {
		return Event{}, err
	}
	return Event{Kind: KindSysEx, Port: port, Data: append([]byte(nil), data...)}, nil
}

// Validate checks the field ranges of e.
func (e Event) Validate() error {
	if err := checkPort(e.Port); err != nil {
		return err
	}
	switch e.Kind {
	case KindNone:
		return nil
	case KindNoteOn, KindNoteOff:
		return checkChannel(int(e.Channel), int(e.Note), int(e.Velocity))
	case KindCtrl:
		return checkChannel(int(e.Channel), int(e.Controller), int(e.Value))
	case KindSysEx:
		return checkSysEx(e.Data)
	}
	return &contracts.InvalidEventError{Reason: fmt.Sprintf("unknown event kind %d", e.Kind)}
}

// HasChannel reports whether the kind carries a channel.
func (e Event) HasChannel() bool {
	return e.Kind == KindNoteOn || e.Kind == KindNoteOff || e.Kind == KindCtrl
}

// IsNote reports whether e is a NoteOn or a NoteOff.
func (e Event) IsNote() bool {
	return e.Kind == KindNoteOn || e.Kind == KindNoteOff
}

// Equal compares two events field by field, SysEx payload included.
func (e Event) Equal(o Event) bool {
	return e.Kind == o.Kind && e.Port == o.Port && e.Channel == o.Channel &&
		e.Note == o.Note && e.Velocity == o.Velocity &&
		e.Controller == o.Controller && e.Value == o.Value &&
		bytes.Equal(e.Data, o.Data)
}

func (e Event) String() string {
	switch e.Kind {
	case KindNoteOn, KindNoteOff:
		return fmt.Sprintf("%s port=%d channel=%d note=%d velocity=%d", e.Kind, e.Port, e.Channel, e.Note, e.Velocity)
	case KindCtrl:
		return fmt.Sprintf("%s port=%d channel=%d ctrl=%d value=%d", e.Kind, e.Port, e.Channel, e.Controller, e.Value)
	case KindSysEx:
		return fmt.Sprintf("%s port=%d data=% X", e.Kind, e.Port, e.Data)
	}
	return e.Kind.String()
}

// Clamp limits v to the 7 bit data range.
func Clamp(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > MaxData {
		return MaxData
	}
	return uint8(v)
}

func checkPort(port int) error {
	if port < 0 {
		return &contracts.InvalidEventError{Reason: fmt.Sprintf("port %d is negative", port)}
	}
	return nil
}

func checkVoice(port, channel, data1, data2 int) error {
	if err := checkPort(port); err != nil {
		return err
	}
	return checkChannel(channel, data1, data2)
}

func checkChannel(channel, data1, data2 int) error {
	if channel < 0 || channel > MaxChannel {
		return &contracts.InvalidEventError{Reason: fmt.Sprintf("channel %d out of range 0-%d", channel, MaxChannel)}
	}
	if data1 < 0 || data1 > MaxData {
		return &contracts.InvalidEventError{Reason: fmt.Sprintf("data byte %d out of range 0-%d", data1, MaxData)}
	}
	if data2 < 0 || data2 > MaxData {
		return &contracts.InvalidEventError{Reason: fmt.Sprintf("data byte %d out of range 0-%d", data2, MaxData)}
	}
	return nil
}

func checkSysEx(data []byte) error {
	for i, b := range data {
		if b > MaxData {
			return &contracts.InvalidEventError{Data: data, Reason: fmt.Sprintf("sysex byte %d is 0x%02X, not a data byte", i, b)}
		}
	}
	return nil
}
