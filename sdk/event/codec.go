package event

import (
	"bytes"
	"fmt"

	"github.com/leandrodaf/mididings/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Status bytes understood by Decode.
const (
	statusNoteOff    = 0x80
	statusNoteOn     = 0x90
	statusCtrl       = 0xB0
	statusSysExStart = 0xF0
	statusSysExEnd   = 0xF7
)

// Decode turns one raw message received on port into an Event. Anything it
// cannot represent fails with *contracts.InvalidEventError: the caller is
// expected to drop that message and carry on.
func Decode(port int, raw []byte) (Event, error) {
	if len(raw) == 0 {
		return Event{}, invalid(raw, "empty message")
	}
	status := raw[0]
	if status < 0x80 {
		return Event{}, invalid(raw, "running status is not supported")
	}
	if status == statusSysExStart {
		return decodeSysEx(port, raw)
	}

	kind := status & 0xF0
	if kind != statusNoteOff && kind != statusNoteOn && kind != statusCtrl {
		return Event{}, invalid(raw, fmt.Sprintf("unsupported status byte 0x%02X", status))
	}
	if len(raw) != 3 {
		return Event{}, invalid(raw, fmt.Sprintf("expected 3 bytes, got %d", len(raw)))
	}
	if raw[1] > MaxData || raw[2] > MaxData {
		return Event{}, invalid(raw, "data byte has the high bit set")
	}

	var channel, data1, data2 uint8
	msg := gomidi.Message(raw)
	switch {
	case kind == statusNoteOn && raw[2] == 0:
		// NoteOn with velocity 0 is a NoteOff by convention.
		return Event{Kind: KindNoteOff, Port: port, Channel: status & 0x0F, Note: raw[1]}, nil
	case kind == statusNoteOn && msg.GetNoteOn(&channel, &data1, &data2):
		return Event{Kind: KindNoteOn, Port: port, Channel: channel, Note: data1, Velocity: data2}, nil
	case kind == statusNoteOff && msg.GetNoteOff(&channel, &data1, &data2):
		return Event{Kind: KindNoteOff, Port: port, Channel: channel, Note: data1, Velocity: data2}, nil
	case kind == statusCtrl && msg.GetControlChange(&channel, &data1, &data2):
		return Event{Kind: KindCtrl, Port: port, Channel: channel, Controller: data1, Value: data2}, nil
	}
	return Event{}, invalid(raw, "malformed channel message")
}

func decodeSysEx(port int, raw []byte) (Event, error) {
	if len(raw) < 2 || raw[len(raw)-1] != statusSysExEnd {
		return Event{}, invalid(raw, "truncated sysex")
	}
	if len(raw) == 2 {
		return Event{Kind: KindSysEx, Port: port, Data: []byte{}}, nil
	}

	var payload []byte
	if !gomidi.Message(raw).GetSysEx(&payload) {
		return Event{}, invalid(raw, "malformed sysex")
	}
	if err := checkSysEx(payload); err != nil {
		return Event{}, err
	}
	return Event{Kind: KindSysEx, Port: port, Data: append([]byte(nil), payload...)}, nil
}

// Encode renders e as raw MIDI bytes. KindNone and out of range events are
// rejected.
func Encode(e Event) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	switch e.Kind {
	case KindNoteOn:
		return []byte(gomidi.NoteOn(e.Channel, e.Note, e.Velocity)), nil
	case KindNoteOff:
		return []byte(gomidi.NoteOffVelocity(e.Channel, e.Note, e.Velocity)), nil
	case KindCtrl:
		return []byte(gomidi.ControlChange(e.Channel, e.Controller, e.Value)), nil
	case KindSysEx:
		return []byte(gomidi.SysEx(e.Data)), nil
	}
	return nil, invalid(nil, fmt.Sprintf("%s events cannot be sent", e.Kind))
}

// Unsupported reports whether raw starts with the status byte of a message
// Events do not represent: system common and real-time messages, and
// channel messages other than notes and controllers. The router drops those
// quietly, unlike malformed bytes.
func Unsupported(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	status := raw[0]
	switch {
	case status < 0x80, status == statusSysExStart, status == statusSysExEnd:
		return false
	case status > statusSysExStart:
		return true
	}
	kind := status & 0xF0
	return kind != statusNoteOff && kind != statusNoteOn && kind != statusCtrl
}

// Split cuts a byte stream that may hold several messages, as CoreMIDI
// packets do, into single messages. Running status is expanded. Stray data
// bytes and truncated messages are returned as they are so Decode rejects
// them.
func Split(stream []byte) [][]byte {
	var (
		out     [][]byte
		running byte
	)
	for i := 0; i < len(stream); {
		b := stream[i]
		switch {
		case b >= 0xF8:
			out = append(out, stream[i:i+1])
			i++
		case b == statusSysExStart:
			end := bytes.IndexByte(stream[i:], statusSysExEnd)
			if end < 0 {
				return append(out, stream[i:])
			}
			out = append(out, stream[i:i+end+1])
			i += end + 1
			running = 0
		case b >= 0x80:
			running = 0
			if b < 0xF0 {
				running = b
			}
			end := dataEnd(stream, i+1, messageLength(b)-1)
			out = append(out, stream[i:end])
			i = end
		case running != 0:
			end := dataEnd(stream, i, messageLength(running)-1)
			out = append(out, append([]byte{running}, stream[i:end]...))
			i = end
		default:
			out = append(out, stream[i:i+1])
			i++
		}
	}
	return out
}

// dataEnd returns the end of up to n data bytes starting at from.
func dataEnd(stream []byte, from, n int) int {
	end := from
	for end < len(stream) && end < from+n && stream[end] <= MaxData {
		end++
	}
	return end
}

func messageLength(status byte) int {
	switch {
	case status >= 0xC0 && status <= 0xDF:
		return 2
	case status < 0xF0:
		return 3
	case status == 0xF1 || status == 0xF3:
		return 2
	case status == 0xF2:
		return 3
	}
	return 1
}

func invalid(raw []byte, reason string) *contracts.InvalidEventError {
	return &contracts.InvalidEventError{Data: append([]byte(nil), raw...), Reason: reason}
}
