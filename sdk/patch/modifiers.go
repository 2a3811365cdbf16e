package patch

import (
	"math"

	"github.com/leandrodaf/mididings/sdk/event"
)

// modifier rewrites fields of the events it applies to and passes the rest
// unchanged. It always returns exactly one event.
type modifier struct {
	modify func(ev event.Event) event.Event
}

func (m *modifier) Evaluate(_ Context, ev event.Event) []event.Event {
	return single(m.modify(ev))
}

// Port sends events to output port n.
func Port(n int) Node {
	if n < 0 {
		return invalidf("Port", "port %d is negative", n)
	}
	return &modifier{modify: func(ev event.Event) event.Event {
		if ev.Kind != event.KindNone {
			ev.Port = n
		}
		return ev
	}}
}

// Channel moves note and controller events to channel n.
func Channel(n int) Node {
	if n < 0 || n > event.MaxChannel {
		return invalidf("Channel", "channel %d out of range 0-%d", n, event.MaxChannel)
	}
	return &modifier{modify: func(ev event.Event) event.Event {
		if ev.HasChannel() {
			ev.Channel = uint8(n)
		}
		return ev
	}}
}

// Transpose shifts notes by n semitones, clamping at 0 and 127.
func Transpose(n int) Node {
	if n < -event.MaxData || n > event.MaxData {
		return invalidf("Transpose", "offset %d out of range -127-127", n)
	}
	return transpose(n)
}

// TransposeOctave shifts notes by n octaves.
func TransposeOctave(n int) Node {
	if n < -10 || n > 10 {
		return invalidf("TransposeOctave", "offset %d out of range -10-10", n)
	}
	return transpose(n * 12)
}

func transpose(n int) Node {
	return &modifier{modify: func(ev event.Event) event.Event {
		if ev.IsNote() {
			ev.Note = event.Clamp(int(ev.Note) + n)
		}
		return ev
	}}
}

// Key replaces the note number of note events.
func Key(note int) Node {
	if note < 0 || note > event.MaxData {
		return invalidf("Key", "note %d out of range 0-%d", note, event.MaxData)
	}
	return &modifier{modify: func(ev event.Event) event.Event {
		if ev.IsNote() {
			ev.Note = uint8(note)
		}
		return ev
	}}
}

// Velocity adds delta to the velocity of NoteOn events.
func Velocity(delta int) Node {
	if delta < -event.MaxData || delta > event.MaxData {
		return invalidf("Velocity", "offset %d out of range -127-127", delta)
	}
	return velocity(func(v uint8) uint8 { return event.Clamp(int(v) + delta) })
}

// VelocityMultiply scales the velocity of NoteOn events by f, rounding to
// the nearest integer (halves away from zero) and clamping to 0-127.
func VelocityMultiply(f float64) Node {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return invalidf("VelocityMultiply", "factor %v must be a finite number >= 0", f)
	}
	return velocity(func(v uint8) uint8 { return scale(v, f) })
}

// VelocityFixed sets the velocity of NoteOn events to v.
func VelocityFixed(v int) Node {
	if v < 0 || v > event.MaxData {
		return invalidf("VelocityFixed", "velocity %d out of range 0-%d", v, event.MaxData)
	}
	return velocity(func(uint8) uint8 { return uint8(v) })
}

func velocity(fn func(uint8) uint8) Node {
	return &modifier{modify: func(ev event.Event) event.Event {
		if ev.Kind == event.KindNoteOn {
			ev.Velocity = fn(ev.Velocity)
		}
		return ev
	}}
}

// CtrlMap renames controller from to controller to.
func CtrlMap(from, to int) Node {
	if from < 0 || from > event.MaxData || to < 0 || to > event.MaxData {
		return invalidf("CtrlMap", "controllers %d and %d must be within 0-%d", from, to, event.MaxData)
	}
	return &modifier{modify: func(ev event.Event) event.Event {
		if ev.Kind == event.KindCtrl && int(ev.Controller) == from {
			ev.Controller = uint8(to)
		}
		return ev
	}}
}

// CtrlValueMultiply scales controller values by f, rounding like
// VelocityMultiply.
func CtrlValueMultiply(f float64) Node {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return invalidf("CtrlValueMultiply", "factor %v must be a finite number >= 0", f)
	}
	return &modifier{modify: func(ev event.Event) event.Event {
		if ev.Kind == event.KindCtrl {
			ev.Value = scale(ev.Value, f)
		}
		return ev
	}}
}

func scale(v uint8, f float64) uint8 {
	r := math.Round(float64(v) * f)
	if r > event.MaxData {
		return event.MaxData
	}
	return event.Clamp(int(r))
}
