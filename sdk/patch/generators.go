package patch

import (
	"github.com/leandrodaf/mididings/sdk/event"
)

type passNode struct{}

// Pass returns every event unchanged.
func Pass() Node { return passNode{} }

func (passNode) Evaluate(_ Context, ev event.Event) []event.Event { return single(ev) }
func (passNode) Match(event.Event) bool                           { return true }

type discardNode struct{}

// Discard drops every event. It terminates a branch.
func Discard() Node { return discardNode{} }

func (discardNode) Evaluate(Context, event.Event) []event.Event { return nil }
func (discardNode) Match(event.Event) bool                      { return false }

// generator may return any number of events for one input.
type generator struct {
	generate func(ev event.Event) []event.Event
}

func (g *generator) Evaluate(_ Context, ev event.Event) []event.Event {
	return g.generate(ev)
}

// replace builds a generator that substitutes the input with a fresh event
// on the input's port, and channel when the input has one.
func replace(build func(port int, channel uint8) event.Event) Node {
	return &generator{generate: func(ev event.Event) []event.Event {
		var channel uint8
		if ev.HasChannel() {
			channel = ev.Channel
		}
		return single(build(ev.Port, channel))
	}}
}

// NoteOn replaces each event with a NoteOn for note at velocity.
func NoteOn(note, velocity int) Node {
	if note < 0 || note > event.MaxData || velocity < 0 || velocity > event.MaxData {
		return invalidf("NoteOn", "note %d and velocity %d must be within 0-%d", note, velocity, event.MaxData)
	}
	return replace(func(port int, channel uint8) event.Event {
		return event.Event{Kind: event.KindNoteOn, Port: port, Channel: channel, Note: uint8(note), Velocity: uint8(velocity)}
	})
}

// NoteOff replaces each event with a NoteOff for note.
func NoteOff(note int) Node {
	if note < 0 || note > event.MaxData {
		return invalidf("NoteOff", "note %d out of range 0-%d", note, event.MaxData)
	}
	return replace(func(port int, channel uint8) event.Event {
		return event.Event{Kind: event.KindNoteOff, Port: port, Channel: channel, Note: uint8(note)}
	})
}

// Ctrl replaces each event with a control change.
func Ctrl(controller, value int) Node {
	if controller < 0 || controller > event.MaxData || value < 0 || value > event.MaxData {
		return invalidf("Ctrl", "controller %d and value %d must be within 0-%d", controller, value, event.MaxData)
	}
	return replace(func(port int, channel uint8) event.Event {
		return event.Event{Kind: event.KindCtrl, Port: port, Channel: channel, Controller: uint8(controller), Value: uint8(value)}
	})
}

// SysEx replaces each event with a system exclusive message carrying data,
// given without the F0/F7 framing.
func SysEx(data ...byte) Node {
	for i, b := range data {
		if b > event.MaxData {
			return invalidf("SysEx", "byte %d is 0x%02X, not a data byte", i, b)
		}
	}
	data = append([]byte(nil), data...)
	return replace(func(port int, _ uint8) event.Event {
		return event.Event{Kind: event.KindSysEx, Port: port, Data: data}
	})
}

// Chord turns every note event into one note per interval, in the given
// order. Interval 0 is the input note itself. Other events pass unchanged.
func Chord(intervals ...int) Node {
	if len(intervals) == 0 {
		return invalidf("Chord", "needs at least one interval")
	}
	for _, i := range intervals {
		if i < -event.MaxData || i > event.MaxData {
			return invalidf("Chord", "interval %d out of range -127-127", i)
		}
	}
	intervals = append([]int(nil), intervals...)
	return &generator{generate: func(ev event.Event) []event.Event {
		if !ev.IsNote() {
			return single(ev)
		}
		out := make([]event.Event, len(intervals))
		for i, interval := range intervals {
			out[i] = ev
			out[i].Note = event.Clamp(int(ev.Note) + interval)
		}
		return out
	}}
}

// Controllers sent by Panic.
const (
	ctrlSustain     = 64
	ctrlAllNotesOff = 123
)

// Panic replaces each event with all-notes-off followed by sustain-off on
// all 16 channels of the input's port.
func Panic() Node {
	return &generator{generate: func(ev event.Event) []event.Event {
		out := make([]event.Event, 0, 2*(event.MaxChannel+1))
		for _, ctrl := range []uint8{ctrlAllNotesOff, ctrlSustain} {
			for c := 0; c <= event.MaxChannel; c++ {
				out = append(out, event.Event{Kind: event.KindCtrl, Port: ev.Port, Channel: uint8(c), Controller: ctrl})
			}
		}
		return out
	}}
}

// Process runs fn for every event. fn must follow the Node rules: no
// blocking, no I/O, no changes to its argument.
func Process(fn func(ev event.Event) []event.Event) Node {
	if fn == nil {
		return invalidf("Process", "function is nil")
	}
	return &generator{generate: fn}
}
