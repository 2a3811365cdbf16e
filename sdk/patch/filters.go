package patch

import (
	"github.com/leandrodaf/mididings/sdk/event"
)

// filter passes events that match, and events of kinds it does not apply
// to, unchanged.
type filter struct {
	applies func(ev event.Event) bool
	match   func(ev event.Event) bool
}

func (f *filter) Evaluate(_ Context, ev event.Event) []event.Event {
	if f.Match(ev) {
		return single(ev)
	}
	return nil
}

func (f *filter) Match(ev event.Event) bool {
	return !f.applies(ev) || f.match(ev)
}

// byteSet is a membership table for 7 bit values.
type byteSet [event.MaxData + 1]bool

func newByteSet(node string, max int, values []int) (*byteSet, Node) {
	if len(values) == 0 {
		return nil, invalidf(node, "needs at least one value")
	}
	var s byteSet
	for _, v := range values {
		if v < 0 || v > max {
			return nil, invalidf(node, "value %d out of range 0-%d", v, max)
		}
		s[v] = true
	}
	return &s, nil
}

func checkRange(node string, lo, hi int) Node {
	if lo < 0 || hi > event.MaxData || lo > hi {
		return invalidf(node, "range %d-%d is not within 0-%d", lo, hi, event.MaxData)
	}
	return nil
}

func anyKind(ev event.Event) bool  { return true }
func isCtrl(ev event.Event) bool   { return ev.Kind == event.KindCtrl }
func isNoteOn(ev event.Event) bool { return ev.Kind == event.KindNoteOn }
func hasPort(ev event.Event) bool  { return ev.Kind != event.KindNone }

// TypeFilter passes events of the given kinds and drops everything else.
func TypeFilter(kinds ...event.Kind) Node {
	if len(kinds) == 0 {
		return invalidf("TypeFilter", "needs at least one kind")
	}
	var set [event.KindSysEx + 1]bool
	for _, k := range kinds {
		if k > event.KindSysEx {
			return invalidf("TypeFilter", "unknown kind %d", k)
		}
		set[k] = true
	}
	return &filter{
		applies: anyKind,
		match:   func(ev event.Event) bool { return ev.Kind <= event.KindSysEx && set[ev.Kind] },
	}
}

// PortFilter passes events that arrived on one of ports.
func PortFilter(ports ...int) Node {
	if len(ports) == 0 {
		return invalidf("PortFilter", "needs at least one port")
	}
	for _, p := range ports {
		if p < 0 {
			return invalidf("PortFilter", "port %d is negative", p)
		}
	}
	ports = append([]int(nil), ports...)
	return &filter{
		applies: hasPort,
		match: func(ev event.Event) bool {
			for _, p := range ports {
				if ev.Port == p {
					return true
				}
			}
			return false
		},
	}
}

// ChannelFilter passes note and controller events on one of channels.
func ChannelFilter(channels ...int) Node {
	set, bad := newByteSet("ChannelFilter", event.MaxChannel, channels)
	if bad != nil {
		return bad
	}
	return &filter{
		applies: event.Event.HasChannel,
		match:   func(ev event.Event) bool { return set[ev.Channel] },
	}
}

// KeyFilter passes note events for one of notes.
func KeyFilter(notes ...int) Node {
	set, bad := newByteSet("KeyFilter", event.MaxData, notes)
	if bad != nil {
		return bad
	}
	return &filter{
		applies: event.Event.IsNote,
		match:   func(ev event.Event) bool { return set[ev.Note] },
	}
}

// KeyRangeFilter passes note events with lo <= note <= hi.
func KeyRangeFilter(lo, hi int) Node {
	if bad := checkRange("KeyRangeFilter", lo, hi); bad != nil {
		return bad
	}
	return &filter{
		applies: event.Event.IsNote,
		match:   func(ev event.Event) bool { return int(ev.Note) >= lo && int(ev.Note) <= hi },
	}
}

// VelocityRangeFilter passes NoteOn events with lo <= velocity <= hi.
// NoteOff events pass, so a note filtered on its way in still ends.
func VelocityRangeFilter(lo, hi int) Node {
	if bad := checkRange("VelocityRangeFilter", lo, hi); bad != nil {
		return bad
	}
	return &filter{
		applies: isNoteOn,
		match:   func(ev event.Event) bool { return int(ev.Velocity) >= lo && int(ev.Velocity) <= hi },
	}
}

// CtrlFilter passes controller events for one of controllers.
func CtrlFilter(controllers ...int) Node {
	set, bad := newByteSet("CtrlFilter", event.MaxData, controllers)
	if bad != nil {
		return bad
	}
	return &filter{
		applies: isCtrl,
		match:   func(ev event.Event) bool { return set[ev.Controller] },
	}
}

// CtrlValueFilter passes controller events with one of values.
func CtrlValueFilter(values ...int) Node {
	set, bad := newByteSet("CtrlValueFilter", event.MaxData, values)
	if bad != nil {
		return bad
	}
	return &filter{
		applies: isCtrl,
		match:   func(ev event.Event) bool { return set[ev.Value] },
	}
}

// CtrlValueRangeFilter passes controller events with lo <= value <= hi.
func CtrlValueRangeFilter(lo, hi int) Node {
	if bad := checkRange("CtrlValueRangeFilter", lo, hi); bad != nil {
		return bad
	}
	return &filter{
		applies: isCtrl,
		match:   func(ev event.Event) bool { return int(ev.Value) >= lo && int(ev.Value) <= hi },
	}
}
