// Package patch implements the routing program: nodes that turn one event
// into zero or more events, and the connectors that compose them.
package patch

import "github.com/leandrodaf/mididings/sdk/event"

// Node is one element of a patch. Evaluate must not block, perform I/O or
// modify ev; any effect other than its result goes through ctx.
type Node interface {
	Evaluate(ctx Context, ev event.Event) []event.Event
}

// Filter is a node that only decides whether an event passes unchanged.
// Only filters can be inverted with Not.
type Filter interface {
	Node
	Match(ev event.Event) bool
}

// SwitchLevel selects which component of the active scene path a switch
// request changes.
type SwitchLevel int

const (
	LevelScene SwitchLevel = iota
	LevelSubscene
)

// SwitchRequest asks the scene manager to change the active path. Index is
// 0-based when Relative is false and an offset from the current position
// otherwise.
type SwitchRequest struct {
	Level    SwitchLevel
	Index    int
	Relative bool
}

// Context is the runtime state nodes may act on while being evaluated.
type Context interface {
	RequestSwitch(req SwitchRequest)
	RequestQuit()
}

// NopContext ignores every request. Use it to evaluate patches in isolation.
var NopContext Context = nopContext{}

type nopContext struct{}

func (nopContext) RequestSwitch(SwitchRequest) {}
func (nopContext) RequestQuit()                {}

// EvaluateAll evaluates every event of in through n and concatenates the
// results in order.
func EvaluateAll(ctx Context, n Node, in []event.Event) []event.Event {
	switch len(in) {
	case 0:
		return nil
	case 1:
		return n.Evaluate(ctx, in[0])
	}
	var out []event.Event
	for _, ev := range in {
		out = append(out, n.Evaluate(ctx, ev)...)
	}
	return out
}

func single(ev event.Event) []event.Event {
	return []event.Event{ev}
}
