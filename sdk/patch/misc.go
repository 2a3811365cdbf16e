package patch

import (
	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/event"
)

type printNode struct {
	log   contracts.Logger
	label string
}

// Print logs every event at info level and passes it on.
func Print(log contracts.Logger, label string) Node {
	if log == nil {
		return invalidf("Print", "logger is nil")
	}
	return &printNode{log: log, label: label}
}

func (p *printNode) Evaluate(_ Context, ev event.Event) []event.Event {
	if ev.Kind != event.KindNone {
		p.log.Info("MIDI event",
			p.log.Field().String("label", p.label),
			p.log.Field().String("event", ev.String()),
		)
	}
	return single(ev)
}

type quitNode struct{}

// Quit asks the router to stop after the current event.
func Quit() Node { return quitNode{} }

func (quitNode) Evaluate(ctx Context, ev event.Event) []event.Event {
	ctx.RequestQuit()
	return single(ev)
}
