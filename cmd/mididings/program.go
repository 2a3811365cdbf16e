package main

import (
	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/event"
	"github.com/leandrodaf/mididings/sdk/midi"
	"github.com/leandrodaf/mididings/sdk/patch"
	"github.com/leandrodaf/mididings/sdk/scene"
)

// Keys that switch scenes on the first input.
const (
	keyRun     = 60
	keyPause   = 62
	keyHarmony = 64
	keyNextSub = 65
)

// demoProgram passes everything in "Run", drops everything in "Pause" and
// doubles notes in "Harmony". Notes 60, 62 and 64 select the scenes and 65
// steps through the harmony subscenes.
func demoProgram(log contracts.Logger, printEvents bool) midi.RunArguments {
	// Scenes never see the control keys.
	hideControl := patch.Not(patch.KeyFilter(keyRun, keyPause, keyHarmony, keyNextSub))
	harmony := func(name string, interval int) *scene.Scene {
		return scene.New(name, patch.Fork(
			patch.Pass(),
			patch.Chain(patch.Transpose(interval), patch.VelocityMultiply(0.8)),
		))
	}

	args := midi.RunArguments{
		Scenes: []*scene.Scene{
			{Name: "Run", Pre: hideControl, Patch: patch.Pass()},
			{Name: "Pause", Patch: patch.Discard()},
			{
				Name: "Harmony",
				Pre:  hideControl,
				Exit: patch.Panic(),
				Subscenes: []*scene.Scene{
					harmony("Major third", 4),
					harmony("Fifth", 7),
					harmony("Octave", 12),
				},
			},
		},
		Control: patch.Chain(
			patch.TypeFilter(event.KindNoteOn),
			patch.Fork(
				patch.Chain(patch.KeyFilter(keyRun), patch.SceneSwitch(1)),
				patch.Chain(patch.KeyFilter(keyPause), patch.SceneSwitch(2)),
				patch.Chain(patch.KeyFilter(keyHarmony), patch.SceneSwitch(3)),
				patch.Chain(patch.KeyFilter(keyNextSub), patch.SubSceneSwitchOffset(1)),
			),
			patch.Discard(),
		),
	}
	if printEvents {
		args.Post = patch.Print(log, "out")
	}
	return args
}
