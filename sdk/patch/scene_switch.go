package patch

import (
	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/event"
)

// sceneSwitch records a switch request for every event it sees and passes
// the event on, so it composes as Chain(KeyFilter(60), SceneSwitch(1), Discard()).
type sceneSwitch struct {
	name string
	req  SwitchRequest
}

func (s *sceneSwitch) Evaluate(ctx Context, ev event.Event) []event.Event {
	ctx.RequestSwitch(s.req)
	return single(ev)
}

func (s *sceneSwitch) check(l Limits) error {
	if s.req.Relative {
		return nil
	}
	limit := l.Scenes
	if s.req.Level == LevelSubscene {
		limit = l.Subscenes
	}
	if limit >= 0 && s.req.Index >= limit {
		return contracts.NewInvalidPatchError(s.name, "target %d is not a declared scene (%d declared)", s.req.Index+1, limit)
	}
	return nil
}

// SceneSwitch activates scene n, counting from 1.
func SceneSwitch(n int) Node {
	return absoluteSwitch("SceneSwitch", LevelScene, n)
}

// SubSceneSwitch activates subscene n of the active scene, counting from 1.
// Validation rejects n only when no scene the switch can run in has that
// many subscenes; a switch that misses at runtime is logged and ignored.
func SubSceneSwitch(n int) Node {
	return absoluteSwitch("SubSceneSwitch", LevelSubscene, n)
}

// SceneSwitchOffset moves offset scenes forward or back.
func SceneSwitchOffset(offset int) Node {
	return &sceneSwitch{name: "SceneSwitchOffset", req: SwitchRequest{Level: LevelScene, Index: offset, Relative: true}}
}

// SubSceneSwitchOffset moves offset subscenes forward or back.
func SubSceneSwitchOffset(offset int) Node {
	return &sceneSwitch{name: "SubSceneSwitchOffset", req: SwitchRequest{Level: LevelSubscene, Index: offset, Relative: true}}
}

func absoluteSwitch(name string, level SwitchLevel, n int) Node {
	if n < 1 {
		return invalidf(name, "scene numbers start at 1, got %d", n)
	}
	return &sceneSwitch{name: name, req: SwitchRequest{Level: level, Index: n - 1}}
}
