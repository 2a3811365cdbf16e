// Package scene holds the scene tree and the manager that tracks which
// scene is active and runs the transitions between them.
package scene

import (
	"fmt"

	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/patch"
	"go.uber.org/multierr"
)

// Scene is a named patch with lifecycle hooks. A nil Patch drops every
// event, nil Pre and Post pass them, nil Init and Exit do nothing.
// Subscenes nest with the same structure at every depth.
type Scene struct {
	Name      string
	Patch     patch.Node
	Pre       patch.Node
	Post      patch.Node
	Init      patch.Node
	Exit      patch.Node
	Subscenes []*Scene
}

// New returns a scene with only a patch set.
func New(name string, p patch.Node, subscenes ...*Scene) *Scene {
	return &Scene{Name: name, Patch: p, Subscenes: subscenes}
}

// LimitsOf returns the scene switch targets reachable from patches that run
// in every scene: the number of top level scenes and the largest subscene
// list of the tree.
func LimitsOf(scenes []*Scene) patch.Limits {
	return patch.Limits{Scenes: len(scenes), Subscenes: maxSubscenes(scenes)}
}

func maxSubscenes(scenes []*Scene) int {
	n := 0
	for _, s := range scenes {
		if s == nil {
			continue
		}
		if len(s.Subscenes) > n {
			n = len(s.Subscenes)
		}
		if m := maxSubscenes(s.Subscenes); m > n {
			n = m
		}
	}
	return n
}

// Validate checks every patch of the tree against the switch targets the
// tree declares. A subscene switch in a scene's own patches is checked
// against the subscene lists its active leaf can sit in.
func Validate(scenes []*Scene) error {
	if len(scenes) == 0 {
		return contracts.NewInvalidPatchError("", "no scenes declared")
	}
	return validate(scenes, len(scenes), 0, "")
}

func validate(scenes []*Scene, top, siblings int, prefix string) error {
	var err error
	for i, s := range scenes {
		number := fmt.Sprintf("%s%d", prefix, i+1)
		if s == nil {
			err = multierr.Append(err, contracts.NewInvalidPatchError("", "scene %s is nil", number))
			continue
		}
		l := patch.Limits{Scenes: top, Subscenes: leafSiblings(s, siblings)}
		for _, n := range []patch.Node{s.Pre, s.Patch, s.Post, s.Init, s.Exit} {
			if e := patch.Validate(n, l); e != nil {
				err = multierr.Append(err, fmt.Errorf("scene %s (%s): %w", number, s.Name, e))
			}
		}
		err = multierr.Append(err, validate(s.Subscenes, top, len(s.Subscenes), number+"."))
	}
	return err
}

// leafSiblings returns the largest subscene list a leaf at or below s
// belongs to. siblings is the length of the list s itself belongs to, 0
// for a top level scene.
func leafSiblings(s *Scene, siblings int) int {
	if len(s.Subscenes) == 0 {
		return siblings
	}
	n := 0
	for _, sub := range s.Subscenes {
		if sub == nil {
			continue
		}
		if m := leafSiblings(sub, len(s.Subscenes)); m > n {
			n = m
		}
	}
	return n
}
