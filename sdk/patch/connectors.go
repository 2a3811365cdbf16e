package patch

import (
	"github.com/leandrodaf/mididings/sdk/event"
)

type chain struct {
	nodes []Node
}

// Chain runs nodes in sequence: every event a node emits is evaluated
// independently by the rest of the chain, and the surviving lineages are
// concatenated in order.
func Chain(nodes ...Node) Node {
	if bad := checkChildren("Chain", nodes); bad != nil {
		return bad
	}
	return &chain{nodes: append([]Node(nil), nodes...)}
}

func (c *chain) Evaluate(ctx Context, ev event.Event) []event.Event {
	out := c.nodes[0].Evaluate(ctx, ev)
	for _, n := range c.nodes[1:] {
		if len(out) == 0 {
			return nil
		}
		out = EvaluateAll(ctx, n, out)
	}
	return out
}

func (c *chain) children() []Node { return c.nodes }

type fork struct {
	nodes []Node
}

// Fork evaluates the input independently in every branch and concatenates
// the branch outputs in declaration order. Duplicates are kept.
func Fork(nodes ...Node) Node {
	if bad := checkChildren("Fork", nodes); bad != nil {
		return bad
	}
	return &fork{nodes: append([]Node(nil), nodes...)}
}

func (f *fork) Evaluate(ctx Context, ev event.Event) []event.Event {
	var out []event.Event
	for _, n := range f.nodes {
		out = append(out, n.Evaluate(ctx, ev)...)
	}
	return out
}

func (f *fork) children() []Node { return f.nodes }

type not struct {
	inner Node
	match func(ev event.Event) bool
}

// Not inverts a filter-shaped node: events it would pass are dropped and
// the others pass unchanged. Filters, Pass, Discard, Not and Chain or Fork
// made only of those are accepted; anything else is an InvalidPatchError.
func Not(n Node) Node {
	if n == nil {
		return invalidf("Not", "node is nil")
	}
	if Check(n) != nil {
		// Already invalid, Validate reports the original error.
		return n
	}
	match, ok := predicateOf(n)
	if !ok {
		return invalidf("Not", "only filters can be inverted, got a %s", describe(n))
	}
	return &not{inner: n, match: match}
}

func (n *not) Evaluate(_ Context, ev event.Event) []event.Event {
	if n.Match(ev) {
		return single(ev)
	}
	return nil
}

func (n *not) Match(ev event.Event) bool { return !n.match(ev) }

func (n *not) children() []Node { return []Node{n.inner} }

// predicateOf returns the pass/drop decision of a filter-shaped node.
func predicateOf(n Node) (func(ev event.Event) bool, bool) {
	switch n := n.(type) {
	case Filter:
		return n.Match, true
	case *chain:
		preds, ok := predicatesOf(n.nodes)
		if !ok {
			return nil, false
		}
		return func(ev event.Event) bool {
			for _, p := range preds {
				if !p(ev) {
					return false
				}
			}
			return true
		}, true
	case *fork:
		preds, ok := predicatesOf(n.nodes)
		if !ok {
			return nil, false
		}
		return func(ev event.Event) bool {
			for _, p := range preds {
				if p(ev) {
					return true
				}
			}
			return false
		}, true
	}
	return nil, false
}

func predicatesOf(nodes []Node) ([]func(ev event.Event) bool, bool) {
	preds := make([]func(ev event.Event) bool, len(nodes))
	for i, n := range nodes {
		p, ok := predicateOf(n)
		if !ok {
			return nil, false
		}
		preds[i] = p
	}
	return preds, true
}

func checkChildren(node string, nodes []Node) Node {
	if len(nodes) == 0 {
		return invalidf(node, "needs at least one node")
	}
	for i, n := range nodes {
		if n == nil {
			return invalidf(node, "node %d is nil", i+1)
		}
	}
	return nil
}

func describe(n Node) string {
	switch n.(type) {
	case *modifier:
		return "modifier"
	case *generator:
		return "generator"
	case *sceneSwitch:
		return "scene switch"
	case *chain:
		return "Chain with non-filter nodes"
	case *fork:
		return "Fork with non-filter nodes"
	}
	return "node that is not a filter"
}
