package patch

import (
	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/event"
	"go.uber.org/multierr"
)

// Limits bound the scene numbers scene switching nodes may target. A
// negative value disables the corresponding check.
type Limits struct {
	Scenes    int
	Subscenes int
}

// Unchecked disables every scene target check.
var Unchecked = Limits{Scenes: -1, Subscenes: -1}

// checker is implemented by nodes that can be invalid.
type checker interface {
	check(l Limits) error
}

// parent is implemented by connectors.
type parent interface {
	children() []Node
}

// Validate walks the patch and returns every construction error it holds,
// plus scene switches that target a scene outside l. A nil patch is valid.
func Validate(n Node, l Limits) error {
	if n == nil {
		return nil
	}
	var err error
	if c, ok := n.(checker); ok {
		err = multierr.Append(err, c.check(l))
	}
	if p, ok := n.(parent); ok {
		for _, child := range p.children() {
			err = multierr.Append(err, Validate(child, l))
		}
	}
	return err
}

// Check is Validate without scene target checks.
func Check(n Node) error {
	return Validate(n, Unchecked)
}

// invalidNode stands in for a node whose constructor rejected its arguments.
// It drops everything; Validate reports its error.
type invalidNode struct {
	err *contracts.InvalidPatchError
}

func invalidf(node, format string, args ...interface{}) Node {
	return &invalidNode{err: contracts.NewInvalidPatchError(node, format, args...)}
}

func (n *invalidNode) Evaluate(Context, event.Event) []event.Event { return nil }

func (n *invalidNode) check(Limits) error { return n.err }
