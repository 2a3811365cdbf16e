package scene

import (
	"fmt"
	"strings"

	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/event"
	"github.com/leandrodaf/mididings/sdk/patch"
)

// maxCascade bounds the transitions one Apply runs when init and exit
// patches keep requesting switches.
const maxCascade = 16

// Manager owns the active scene path. It is the patch.Context every patch
// is evaluated with and must only be used from the dispatch goroutine.
type Manager struct {
	log    contracts.Logger
	scenes []*Scene

	// path holds 0-based indices, root first, always down to a leaf.
	path       []int
	remembered map[*Scene]int

	pending *patch.SwitchRequest
	quit    bool
	started bool
}

// NewManager returns a manager for scenes. Call Validate on scenes first.
func NewManager(scenes []*Scene, log contracts.Logger) *Manager {
	return &Manager{
		log:        log,
		scenes:     scenes,
		remembered: make(map[*Scene]int),
	}
}

// RequestSwitch records req. Requests raised while a stage is evaluated
// overwrite each other; Apply acts on the last one.
func (m *Manager) RequestSwitch(req patch.SwitchRequest) {
	m.pending = &req
}

// RequestQuit asks the router to stop.
func (m *Manager) RequestQuit() {
	m.quit = true
}

// QuitRequested reports whether a patch asked the router to stop.
func (m *Manager) QuitRequested() bool {
	return m.quit
}

// Path returns a copy of the active path.
func (m *Manager) Path() []int {
	return append([]int(nil), m.path...)
}

// Active returns the innermost active scene, or nil before Start.
func (m *Manager) Active() *Scene {
	if len(m.path) == 0 {
		return nil
	}
	return m.sceneAt(m.path)
}

// Start activates top level scene index (0-based) and returns the output
// of the init patches, run from the root scene down. A switch requested
// before Start, or by those init patches, is applied afterwards.
func (m *Manager) Start(index int) ([]event.Event, error) {
	if m.started {
		return nil, fmt.Errorf("scene manager already started")
	}
	if index < 0 || index >= len(m.scenes) {
		return nil, contracts.NewInvalidPatchError("", "initial scene %d is not declared (%d scenes)", index+1, len(m.scenes))
	}
	m.started = true
	m.path = m.descend([]int{index})
	m.logActive()

	var out []event.Event
	for d := range m.path {
		out = append(out, m.runHook(m.sceneAt(m.path[:d+1]).Init)...)
	}
	return append(out, m.Apply()...), nil
}

// Apply resolves the pending switch request, if any, and returns the
// output of the exit and init patches it ran. Switching to the active path
// is a no-op.
func (m *Manager) Apply() []event.Event {
	var out []event.Event
	for i := 0; m.pending != nil; i++ {
		req := *m.pending
		m.pending = nil
		if i == maxCascade {
			m.log.Warn("Scene switch dropped, too many cascaded switch requests",
				m.log.Field().Int("limit", maxCascade))
			break
		}
		target, ok := m.resolve(req)
		if !ok || equalPath(target, m.path) {
			continue
		}
		out = append(out, m.transition(target)...)
	}
	return out
}

// Route evaluates in through the active scene path.
func (m *Manager) Route(in []event.Event) []event.Event {
	if len(m.path) == 0 || len(in) == 0 {
		return nil
	}
	return m.route(m.scenes[m.path[0]], m.path[1:], in)
}

func (m *Manager) route(s *Scene, rest []int, in []event.Event) []event.Event {
	if s.Pre != nil {
		in = patch.EvaluateAll(m, s.Pre, in)
	}
	if len(in) == 0 {
		return nil
	}
	var out []event.Event
	if s.Patch != nil {
		out = patch.EvaluateAll(m, s.Patch, in)
	}
	if len(rest) > 0 {
		out = append(out, m.route(s.Subscenes[rest[0]], rest[1:], in)...)
	}
	if s.Post != nil {
		out = patch.EvaluateAll(m, s.Post, out)
	}
	return out
}

// Stop runs the exit patches from the innermost scene up and returns their
// output. Switch requests raised by them are discarded.
func (m *Manager) Stop() []event.Event {
	if !m.started {
		return nil
	}
	var out []event.Event
	for d := len(m.path) - 1; d >= 0; d-- {
		out = append(out, m.runHook(m.sceneAt(m.path[:d+1]).Exit)...)
	}
	m.pending = nil
	m.started = false
	return out
}

// resolve computes the path req points at. It returns false when req
// cannot be applied to the active path.
func (m *Manager) resolve(req patch.SwitchRequest) ([]int, bool) {
	if len(m.path) == 0 {
		return nil, false
	}
	if req.Level == patch.LevelScene {
		index := req.Index
		if req.Relative {
			index = clamp(m.path[0]+req.Index, len(m.scenes))
		}
		if index < 0 || index >= len(m.scenes) {
			m.log.Warn("Scene switch ignored, no such scene",
				m.log.Field().Int("scene", index+1))
			return nil, false
		}
		return m.descend([]int{index}), true
	}

	if len(m.path) < 2 {
		m.log.Warn("Subscene switch ignored, active scene has no subscenes",
			m.log.Field().String("scene", m.Active().Name))
		return nil, false
	}
	parentPath := m.path[:len(m.path)-1]
	siblings := len(m.sceneAt(parentPath).Subscenes)
	index := req.Index
	if req.Relative {
		index = clamp(m.path[len(m.path)-1]+req.Index, siblings)
	}
	if index < 0 || index >= siblings {
		m.log.Warn("Subscene switch ignored, no such subscene",
			m.log.Field().Int("subscene", index+1),
			m.log.Field().Int("available", siblings))
		return nil, false
	}
	target := append(append([]int(nil), parentPath...), index)
	return m.descend(target), true
}

// descend extends path down to a leaf using the subscene last active under
// each parent.
func (m *Manager) descend(path []int) []int {
	for {
		s := m.sceneAt(path)
		if len(s.Subscenes) == 0 {
			return path
		}
		path = append(path, m.remembered[s])
	}
}

func (m *Manager) transition(target []int) []event.Event {
	common := 0
	for common < len(target) && common < len(m.path) && target[common] == m.path[common] {
		common++
	}

	var out []event.Event
	for d := len(m.path) - 1; d >= common; d-- {
		out = append(out, m.runHook(m.sceneAt(m.path[:d+1]).Exit)...)
	}

	m.path = target
	for d := 1; d < len(target); d++ {
		m.remembered[m.sceneAt(target[:d])] = target[d]
	}
	m.logActive()

	for d := common; d < len(target); d++ {
		out = append(out, m.runHook(m.sceneAt(target[:d+1]).Init)...)
	}
	return out
}

// runHook evaluates an init or exit patch once against the None event.
func (m *Manager) runHook(n patch.Node) []event.Event {
	if n == nil {
		return nil
	}
	return n.Evaluate(m, event.None())
}

func (m *Manager) sceneAt(path []int) *Scene {
	s := m.scenes[path[0]]
	for _, i := range path[1:] {
		s = s.Subscenes[i]
	}
	return s
}

func (m *Manager) logActive() {
	numbers := make([]string, len(m.path))
	names := make([]string, len(m.path))
	s := m.scenes
	for d, i := range m.path {
		numbers[d] = fmt.Sprint(i + 1)
		names[d] = s[i].Name
		s = s[i].Subscenes
	}
	m.log.Info(fmt.Sprintf("Scene %s: %s", strings.Join(numbers, "."), strings.Join(names, " - ")),
		m.log.Field().String("path", strings.Join(numbers, ".")))
}

func clamp(index, n int) int {
	if index < 0 {
		return 0
	}
	if index >= n {
		return n - 1
	}
	return index
}

func equalPath(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
