package midi

import (
	"context"
	"errors"
	"fmt"

	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/event"
	"github.com/leandrodaf/mididings/sdk/patch"
	"github.com/leandrodaf/mididings/sdk/scene"
	"go.uber.org/multierr"
)

// SinglePatchScene names the scene a lone Patch is wrapped in.
const SinglePatchScene = "Single patch"

// RunArguments is the program a router runs. Exactly one of Patch and
// Scenes must be set. Every patch is optional otherwise.
type RunArguments struct {
	Patch   patch.Node     // Patch is run as the only scene.
	Scenes  []*scene.Scene // Scenes are switched by SceneSwitch nodes.
	Control patch.Node     // Control sees every event whatever the active scene.
	Pre     patch.Node     // Pre runs before Control and the scenes.
	Post    patch.Node     // Post runs on everything Control and the scenes emit.
	Init    patch.Node     // Init runs once before the first scene starts.
	Exit    patch.Node     // Exit runs once after the last scene stopped.

	// InitialScene overrides the 0-based starting scene set with
	// contracts.WithInitialScene.
	InitialScene *int
}

// scenes returns the scene list the arguments describe.
func (a RunArguments) scenes() ([]*scene.Scene, error) {
	switch {
	case a.Patch != nil && len(a.Scenes) > 0:
		return nil, contracts.NewInvalidPatchError("", "give either a patch or scenes, not both")
	case a.Patch != nil:
		return []*scene.Scene{scene.New(SinglePatchScene, a.Patch)}, nil
	case len(a.Scenes) > 0:
		return a.Scenes, nil
	}
	return nil, contracts.NewInvalidPatchError("", "no patch and no scenes given")
}

// Validate reports every construction error of the program and switches to
// scenes it does not declare.
func (a RunArguments) Validate() error {
	scenes, err := a.scenes()
	if err != nil {
		return err
	}
	err = scene.Validate(scenes)
	limits := scene.LimitsOf(scenes)
	for _, global := range []struct {
		name string
		node patch.Node
	}{
		{"control", a.Control},
		{"pre", a.Pre},
		{"post", a.Post},
		{"init", a.Init},
		{"exit", a.Exit},
	} {
		if e := patch.Validate(global.node, limits); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s patch: %w", global.name, e))
		}
	}
	if a.InitialScene != nil && (*a.InitialScene < 0 || *a.InitialScene >= len(scenes)) {
		err = multierr.Append(err, contracts.NewInvalidPatchError("", "initial scene %d is not declared (%d scenes)", *a.InitialScene+1, len(scenes)))
	}
	return err
}

// Run builds a router from opts, runs args on it and closes it again. The
// program is validated before any port is opened.
func Run(ctx context.Context, args RunArguments, opts ...contracts.Option) (err error) {
	if err := args.Validate(); err != nil {
		return err
	}
	r, err := NewRouter(opts...)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, r.Close())
	}()
	return r.Run(ctx, args)
}

// Run routes events until ctx is done, a Quit node fires or the transport
// fails. Only a transport failure or an invalid program is returned as an
// error. Exit patches run on every way out.
func (r *Router) Run(ctx context.Context, args RunArguments) error {
	if err := args.Validate(); err != nil {
		return err
	}
	scenes, _ := args.scenes()
	initial := r.options.InitialScene
	if args.InitialScene != nil {
		initial = *args.InitialScene
	}
	if initial >= len(scenes) {
		return contracts.NewInvalidPatchError("", "initial scene %d is not declared (%d scenes)", initial+1, len(scenes))
	}

	if !r.running.CompareAndSwap(false, true) {
		return ErrRouterRunning
	}
	defer r.running.Store(false)

	d := &dispatcher{
		router:  r,
		args:    args,
		manager: scene.NewManager(scenes, r.logger),
	}

	err := d.send(hook(d.manager, args.Init))
	if err == nil {
		var out []event.Event
		out, err = d.manager.Start(initial)
		if err == nil {
			err = d.send(out)
		}
	}
	if err == nil {
		r.logger.Info("MIDI router running", r.logger.Field().Int("scenes", len(scenes)))
		err = d.loop(ctx)
	}
	d.shutdown()
	return err
}

// dispatcher is the state of one Run.
type dispatcher struct {
	router  *Router
	args    RunArguments
	manager *scene.Manager
}

func (d *dispatcher) loop(ctx context.Context) error {
	log := d.router.logger
	for {
		if d.manager.QuitRequested() {
			log.Info("Quit requested; stopping MIDI router")
			return nil
		}
		if ctx.Err() != nil {
			log.Info("MIDI router interrupted")
			return nil
		}

		pkt, err := d.router.backend.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("MIDI router interrupted")
				return nil
			}
			log.Error("MIDI receive failed", log.Field().Error("error", err))
			return &contracts.TransportError{Op: "receive", Err: err}
		}

		ev, err := event.Decode(pkt.Port, pkt.Data)
		if err != nil {
			if event.Unsupported(pkt.Data) {
				log.Debug("Ignoring unsupported MIDI message",
					log.Field().Int("port", pkt.Port),
					log.Field().Uint8("status", pkt.Data[0]))
			} else {
				log.Warn("Dropping invalid MIDI event",
					log.Field().Int("port", pkt.Port),
					log.Field().Error("error", err))
			}
			continue
		}
		if err := d.send(d.dispatch(ev)); err != nil {
			return err
		}
	}
}

// dispatch runs one event through the program: Pre, then Control and the
// active scene side by side, then Post. A switch requested by Pre or
// Control is applied before the scene sees the event; later requests take
// effect for the next event.
func (d *dispatcher) dispatch(ev event.Event) []event.Event {
	m := d.manager
	in := []event.Event{ev}
	if d.args.Pre != nil {
		in = patch.EvaluateAll(m, d.args.Pre, in)
	}

	var routed []event.Event
	if d.args.Control != nil {
		routed = patch.EvaluateAll(m, d.args.Control, in)
	}
	out := m.Apply()
	routed = append(routed, m.Route(in)...)
	if d.args.Post != nil {
		routed = patch.EvaluateAll(m, d.args.Post, routed)
	}
	out = append(out, routed...)
	return append(out, m.Apply()...)
}

// send encodes and sends events in order. Only a backend failure is
// returned; events that cannot be encoded, or that the backend cannot
// carry, are dropped.
func (d *dispatcher) send(events []event.Event) error {
	log := d.router.logger
	outs := d.router.options.OutPorts
	for _, ev := range events {
		if ev.Kind == event.KindNone {
			continue
		}
		if ev.Port < 0 || ev.Port >= len(outs) {
			log.Debug("No output port for event; dropping",
				log.Field().Int("port", ev.Port),
				log.Field().String("event", ev.String()))
			continue
		}
		raw, err := event.Encode(ev)
		if err != nil {
			log.Warn("Dropping invalid MIDI event", log.Field().Error("error", err))
			continue
		}
		if err := d.router.backend.Send(ev.Port, raw); err != nil {
			if errors.Is(err, contracts.ErrUnsupportedMessage) {
				log.Warn("Dropping MIDI event the backend cannot send",
					log.Field().String("port", outs[ev.Port].Name),
					log.Field().String("event", ev.String()),
					log.Field().Error("error", err))
				continue
			}
			log.Error("MIDI send failed",
				log.Field().String("port", outs[ev.Port].Name),
				log.Field().Error("error", err))
			return &contracts.TransportError{Op: "send", Port: outs[ev.Port].Name, Err: err}
		}
	}
	return nil
}

// shutdown runs the scene exit patches and then the global one. Send
// failures are only logged: the transport may be what ended the loop.
func (d *dispatcher) shutdown() {
	out := d.manager.Stop()
	out = append(out, hook(d.manager, d.args.Exit)...)
	if err := d.send(out); err != nil {
		d.router.logger.Warn("Exit patches could not be sent", d.router.logger.Field().Error("error", err))
	}
}

// hook runs an init or exit patch once against the None event.
func hook(ctx patch.Context, n patch.Node) []event.Event {
	if n == nil {
		return nil
	}
	return n.Evaluate(ctx, event.None())
}
