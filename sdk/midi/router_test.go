package midi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/leandrodaf/mididings/internal/logger"
	"github.com/leandrodaf/mididings/internal/midi/memory"
	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/event"
	"github.com/leandrodaf/mididings/sdk/patch"
	"github.com/leandrodaf/mididings/sdk/scene"
)

func newTestRouter(t *testing.T, opts ...contracts.Option) (*Router, *memory.Backend) {
	t.Helper()
	nop := logger.NewNopLogger()
	mem := memory.New(64, nop)
	base := []contracts.Option{
		contracts.WithLogger(nop),
		contracts.WithBackendInstance(mem),
		contracts.WithInPorts(contracts.PortSpec{Name: "in"}),
		contracts.WithOutPorts(contracts.PortSpec{Name: "out"}, contracts.PortSpec{Name: "out2"}),
	}
	r, err := NewRouter(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, mem
}

// feed queues messages on input 0 and disconnects afterwards, so Run
// processes all of them and then ends with a transport error.
func feed(t *testing.T, mem *memory.Backend, messages ...[]byte) {
	t.Helper()
	for _, m := range messages {
		if err := mem.Inject(0, m...); err != nil {
			t.Fatal(err)
		}
	}
	mem.Disconnect()
}

func runUntilDisconnect(t *testing.T, r *Router, args RunArguments) {
	t.Helper()
	err := r.Run(context.Background(), args)
	var transport *contracts.TransportError
	if !errors.As(err, &transport) || !errors.Is(err, contracts.ErrDisconnected) {
		t.Fatalf("Run = %v, want a receive TransportError", err)
	}
	if transport.Op != "receive" {
		t.Fatalf("transport error op %q", transport.Op)
	}
}

func sent(port int, data ...byte) contracts.Packet {
	return contracts.Packet{Port: port, Data: data}
}

func assertSent(t *testing.T, mem *memory.Backend, want ...contracts.Packet) {
	t.Helper()
	got := mem.Sent()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %v, want %v", got, want)
	}
}

func TestRunHarmonizer(t *testing.T) {
	r, mem := newTestRouter(t)
	feed(t, mem,
		[]byte{0x91, 60, 100},
		[]byte{0x92, 60, 100},
	)
	runUntilDisconnect(t, r, RunArguments{
		Patch: patch.Chain(
			patch.ChannelFilter(1),
			patch.Fork(
				patch.Pass(),
				patch.Chain(patch.Transpose(4), patch.VelocityMultiply(0.8)),
				patch.Chain(patch.Transpose(7), patch.VelocityMultiply(0.5)),
			),
			patch.Channel(2),
		),
	})
	assertSent(t, mem,
		sent(0, 0x92, 60, 100),
		sent(0, 0x92, 64, 80),
		sent(0, 0x92, 67, 50),
	)
}

func TestRunDropsInvalidInput(t *testing.T) {
	r, mem := newTestRouter(t)
	feed(t, mem,
		[]byte{0xA0, 60, 10},
		[]byte{0xF0, 0x01},
		[]byte{0x90, 60},
		[]byte{0x90, 60, 0},
		[]byte{0xF0, 0x7E, 0x01, 0xF7},
	)
	runUntilDisconnect(t, r, RunArguments{Patch: patch.Pass()})
	assertSent(t, mem,
		sent(0, 0x80, 60, 0),
		sent(0, 0xF0, 0x7E, 0x01, 0xF7),
	)
}

// noteScenes send note 64 to the output numbered after the scene and drop
// everything else.
func noteScenes() []*scene.Scene {
	return []*scene.Scene{
		scene.New("One", patch.Chain(patch.TypeFilter(event.KindNoteOn), patch.KeyFilter(64), patch.Port(0))),
		scene.New("Two", patch.Chain(patch.TypeFilter(event.KindNoteOn), patch.KeyFilter(64), patch.Port(1))),
	}
}

func TestRunControlPatchSwitchesScenes(t *testing.T) {
	r, mem := newTestRouter(t)
	marker := []byte{0x90, 64, 1}
	feed(t, mem,
		marker,
		[]byte{0x90, 62, 100},
		marker,
		[]byte{0x90, 60, 100},
		marker,
	)
	runUntilDisconnect(t, r, RunArguments{
		Scenes: noteScenes(),
		Control: patch.Fork(
			patch.Chain(patch.KeyFilter(62), patch.SceneSwitch(2), patch.Discard()),
			patch.Chain(patch.KeyFilter(60), patch.SceneSwitch(1), patch.Discard()),
		),
	})
	assertSent(t, mem,
		sent(0, marker...),
		sent(1, marker...),
		sent(0, marker...),
	)
}

func TestRunInitialScene(t *testing.T) {
	marker := []byte{0x90, 64, 1}

	r, mem := newTestRouter(t, contracts.WithInitialScene(1))
	feed(t, mem, marker)
	runUntilDisconnect(t, r, RunArguments{Scenes: noteScenes()})
	assertSent(t, mem, sent(1, marker...))

	first := 0
	r, mem = newTestRouter(t, contracts.WithInitialScene(1))
	feed(t, mem, marker)
	runUntilDisconnect(t, r, RunArguments{Scenes: noteScenes(), InitialScene: &first})
	assertSent(t, mem, sent(0, marker...))
}

func TestRunLifecycleOnCancel(t *testing.T) {
	r, mem := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, RunArguments{
		Scenes: []*scene.Scene{{
			Name: "Lights",
			Init: patch.Ctrl(20, 1),
			Exit: patch.Ctrl(20, 0),
		}},
		Init: patch.Chain(patch.Ctrl(7, 100), patch.Port(1)),
		Exit: patch.Panic(),
	})
	if err != nil {
		t.Fatalf("Run = %v, want nil on cancel", err)
	}

	got := mem.Sent()
	if len(got) != 3+32 {
		t.Fatalf("sent %d packets, want 35: %v", len(got), got)
	}
	want := []contracts.Packet{
		sent(1, 0xB0, 7, 100),
		sent(0, 0xB0, 20, 1),
		sent(0, 0xB0, 20, 0),
		sent(0, 0xB0, 123, 0),
	}
	if !reflect.DeepEqual(got[:4], want) {
		t.Fatalf("sent %v, want prefix %v", got[:4], want)
	}
}

func TestRunGlobalInitSwitchesScene(t *testing.T) {
	r, mem := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, RunArguments{
		Scenes: []*scene.Scene{
			{Name: "One", Init: patch.Ctrl(1, 1)},
			{Name: "Two", Init: patch.Ctrl(2, 2)},
		},
		Init: patch.Chain(patch.Ctrl(9, 9), patch.SceneSwitch(2)),
	})
	if err != nil {
		t.Fatalf("Run = %v, want nil on cancel", err)
	}
	assertSent(t, mem,
		sent(0, 0xB0, 9, 9),
		sent(0, 0xB0, 1, 1),
		sent(0, 0xB0, 2, 2),
	)
}

func TestRunQuit(t *testing.T) {
	r, mem := newTestRouter(t)
	for _, m := range [][]byte{{0x90, 1, 1}, {0x90, 60, 1}} {
		if err := mem.Inject(0, m...); err != nil {
			t.Fatal(err)
		}
	}
	err := r.Run(context.Background(), RunArguments{
		Patch: patch.Fork(
			patch.Chain(patch.KeyFilter(1), patch.Quit(), patch.Discard()),
			patch.Pass(),
		),
	})
	if err != nil {
		t.Fatalf("Run = %v, want nil after Quit", err)
	}
	assertSent(t, mem, sent(0, 0x90, 1, 1))
}

func TestRunPrePost(t *testing.T) {
	r, mem := newTestRouter(t)
	feed(t, mem, []byte{0x90, 60, 100})
	runUntilDisconnect(t, r, RunArguments{
		Pre:     patch.Transpose(12),
		Control: patch.Chain(patch.KeyFilter(72), patch.Ctrl(1, 1)),
		Patch:   patch.Pass(),
		Post:    patch.Channel(3),
	})
	assertSent(t, mem,
		sent(0, 0xB3, 1, 1),
		sent(0, 0x93, 72, 100),
	)
}

func TestRunDropsEventsWithoutOutput(t *testing.T) {
	r, mem := newTestRouter(t)
	feed(t, mem, []byte{0x90, 60, 100})
	runUntilDisconnect(t, r, RunArguments{Patch: patch.Fork(patch.Port(5), patch.Port(1))})
	assertSent(t, mem, sent(1, 0x90, 60, 100))
}

func TestRunSendFailure(t *testing.T) {
	r, mem := newTestRouter(t)
	boom := errors.New("cable pulled")
	mem.FailSends(boom)
	if err := mem.Inject(0, 0x90, 60, 100); err != nil {
		t.Fatal(err)
	}

	err := r.Run(context.Background(), RunArguments{Patch: patch.Pass()})
	var transport *contracts.TransportError
	if !errors.As(err, &transport) || transport.Op != "send" || transport.Port != "out" {
		t.Fatalf("Run = %v, want a send TransportError on out", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestRunDropsMessagesTheBackendCannotSend(t *testing.T) {
	r, mem := newTestRouter(t)
	mem.LimitMessageSize(3)
	feed(t, mem,
		[]byte{0xF0, 0x7E, 0x01, 0xF7},
		[]byte{0x90, 60, 100},
	)
	runUntilDisconnect(t, r, RunArguments{Patch: patch.Pass()})
	assertSent(t, mem, sent(0, 0x90, 60, 100))
}

func TestRunLogsUnsupportedInputAtDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.log")
	log := logger.NewZapLogger()
	log.SetDestination(contracts.FileLog, path)

	r, mem := newTestRouter(t, contracts.WithLogger(log), contracts.WithLogLevel(contracts.DebugLevel))
	feed(t, mem,
		[]byte{0xF8},
		[]byte{0xFE},
		[]byte{0xC0, 5},
		[]byte{0xE0, 0, 64},
		[]byte{0x90, 60},
		[]byte{0x40},
	)
	runUntilDisconnect(t, r, RunArguments{Patch: patch.Pass()})
	_ = log.(*logger.ZapLogger).Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var debug, warn int
	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.Contains(line, "Ignoring unsupported MIDI message"):
			if !strings.Contains(line, `"level":"debug"`) {
				t.Errorf("unsupported message not logged at debug: %s", line)
			}
			debug++
		case strings.Contains(line, "Dropping invalid MIDI event"):
			if !strings.Contains(line, `"level":"warn"`) {
				t.Errorf("malformed message not logged at warn: %s", line)
			}
			warn++
		}
	}
	if debug != 4 || warn != 2 {
		t.Fatalf("logged %d unsupported and %d invalid messages, want 4 and 2:\n%s", debug, warn, data)
	}
	assertSent(t, mem)
}

func TestRunRejectsInvalidPrograms(t *testing.T) {
	three := 2
	tests := []struct {
		name string
		args RunArguments
	}{
		{"nothing", RunArguments{}},
		{"both", RunArguments{Patch: patch.Pass(), Scenes: noteScenes()}},
		{"bad literal", RunArguments{Patch: patch.Channel(20)}},
		{"not over modifier", RunArguments{Patch: patch.Not(patch.Transpose(1))}},
		{"unknown scene", RunArguments{Scenes: noteScenes(), Control: patch.SceneSwitch(3)}},
		{"initial scene", RunArguments{Scenes: noteScenes(), InitialScene: &three}},
		{"bad exit", RunArguments{Patch: patch.Pass(), Exit: patch.KeyFilter(300)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mem := newTestRouter(t)
			_ = mem.Inject(0, 0x90, 60, 100)
			err := r.Run(context.Background(), tt.args)
			var invalid *contracts.InvalidPatchError
			if !errors.As(err, &invalid) {
				t.Fatalf("Run = %v, want InvalidPatchError", err)
			}
			assertSent(t, mem)
		})
	}
}

func TestRunRejectsOutOfRangeInitialOption(t *testing.T) {
	r, _ := newTestRouter(t, contracts.WithInitialScene(4))
	var invalid *contracts.InvalidPatchError
	if err := r.Run(context.Background(), RunArguments{Scenes: noteScenes()}); !errors.As(err, &invalid) {
		t.Fatalf("Run = %v, want InvalidPatchError", err)
	}
}

func TestPackageRunValidatesBeforeOpening(t *testing.T) {
	nop := logger.NewNopLogger()
	mem := memory.New(4, nop)
	err := Run(context.Background(), RunArguments{Patch: patch.Channel(99)},
		contracts.WithLogger(nop), contracts.WithBackendInstance(mem))
	var invalid *contracts.InvalidPatchError
	if !errors.As(err, &invalid) {
		t.Fatalf("Run = %v, want InvalidPatchError", err)
	}
	if ins, outs := mem.Opened(); len(ins)+len(outs) != 0 {
		t.Fatalf("ports were opened: %v %v", ins, outs)
	}
}

func TestPackageRunClosesBackend(t *testing.T) {
	nop := logger.NewNopLogger()
	mem := memory.New(4, nop)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, RunArguments{Patch: patch.Pass()}, contracts.WithLogger(nop), contracts.WithBackendInstance(mem)); err != nil {
		t.Fatalf("Run = %v", err)
	}
	ins, outs := mem.Opened()
	if !reflect.DeepEqual(ins, []contracts.PortSpec{{Name: "in"}}) || !reflect.DeepEqual(outs, []contracts.PortSpec{{Name: "out"}}) {
		t.Fatalf("default ports %v %v", ins, outs)
	}
	if err := mem.Send(0, []byte{0x90, 1, 1}); !errors.Is(err, contracts.ErrDisconnected) {
		t.Fatalf("backend still open: %v", err)
	}
}

func TestNewRouterFailures(t *testing.T) {
	nop := logger.NewNopLogger()

	_, err := NewRouter(contracts.WithLogger(nop), contracts.WithBackend("bogus"))
	if !errors.Is(err, contracts.ErrUnknownBackend) {
		t.Fatalf("unknown backend: %v", err)
	}

	mem := memory.New(4, nop)
	_ = mem.Close()
	_, err = NewRouter(contracts.WithLogger(nop), contracts.WithBackendInstance(mem))
	var transport *contracts.TransportError
	if !errors.As(err, &transport) || transport.Op != "open" || transport.Port != "in" {
		t.Fatalf("closed backend: %v", err)
	}

	_, err = NewRouter(contracts.WithLogger(nop), contracts.WithBackendInstance(memory.New(4, nop)),
		contracts.WithOutPorts(contracts.PortSpec{Name: "a"}, contracts.PortSpec{Name: "a"}))
	if err == nil {
		t.Fatal("duplicate port names accepted")
	}
}

func TestRunTwiceConcurrently(t *testing.T) {
	r, mem := newTestRouter(t)
	r.running.Store(true)
	if err := r.Run(context.Background(), RunArguments{Patch: patch.Pass()}); !errors.Is(err, ErrRouterRunning) {
		t.Fatalf("Run = %v", err)
	}
	r.running.Store(false)
	assertSent(t, mem)
}

func TestBackendSelection(t *testing.T) {
	for goos, want := range map[string]string{"darwin": "coremidi", "windows": "winmm", "linux": "rtmidi", "freebsd": "rtmidi"} {
		if got := DefaultBackend(goos); got != want {
			t.Errorf("DefaultBackend(%q) = %q, want %q", goos, got, want)
		}
	}
	want := []string{"coremidi", "memory", "null", "rtmidi", "winmm"}
	if got := Backends(); !reflect.DeepEqual(got, want) {
		t.Errorf("Backends() = %v", got)
	}

	devices, err := ListDevices(contracts.WithLogger(logger.NewNopLogger()), contracts.WithBackend("null"))
	if !errors.Is(err, contracts.ErrNoMIDIDevices) || devices != nil {
		t.Errorf("ListDevices on the null backend = %v, %v", devices, err)
	}
}
