package midi

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/leandrodaf/mididings/internal/midi/memory"
	"github.com/leandrodaf/mididings/internal/midi/mididarwin"
	"github.com/leandrodaf/mididings/internal/midi/midiwindows"
	"github.com/leandrodaf/mididings/internal/midi/rtmidi"
	"github.com/leandrodaf/mididings/sdk/contracts"
)

// backendInitializers maps backend names to their constructors.
var backendInitializers = map[string]func(*contracts.ClientOptions) (contracts.Backend, error){
	"coremidi": mididarwin.NewBackend,  // macOS CoreMIDI.
	"winmm":    midiwindows.NewBackend, // Windows multimedia API.
	"rtmidi":   rtmidi.NewBackend,      // RtMidi, needs cgo.
	"memory":   memory.NewBackend,      // In-process, for tests and dry runs.
	"null":     memory.NewBackend,
}

// defaultBackends maps OS names to the backend used when none is named.
var defaultBackends = map[string]string{
	"darwin":  "coremidi",
	"windows": "winmm",
}

// Backends returns the names accepted by WithBackend.
func Backends() []string {
	names := make([]string, 0, len(backendInitializers))
	for name := range backendInitializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultBackend returns the backend used on goos when none is named.
func DefaultBackend(goos string) string {
	if name, ok := defaultBackends[goos]; ok {
		return name
	}
	return "rtmidi"
}

// NewBackend builds the backend selected by opts: the injected instance,
// the named backend, or the default for the running OS.
func NewBackend(opts *contracts.ClientOptions) (contracts.Backend, error) {
	if opts.BackendImpl != nil {
		return opts.BackendImpl, nil
	}
	name := opts.Backend
	if name == "" {
		name = DefaultBackend(runtime.GOOS)
	}
	initializer, exists := backendInitializers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", contracts.ErrUnknownBackend, name)
	}
	return initializer(opts)
}
