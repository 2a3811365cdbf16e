// Package memory is an in-process MIDI backend. Packets are injected by
// the caller and sent packets are recorded, which makes it the backend for
// tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/leandrodaf/mididings/internal/midi/inbox"
	"github.com/leandrodaf/mididings/sdk/contracts"
)

// Backend implements contracts.Backend without any MIDI system.
type Backend struct {
	logger contracts.Logger
	inbox  *inbox.Inbox

	mu      sync.Mutex
	ins     map[int]contracts.PortSpec
	outs    map[int]contracts.PortSpec
	sent    []contracts.Packet
	sendErr error
	maxLen  int
	closed  bool
}

// NewBackend is the backend initializer used by the router for the
// "memory" and "null" backend names.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	return New(options.BufferSize, options.Logger), nil
}

// New returns an empty backend whose receive queue holds bufferSize packets.
func New(bufferSize int, logger contracts.Logger) *Backend {
	return &Backend{
		logger: logger,
		inbox:  inbox.New(bufferSize, logger),
		ins:    make(map[int]contracts.PortSpec),
		outs:   make(map[int]contracts.PortSpec),
	}
}

// ListDevices lists the opened ports as devices.
func (b *Backend) ListDevices() ([]contracts.DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var devices []contracts.DeviceInfo
	for _, dir := range []struct {
		ports map[int]contracts.PortSpec
		dir   contracts.Direction
	}{{b.ins, contracts.DirectionIn}, {b.outs, contracts.DirectionOut}} {
		for i := 0; i < len(dir.ports); i++ {
			devices = append(devices, contracts.DeviceInfo{
				Name:         dir.ports[i].Name,
				Manufacturer: "mididings",
				EntityName:   "memory",
				Direction:    dir.dir,
			})
		}
	}
	if len(devices) == 0 {
		return nil, contracts.ErrNoMIDIDevices
	}
	return devices, nil
}

// OpenInput registers an input port.
func (b *Backend) OpenInput(port int, spec contracts.PortSpec) error {
	return b.open(b.ins, port, spec)
}

// OpenOutput registers an output port.
func (b *Backend) OpenOutput(port int, spec contracts.PortSpec) error {
	return b.open(b.outs, port, spec)
}

func (b *Backend) open(ports map[int]contracts.PortSpec, port int, spec contracts.PortSpec) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return contracts.ErrDisconnected
	}
	if _, ok := ports[port]; ok {
		return fmt.Errorf("port %d already open", port)
	}
	ports[port] = spec
	return nil
}

// Receive returns the next injected packet.
func (b *Backend) Receive(ctx context.Context) (contracts.Packet, error) {
	return b.inbox.Receive(ctx)
}

// Send records data as sent on port.
func (b *Backend) Send(port int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return contracts.ErrDisconnected
	}
	if _, ok := b.outs[port]; !ok {
		return fmt.Errorf("%w: output %d", contracts.ErrUnknownPort, port)
	}
	if b.sendErr != nil {
		return b.sendErr
	}
	if b.maxLen > 0 && len(data) > b.maxLen {
		return fmt.Errorf("%w: %d bytes, limit %d", contracts.ErrUnsupportedMessage, len(data), b.maxLen)
	}
	b.sent = append(b.sent, contracts.Packet{Port: port, Data: append([]byte(nil), data...)})
	return nil
}

// Close releases the backend. Receive returns ErrDisconnected after the
// queued packets.
func (b *Backend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.inbox.Close(contracts.ErrDisconnected)
	return nil
}

// Inject queues data as received on input port.
func (b *Backend) Inject(port int, data ...byte) error {
	b.mu.Lock()
	_, ok := b.ins[port]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: input %d", contracts.ErrUnknownPort, port)
	}
	if !b.inbox.Push(port, data) {
		return fmt.Errorf("packet on input %d dropped", port)
	}
	return nil
}

// Disconnect simulates the device going away: Receive fails with
// ErrDisconnected once the queued packets are consumed.
func (b *Backend) Disconnect() {
	b.inbox.Close(contracts.ErrDisconnected)
}

// FailSends makes every following Send return err.
func (b *Backend) FailSends(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendErr = err
}

// LimitMessageSize makes Send reject messages longer than n bytes with
// contracts.ErrUnsupportedMessage, like a short message transport. Zero
// removes the limit.
func (b *Backend) LimitMessageSize(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxLen = n
}

// Sent returns a copy of every packet sent so far.
func (b *Backend) Sent() []contracts.Packet {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]contracts.Packet(nil), b.sent...)
}

// Opened reports the specs of the opened input and output ports.
func (b *Backend) Opened() (ins, outs []contracts.PortSpec) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i < len(b.ins); i++ {
		ins = append(ins, b.ins[i])
	}
	for i := 0; i < len(b.outs); i++ {
		outs = append(outs, b.outs[i])
	}
	return ins, outs
}
