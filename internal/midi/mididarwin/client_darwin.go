//go:build darwin
// +build darwin

package mididarwin

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/mididings/internal/midi/inbox"
	"github.com/leandrodaf/mididings/internal/midi/portname"
	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/event"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI port handling.
var (
	ErrCreateInputPort  = errors.New("error creating input port")
	ErrCreateOutputPort = errors.New("error creating output port")
	ErrMIDIConnection   = errors.New("error connecting to MIDI device")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// output is either a destination reached through the shared output port
// or a virtual source other applications read from.
type output struct {
	destination coremidi.Destination
	source      coremidi.Source
	virtual     bool
}

// Backend reaches MIDI devices through CoreMIDI on macOS.
type Backend struct {
	logger  contracts.Logger
	client  coremidi.Client
	inbox   *inbox.Inbox
	mu      sync.Mutex
	conns   []internalPortConnection
	virtual []coremidi.Destination
	outPort *coremidi.OutputPort
	outs    map[int]output
	closed  bool
}

// NewBackend creates the CoreMIDI client named after options.ClientName.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	client, err := coremidi.NewClient(options.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("MIDI client successfully created",
		options.Logger.Field().String("backend", "coremidi"))

	return &Backend{
		logger: options.Logger,
		client: client,
		inbox:  inbox.New(options.BufferSize, options.Logger),
		outs:   make(map[int]output),
	}, nil
}

// ListDevices returns every CoreMIDI source and destination.
func (m *Backend) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(sources)+len(destinations) == 0 {
		m.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, len(sources)+len(destinations))
	for _, source := range sources {
		entity := source.Entity()
		devices = append(devices, contracts.DeviceInfo{
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
			Direction:    contracts.DirectionIn,
		})
	}
	for _, destination := range destinations {
		devices = append(devices, contracts.DeviceInfo{
			Name:       destination.Name(),
			EntityName: destination.Name(),
			Direction:  contracts.DirectionOut,
		})
	}
	return devices, nil
}

// OpenInput connects an input port to the source matching spec.Connect, or
// publishes a virtual destination named spec.Name when Connect is empty.
func (m *Backend) OpenInput(port int, spec contracts.PortSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	read := func(_ coremidi.Source, packet coremidi.Packet) {
		m.handleMIDIMessage(port, packet)
	}

	if spec.Connect == "" {
		destination, err := coremidi.NewDestination(m.client, spec.Name, read)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
		}
		m.virtual = append(m.virtual, destination)
		m.logger.Info("Virtual MIDI input created", m.logger.Field().String("name", spec.Name))
		return nil
	}

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	i, err := portname.Match(names, spec.Connect)
	if err != nil {
		return err
	}

	inputPort, err := coremidi.NewInputPort(m.client, spec.Name, read)
	if err != nil {
		m.logger.Error(ErrCreateInputPort.Error())
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}
	conn, err := inputPort.Connect(sources[i])
	if err != nil {
		m.logger.Error(ErrMIDIConnection.Error())
		return fmt.Errorf("%w: %v", ErrMIDIConnection, err)
	}
	m.conns = append(m.conns, conn)

	m.logger.Info("MIDI device successfully connected",
		m.logger.Field().Int("port", port),
		m.logger.Field().String("deviceName", names[i]))
	return nil
}

// handleMIDIMessage splits a CoreMIDI packet into messages and queues them.
func (m *Backend) handleMIDIMessage(port int, packet coremidi.Packet) {
	for _, msg := range event.Split(packet.Data) {
		m.inbox.Push(port, msg)
	}
}

// OpenOutput sends to the destination matching spec.Connect, or publishes
// a virtual source named spec.Name when Connect is empty.
func (m *Backend) OpenOutput(port int, spec contracts.PortSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if spec.Connect == "" {
		source, err := coremidi.NewSource(m.client, spec.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
		}
		m.outs[port] = output{source: source, virtual: true}
		m.logger.Info("Virtual MIDI output created", m.logger.Field().String("name", spec.Name))
		return nil
	}

	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	names := make([]string, len(destinations))
	for i, d := range destinations {
		names[i] = d.Name()
	}
	i, err := portname.Match(names, spec.Connect)
	if err != nil {
		return err
	}

	if m.outPort == nil {
		outPort, err := coremidi.NewOutputPort(m.client, "mididings output")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
		}
		m.outPort = &outPort
	}
	m.outs[port] = output{destination: destinations[i]}
	m.logger.Info("MIDI output connected",
		m.logger.Field().Int("port", port),
		m.logger.Field().String("deviceName", names[i]))
	return nil
}

// Receive returns the next message from any connected source.
func (m *Backend) Receive(ctx context.Context) (contracts.Packet, error) {
	return m.inbox.Receive(ctx)
}

// Send delivers one message to an output.
func (m *Backend) Send(port int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return contracts.ErrDisconnected
	}
	out, ok := m.outs[port]
	if !ok {
		return fmt.Errorf("%w: output %d", contracts.ErrUnknownPort, port)
	}
	packet := coremidi.NewPacket(data, 0)
	if out.virtual {
		return packet.Received(&out.source)
	}
	return packet.Send(m.outPort, &out.destination)
}

// Close disconnects every input and withdraws the virtual endpoints it
// published. Queued messages are still delivered.
func (m *Backend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for _, conn := range m.conns {
		conn.Disconnect()
	}
	m.conns = nil
	for i := range m.virtual {
		m.virtual[i].Dispose()
	}
	m.virtual = nil
	for port, out := range m.outs {
		if out.virtual {
			out.source.Dispose()
		}
		delete(m.outs, port)
	}
	m.inbox.Close(contracts.ErrDisconnected)
	m.logger.Info("MIDI ports closed")
	return nil
}
