//go:build cgo
// +build cgo

// Package rtmidi is the portable MIDI backend on top of RtMidi (ALSA, JACK,
// CoreMIDI or WinMM, depending on the platform).
package rtmidi

import (
	"context"
	"fmt"
	"sync"

	"github.com/leandrodaf/mididings/internal/midi/inbox"
	"github.com/leandrodaf/mididings/internal/midi/portname"
	"github.com/leandrodaf/mididings/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"
)

type input struct {
	port drivers.In
	stop func()
}

// Backend implements contracts.Backend with gomidi's rtmidi driver.
type Backend struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver
	inbox  *inbox.Inbox

	mu        sync.Mutex
	ins       map[int]*input
	outs      map[int]drivers.Out
	closeOnce sync.Once
}

// NewBackend opens the rtmidi driver.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmidi driver: %w", err)
	}
	options.Logger.Info("MIDI client successfully created",
		options.Logger.Field().String("backend", "rtmidi"))
	return &Backend{
		logger: options.Logger,
		drv:    drv,
		inbox:  inbox.New(options.BufferSize, options.Logger),
		ins:    make(map[int]*input),
		outs:   make(map[int]drivers.Out),
	}, nil
}

// ListDevices lists every input and output port RtMidi can see.
func (b *Backend) ListDevices() ([]contracts.DeviceInfo, error) {
	ins, err := b.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	outs, err := b.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	devices := make([]contracts.DeviceInfo, 0, len(ins)+len(outs))
	for _, in := range ins {
		devices = append(devices, contracts.DeviceInfo{Name: in.String(), EntityName: in.String(), Direction: contracts.DirectionIn})
	}
	for _, out := range outs {
		devices = append(devices, contracts.DeviceInfo{Name: out.String(), EntityName: out.String(), Direction: contracts.DirectionOut})
	}
	if len(devices) == 0 {
		b.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}
	return devices, nil
}

// OpenInput creates a virtual input named spec.Name, or connects to the
// source matching spec.Connect.
func (b *Backend) OpenInput(port int, spec contracts.PortSpec) error {
	var (
		in  drivers.In
		err error
	)
	if spec.Connect == "" {
		in, err = b.drv.OpenVirtualIn(spec.Name)
	} else {
		in, err = b.findIn(spec.Connect)
		if err == nil {
			err = in.Open()
		}
	}
	if err != nil {
		return err
	}

	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		b.inbox.Push(port, msg)
	}, midi.UseSysEx(), midi.HandleError(func(listenErr error) {
		b.logger.Error("MIDI listener error; device likely disconnected",
			b.logger.Field().String("port", spec.Name),
			b.logger.Field().Error("error", listenErr))
		b.inbox.Close(fmt.Errorf("%w: %v", contracts.ErrDisconnected, listenErr))
	}))
	if err != nil {
		_ = in.Close()
		return fmt.Errorf("failed to listen to MIDI input: %w", err)
	}

	b.mu.Lock()
	b.ins[port] = &input{port: in, stop: stop}
	b.mu.Unlock()
	b.logger.Info("MIDI input opened",
		b.logger.Field().Int("port", port),
		b.logger.Field().String("name", in.String()))
	return nil
}

// OpenOutput creates a virtual output named spec.Name, or connects to the
// destination matching spec.Connect.
func (b *Backend) OpenOutput(port int, spec contracts.PortSpec) error {
	var (
		out drivers.Out
		err error
	)
	if spec.Connect == "" {
		out, err = b.drv.OpenVirtualOut(spec.Name)
	} else {
		out, err = b.findOut(spec.Connect)
		if err == nil {
			err = out.Open()
		}
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.outs[port] = out
	b.mu.Unlock()
	b.logger.Info("MIDI output opened",
		b.logger.Field().Int("port", port),
		b.logger.Field().String("name", out.String()))
	return nil
}

// Receive returns the next message received on any input.
func (b *Backend) Receive(ctx context.Context) (contracts.Packet, error) {
	return b.inbox.Receive(ctx)
}

// Send writes one raw message to an output.
func (b *Backend) Send(port int, data []byte) error {
	b.mu.Lock()
	out, ok := b.outs[port]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: output %d", contracts.ErrUnknownPort, port)
	}
	return out.Send(data)
}

// Close stops the listeners and closes every port and the driver.
func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, in := range b.ins {
			in.stop()
			err = multierr.Append(err, in.port.Close())
		}
		for _, out := range b.outs {
			err = multierr.Append(err, out.Close())
		}
		err = multierr.Append(err, b.drv.Close())
		b.inbox.Close(contracts.ErrDisconnected)
		b.logger.Info("MIDI ports closed")
	})
	return err
}

func (b *Backend) findIn(name string) (drivers.In, error) {
	ins, err := b.drv.Ins()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	i, err := portname.Match(names, name)
	if err != nil {
		return nil, err
	}
	return ins[i], nil
}

func (b *Backend) findOut(name string) (drivers.Out, error) {
	outs, err := b.drv.Outs()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	i, err := portname.Match(names, name)
	if err != nil {
		return nil, err
	}
	return outs[i], nil
}
