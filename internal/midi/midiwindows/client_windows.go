//go:build windows
// +build windows

package midiwindows

import (
	"context"
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/mididings/internal/midi/inbox"
	"github.com/leandrodaf/mididings/internal/midi/portname"
	"github.com/leandrodaf/mididings/sdk/contracts"
	"golang.org/x/sys/windows"
	"go.uber.org/multierr"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_LONGDATA  = 0x3C4 // System exclusive buffer filled
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs  = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps  = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen        = winmm.NewProc("midiInOpen")
	procMidiInStart       = winmm.NewProc("midiInStart")
	procMidiInStop        = winmm.NewProc("midiInStop")
	procMidiInClose       = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// Callbacks are a scarce resource on Windows; every input shares one.
var (
	callbackOnce sync.Once
	callback     uintptr
)

// input is the callback instance of one opened device.
type input struct {
	backend *Backend
	port    int
	handle  HMIDIIN
}

// Backend manages winmm input and output devices.
type Backend struct {
	logger contracts.Logger
	inbox  *inbox.Inbox
	mu     sync.Mutex
	ins    map[int]*input
	outs   map[int]HMIDIOUT
	closed bool
}

// NewBackend creates the winmm backend.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	options.Logger.Info("MIDI client created for Windows")
	return &Backend{
		logger: options.Logger,
		inbox:  inbox.New(options.BufferSize, options.Logger),
		ins:    make(map[int]*input),
		outs:   make(map[int]HMIDIOUT),
	}, nil
}

func inputNames() []string {
	r0, _, _ := procMidiInGetNumDevs.Call()
	names := make([]string, uint32(r0))
	for i := range names {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 == 0 {
			names[i] = windows.UTF16ToString(caps.szPname[:])
		}
	}
	return names
}

func outputNames() []string {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	names := make([]string, uint32(r0))
	for i := range names {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 == 0 {
			names[i] = windows.UTF16ToString(caps.szPname[:])
		}
	}
	return names
}

// ListDevices lists the available MIDI devices
func (m *Backend) ListDevices() ([]contracts.DeviceInfo, error) {
	var devices []contracts.DeviceInfo
	for _, name := range inputNames() {
		devices = append(devices, contracts.DeviceInfo{Name: name, EntityName: name, Direction: contracts.DirectionIn})
	}
	for _, name := range outputNames() {
		devices = append(devices, contracts.DeviceInfo{Name: name, EntityName: name, Direction: contracts.DirectionOut})
	}
	if len(devices) == 0 {
		m.logger.Warn("No MIDI devices found")
		return nil, contracts.ErrNoMIDIDevices
	}
	return devices, nil
}

// target is the device name a spec refers to. winmm cannot create virtual
// ports, so a spec without Connect names the device directly.
func target(spec contracts.PortSpec) string {
	if spec.Connect != "" {
		return spec.Connect
	}
	return spec.Name
}

// OpenInput opens and starts the input device matching the spec.
func (m *Backend) OpenInput(port int, spec contracts.PortSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	deviceID, err := portname.Match(inputNames(), target(spec))
	if err != nil {
		return err
	}

	callbackOnce.Do(func() { callback = windows.NewCallback(midiInCallback) })
	in := &input{backend: m, port: port}
	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&in.handle)),
		uintptr(deviceID),
		callback,
		uintptr(unsafe.Pointer(in)),
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != 0 {
		m.logger.Error(fmt.Sprintf("Failed to open MIDI device %d: %v", deviceID, err))
		return fmt.Errorf("failed to open MIDI device %d: %v", deviceID, err)
	}
	if r1, _, err = procMidiInStart.Call(uintptr(in.handle)); r1 != 0 {
		procMidiInClose.Call(uintptr(in.handle))
		return fmt.Errorf("failed to start MIDI capture: %v", err)
	}

	m.ins[port] = in
	m.logger.Info(fmt.Sprintf("MIDI device %d connected", deviceID), m.logger.Field().Int("port", port))
	return nil
}

// midiInCallback processes incoming MIDI messages
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	in := (*input)(unsafe.Pointer(dwInstance))
	m := in.backend

	switch wMsg {
	case MIM_OPEN:
		m.logger.Info("MIDI device opened")
	case MIM_CLOSE:
		m.logger.Info("MIDI device closed")
	case MIM_DATA:
		status := byte(dwParam1 & 0xFF)
		data := []byte{status, byte((dwParam1 >> 8) & 0xFF), byte((dwParam1 >> 16) & 0xFF)}
		switch {
		case status >= 0xF8:
			data = data[:1]
		case status&0xF0 == 0xC0 || status&0xF0 == 0xD0:
			data = data[:2]
		}
		m.inbox.Push(in.port, data)
	case MIM_LONGDATA:
		m.logger.Debug("System exclusive input is not supported by the winmm backend; ignored")
	case MIM_ERROR, MIM_LONGERROR:
		m.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_MOREDATA:
		m.logger.Debug("Received MIM_MOREDATA message; ignored")
	default:
		m.logger.Warn(fmt.Sprintf("Unknown MIDI message: 0x%X", wMsg))
	}

	return 0
}

// OpenOutput opens the output device matching the spec.
func (m *Backend) OpenOutput(port int, spec contracts.PortSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	deviceID, err := portname.Match(outputNames(), target(spec))
	if err != nil {
		return err
	}
	var handle HMIDIOUT
	r1, _, err := procMidiOutOpen.Call(uintptr(unsafe.Pointer(&handle)), uintptr(deviceID), 0, 0, 0)
	if r1 != 0 {
		return fmt.Errorf("failed to open MIDI output %d: %v", deviceID, err)
	}
	m.outs[port] = handle
	m.logger.Info(fmt.Sprintf("MIDI output %d connected", deviceID), m.logger.Field().Int("port", port))
	return nil
}

// Receive returns the next message from any opened input.
func (m *Backend) Receive(ctx context.Context) (contracts.Packet, error) {
	return m.inbox.Receive(ctx)
}

// Send writes a short message. System exclusive output is not supported.
func (m *Backend) Send(port int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return contracts.ErrDisconnected
	}
	handle, ok := m.outs[port]
	if !ok {
		return fmt.Errorf("%w: output %d", contracts.ErrUnknownPort, port)
	}
	if len(data) == 0 || len(data) > 3 {
		return fmt.Errorf("%w: winmm sends short messages only, got %d bytes", contracts.ErrUnsupportedMessage, len(data))
	}
	var msg uint32
	for i, b := range data {
		msg |= uint32(b) << (8 * i)
	}
	if r1, _, err := procMidiOutShortMsg.Call(uintptr(handle), uintptr(msg)); r1 != 0 {
		return fmt.Errorf("midiOutShortMsg: %v", err)
	}
	return nil
}

// Close stops and closes every device.
func (m *Backend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var errs error
	for _, in := range m.ins {
		if r1, _, err := procMidiInStop.Call(uintptr(in.handle)); r1 != 0 {
			errs = multierr.Append(errs, fmt.Errorf("failed to stop MIDI capture: %v", err))
		}
		if r1, _, err := procMidiInClose.Call(uintptr(in.handle)); r1 != 0 {
			errs = multierr.Append(errs, fmt.Errorf("failed to close MIDI device: %v", err))
		}
	}
	for _, handle := range m.outs {
		if r1, _, err := procMidiOutClose.Call(uintptr(handle)); r1 != 0 {
			errs = multierr.Append(errs, fmt.Errorf("failed to close MIDI output: %v", err))
		}
	}
	m.inbox.Close(contracts.ErrDisconnected)
	m.logger.Info("MIDI capture stopped and devices closed")
	return errs
}
