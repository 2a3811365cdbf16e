package contracts

import (
	"errors"
	"fmt"
)

// Error definitions shared by the router and its backends.
var (
	ErrNoMIDIDevices  = errors.New("no MIDI devices found")
	ErrDisconnected   = errors.New("MIDI transport disconnected")
	ErrUnknownPort    = errors.New("unknown MIDI port")
	ErrDeviceNotFound = errors.New("MIDI device not found")
	ErrUnsupportedOS  = errors.New("unsupported operating system")
	ErrUnknownBackend = errors.New("unknown MIDI backend")

	// ErrUnsupportedMessage is returned by a backend that cannot carry a
	// message, such as sysex on a short message transport. The router drops
	// the message and keeps running.
	ErrUnsupportedMessage = errors.New("MIDI message not supported by the backend")
)

// InvalidPatchError reports structural misuse of a patch found before the
// router starts: wrong arguments, Not over a modifier, scene switches to
// scenes that were never declared.
type InvalidPatchError struct {
	Node   string // Node is the constructor that rejected its input, e.g. "Channel".
	Reason string
}

func (e *InvalidPatchError) Error() string {
	if e.Node == "" {
		return "invalid patch: " + e.Reason
	}
	return fmt.Sprintf("invalid patch: %s: %s", e.Node, e.Reason)
}

// NewInvalidPatchError formats an InvalidPatchError.
func NewInvalidPatchError(node, format string, args ...interface{}) *InvalidPatchError {
	return &InvalidPatchError{Node: node, Reason: fmt.Sprintf(format, args...)}
}

// TransportError wraps a failure to open, read or write a MIDI port.
type TransportError struct {
	Op   string // Op is one of "open", "receive", "send" or "close".
	Port string
	Err  error
}

func (e *TransportError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// InvalidEventError reports a malformed raw message or an event whose fields
// are out of range.
type InvalidEventError struct {
	Data   []byte
	Reason string
}

func (e *InvalidEventError) Error() string {
	if len(e.Data) == 0 {
		return "invalid MIDI event: " + e.Reason
	}
	return fmt.Sprintf("invalid MIDI event % X: %s", e.Data, e.Reason)
}
