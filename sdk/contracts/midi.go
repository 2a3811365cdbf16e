package contracts

import "context"

// Packet is one raw MIDI message as seen by a transport.
type Packet struct {
	Timestamp uint64 // Timestamp indicates the time the message was received, in nanoseconds.
	Port      int    // Port is the logical port number the message arrived on or is sent to.
	Data      []byte // Data holds the complete message, status byte first.
}

// PortSpec describes one logical port. Name is the name the port is created
// with, Connect the device it is attached to. An empty Connect asks the
// backend for a virtual port if it can create one.
type PortSpec struct {
	Name    string `yaml:"name"`
	Connect string `yaml:"connect,omitempty"`
}

// Backend is the transport capability the router consumes. Logical port
// numbers are the indexes of the configured input and output port lists.
type Backend interface {
	ListDevices() ([]DeviceInfo, error)       // Lists every MIDI source and destination the backend can see.
	OpenInput(port int, spec PortSpec) error  // Opens the logical input port.
	OpenOutput(port int, spec PortSpec) error // Opens the logical output port.
	Receive(ctx context.Context) (Packet, error)
	Send(port int, data []byte) error // Sends one raw message on a logical output port.
	Close() error                     // Closes every port and releases the backend.
}
