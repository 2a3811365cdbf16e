package contracts

// Direction tells whether a device produces or consumes MIDI data.
type Direction string

const (
	// DirectionIn marks a device we can read events from.
	DirectionIn Direction = "in"
	// DirectionOut marks a device we can send events to.
	DirectionOut Direction = "out"
)

// DeviceInfo contains information about a MIDI device.
type DeviceInfo struct {
	Name         string    // Device name.
	Manufacturer string    // Device manufacturer.
	EntityName   string    // Name of the entity to which the device belongs.
	Direction    Direction // Whether the device is a source or a destination.
}
