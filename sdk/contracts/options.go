package contracts

// ClientOptions defines the configuration options for the MIDI router.
type ClientOptions struct {
	Logger       Logger     // Logger for logging events and errors.
	LogLevel     LogLevel   // Level of logging to use.
	LogFilePath  string     // File path for logging if file logging is enabled.
	ClientName   string     // Name the router registers with the MIDI system.
	Backend      string     // Backend name, empty selects the default for the OS.
	BackendImpl  Backend    // Already built backend, takes precedence over Backend.
	InPorts      []PortSpec // Logical input ports, numbered by position.
	OutPorts     []PortSpec // Logical output ports, numbered by position.
	InitialScene int        // 0-based index of the scene activated at start.
	BufferSize   int        // Capacity of the receive queue between driver callbacks and the loop.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI router.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI router.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile sends log output to the given file.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithClientName sets the client name shown by the MIDI system.
func WithClientName(name string) Option {
	return func(opts *ClientOptions) {
		opts.ClientName = name
	}
}

// WithBackend selects a backend by name ("rtmidi", "coremidi", "winmm", "memory").
func WithBackend(name string) Option {
	return func(opts *ClientOptions) {
		opts.Backend = name
	}
}

// WithBackendInstance makes the router use an already built backend.
func WithBackendInstance(b Backend) Option {
	return func(opts *ClientOptions) {
		opts.BackendImpl = b
	}
}

// WithInPorts sets the logical input ports.
func WithInPorts(ports ...PortSpec) Option {
	return func(opts *ClientOptions) {
		opts.InPorts = append([]PortSpec(nil), ports...)
	}
}

// WithOutPorts sets the logical output ports.
func WithOutPorts(ports ...PortSpec) Option {
	return func(opts *ClientOptions) {
		opts.OutPorts = append([]PortSpec(nil), ports...)
	}
}

// WithInitialScene sets the 0-based index of the starting scene.
func WithInitialScene(index int) Option {
	return func(opts *ClientOptions) {
		opts.InitialScene = index
	}
}

// WithBufferSize sets the capacity of the receive queue.
func WithBufferSize(size int) Option {
	return func(opts *ClientOptions) {
		opts.BufferSize = size
	}
}
