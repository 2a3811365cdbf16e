package midi

import (
	"fmt"

	"github.com/leandrodaf/mididings/internal/logger"
	"github.com/leandrodaf/mididings/internal/midi/inbox"
	"github.com/leandrodaf/mididings/sdk/contracts"
)

// Defaults used when an option is not given.
const (
	DefaultClientName = "mididings"
	DefaultBufferSize = inbox.DefaultSize
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.ClientName == "" {
		options.ClientName = DefaultClientName
	}
	if options.BufferSize <= 0 {
		options.BufferSize = DefaultBufferSize
	}
	if len(options.InPorts) == 0 {
		options.InPorts = []contracts.PortSpec{{Name: "in"}}
	}
	if len(options.OutPorts) == 0 {
		options.OutPorts = []contracts.PortSpec{{Name: "out"}}
	}
	if options.InitialScene < 0 {
		return *options, fmt.Errorf("initial scene %d is negative", options.InitialScene)
	}
	if err := checkPortNames("input", options.InPorts); err != nil {
		return *options, err
	}
	if err := checkPortNames("output", options.OutPorts); err != nil {
		return *options, err
	}

	options.Logger.SetLevel(options.LogLevel)
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	return *options, nil
}

// checkPortNames fills in missing names and rejects duplicates.
func checkPortNames(direction string, ports []contracts.PortSpec) error {
	seen := make(map[string]bool, len(ports))
	for i := range ports {
		if ports[i].Name == "" {
			ports[i].Name = fmt.Sprintf("%s_%d", direction, i+1)
		}
		if seen[ports[i].Name] {
			return fmt.Errorf("duplicate %s port name %q", direction, ports[i].Name)
		}
		seen[ports[i].Name] = true
	}
	return nil
}
