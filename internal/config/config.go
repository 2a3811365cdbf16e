// Package config loads the router configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/leandrodaf/mididings/sdk/contracts"
	"github.com/leandrodaf/mididings/sdk/midi"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of the router.
//
//	client_name: mididings
//	backend: rtmidi
//	log_level: info
//	in_ports:
//	  - name: keys
//	    connect: nanoKEY2
//	out_ports:
//	  - name: synth
//	initial_scene: 1
type Config struct {
	ClientName   string               `yaml:"client_name"`
	Backend      string               `yaml:"backend,omitempty"`
	LogLevel     string               `yaml:"log_level"`
	LogFile      string               `yaml:"log_file,omitempty"`
	BufferSize   int                  `yaml:"buffer_size"`
	InPorts      []contracts.PortSpec `yaml:"in_ports"`
	OutPorts     []contracts.PortSpec `yaml:"out_ports"`
	InitialScene int                  `yaml:"initial_scene"` // 1-based, 0 selects the first scene.
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ClientName: midi.DefaultClientName,
		LogLevel:   contracts.InfoLevel.String(),
		BufferSize: midi.DefaultBufferSize,
		InPorts:    []contracts.PortSpec{{Name: "in"}},
		OutPorts:   []contracts.PortSpec{{Name: "out"}},
	}
}

// Load reads the file at path on top of DefaultConfig and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of DefaultConfig and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem of the configuration.
func (c Config) Validate() error {
	var err error
	if _, e := contracts.ParseLogLevel(c.LogLevel); e != nil {
		err = multierr.Append(err, e)
	}
	if c.Backend != "" && !known(c.Backend) {
		err = multierr.Append(err, fmt.Errorf("%w: %q, want one of %v", contracts.ErrUnknownBackend, c.Backend, midi.Backends()))
	}
	if c.BufferSize < 0 {
		err = multierr.Append(err, fmt.Errorf("buffer_size %d is negative", c.BufferSize))
	}
	if c.InitialScene < 0 {
		err = multierr.Append(err, fmt.Errorf("initial_scene %d is negative", c.InitialScene))
	}
	err = multierr.Append(err, checkPorts("in_ports", c.InPorts))
	err = multierr.Append(err, checkPorts("out_ports", c.OutPorts))
	return err
}

func known(backend string) bool {
	for _, name := range midi.Backends() {
		if name == backend {
			return true
		}
	}
	return false
}

func checkPorts(key string, ports []contracts.PortSpec) error {
	if len(ports) == 0 {
		return fmt.Errorf("%s: at least one port is required", key)
	}
	var err error
	seen := make(map[string]bool, len(ports))
	for i, p := range ports {
		switch {
		case p.Name == "":
			err = multierr.Append(err, fmt.Errorf("%s[%d]: name is required", key, i))
		case seen[p.Name]:
			err = multierr.Append(err, fmt.Errorf("%s[%d]: duplicate name %q", key, i, p.Name))
		}
		seen[p.Name] = true
	}
	return err
}

// Options turns the configuration into router options.
func (c Config) Options() []contracts.Option {
	level, _ := contracts.ParseLogLevel(c.LogLevel)
	opts := []contracts.Option{
		contracts.WithClientName(c.ClientName),
		contracts.WithLogLevel(level),
		contracts.WithBufferSize(c.BufferSize),
		contracts.WithInPorts(c.InPorts...),
		contracts.WithOutPorts(c.OutPorts...),
	}
	if c.Backend != "" {
		opts = append(opts, contracts.WithBackend(c.Backend))
	}
	if c.LogFile != "" {
		opts = append(opts, contracts.WithLogFile(c.LogFile))
	}
	if c.InitialScene > 0 {
		opts = append(opts, contracts.WithInitialScene(c.InitialScene-1))
	}
	return opts
}
