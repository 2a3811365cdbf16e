// Package midi runs patches against MIDI ports: it opens the configured
// ports on a backend and drives the dispatch loop.
package midi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/mididings/sdk/contracts"
	"go.uber.org/multierr"
)

// ErrRouterRunning is returned by Run while another Run is active.
var ErrRouterRunning = errors.New("router is already running")

// Router owns the backend and the logical ports opened on it.
type Router struct {
	logger  contracts.Logger
	options contracts.ClientOptions
	backend contracts.Backend

	running   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewRouter applies opts, builds the backend and opens every configured
// port. On failure the ports opened so far are closed again.
func NewRouter(opts ...contracts.Option) (*Router, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	backend, err := NewBackend(&options)
	if err != nil {
		return nil, &contracts.TransportError{Op: "open", Err: err}
	}

	r := &Router{
		logger:  options.Logger,
		options: options,
		backend: backend,
	}
	if err := r.open(); err != nil {
		return nil, multierr.Append(err, r.Close())
	}
	r.logger.Info("MIDI router ready",
		r.logger.Field().Int("inputs", len(options.InPorts)),
		r.logger.Field().Int("outputs", len(options.OutPorts)))
	return r, nil
}

func (r *Router) open() error {
	for i, spec := range r.options.InPorts {
		if err := r.backend.OpenInput(i, spec); err != nil {
			return &contracts.TransportError{Op: "open", Port: spec.Name, Err: err}
		}
	}
	for i, spec := range r.options.OutPorts {
		if err := r.backend.OpenOutput(i, spec); err != nil {
			return &contracts.TransportError{Op: "open", Port: spec.Name, Err: err}
		}
	}
	return nil
}

// InPorts returns the logical input ports, numbered by position.
func (r *Router) InPorts() []contracts.PortSpec {
	return append([]contracts.PortSpec(nil), r.options.InPorts...)
}

// OutPorts returns the logical output ports, numbered by position.
func (r *Router) OutPorts() []contracts.PortSpec {
	return append([]contracts.PortSpec(nil), r.options.OutPorts...)
}

// Close releases the backend. It is safe to call more than once.
func (r *Router) Close() error {
	r.closeOnce.Do(func() {
		if err := r.backend.Close(); err != nil {
			r.closeErr = &contracts.TransportError{Op: "close", Err: err}
		}
		r.logger.Info("MIDI router closed")
	})
	return r.closeErr
}

// ListDevices builds the backend selected by opts only to list the devices
// it can see. No port is opened.
func ListDevices(opts ...contracts.Option) ([]contracts.DeviceInfo, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	backend, err := NewBackend(&options)
	if err != nil {
		return nil, err
	}
	devices, err := backend.ListDevices()
	if closeErr := backend.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("closing backend: %w", closeErr))
	}
	return devices, err
}
