//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/mididings/sdk/contracts"
)

// NewBackend fails outside macOS.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	options.Logger.Warn("coremidi backend requested on a non-macOS system")
	return nil, fmt.Errorf("%w: coremidi is only available on macOS", contracts.ErrUnsupportedOS)
}
