//go:build !windows
// +build !windows

package midiwindows

import (
	"fmt"

	"github.com/leandrodaf/mididings/sdk/contracts"
)

// NewBackend fails outside Windows.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	options.Logger.Warn("winmm backend requested on a non-Windows system")
	return nil, fmt.Errorf("%w: winmm is only available on Windows", contracts.ErrUnsupportedOS)
}
