//go:build !cgo
// +build !cgo

package rtmidi

import (
	"fmt"

	"github.com/leandrodaf/mididings/sdk/contracts"
)

// NewBackend fails: RtMidi needs cgo.
func NewBackend(options *contracts.ClientOptions) (contracts.Backend, error) {
	options.Logger.Warn("rtmidi backend requested in a build without cgo")
	return nil, fmt.Errorf("%w: rtmidi needs a cgo build", contracts.ErrUnknownBackend)
}
