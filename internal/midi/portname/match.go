// Package portname resolves user supplied device names against the names a
// MIDI system reports.
package portname

import (
	"fmt"
	"strings"

	"github.com/leandrodaf/mididings/sdk/contracts"
)

// Match prefers an exact name and falls back to the first name containing
// want, ignoring case.
func Match(names []string, want string) (int, error) {
	for i, n := range names {
		if n == want {
			return i, nil
		}
	}
	lower := strings.ToLower(want)
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), lower) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", contracts.ErrDeviceNotFound, want)
}
