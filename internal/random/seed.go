// Package random provides the pure random sources threaded through table
// resolution and cryptographic seed generation helpers.
//
// A Source never mutates: every draw returns the value and the source to use
// for the next draw. Threading one source sequentially through a resolution
// makes the whole result reproducible for a fixed seed.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
