//go:build !linux

package input

import (
	"context"
	"io"
	"log"
)

// RunDevice is only supported on Linux.
func RunDevice(ctx context.Context, path string, pad *Pad, pump *Pump) {
	log.Printf("penpad: raw devices are not supported on this platform (%s)", path)
}

// FindStylus is only supported on Linux.
func FindStylus(r io.Reader) (string, bool) { return "", false }
