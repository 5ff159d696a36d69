//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package display

import "errors"

// List is only implemented for X11 desktops.
func List() ([]Monitor, error) {
	return nil, errors.New("monitor enumeration is not supported on this platform")
}
