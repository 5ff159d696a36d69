//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import "fmt"

// Write is unsupported off the X11 and Wayland desktops.
func Write(c Content) error {
	if _, err := c.encode(); err != nil {
		return err
	}
	return fmt.Errorf("clipboard operations are not supported on this platform")
}
