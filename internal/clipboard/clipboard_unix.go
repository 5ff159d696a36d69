//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureInit() error {
	initOnce.Do(func() {
		if !hasDisplay() {
			initErr = errNoDisplay
			return
		}
		initErr = clipboard.Init()
	})
	return initErr
}

// Write publishes c. The cgo backend holds one format at a time, so an
// image wins over its text.
func Write(c Content) error {
	p, err := c.encode()
	if err != nil {
		return err
	}
	if err := ensureInit(); err != nil {
		return err
	}
	if p.png != nil {
		clipboard.Write(clipboard.FmtImage, p.png)
		return nil
	}
	clipboard.Write(clipboard.FmtText, p.text)
	return nil
}
