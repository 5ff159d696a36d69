//go:build linux

package input

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	absX = 0x00
	absY = 0x01

	btnToolPen = 0x140
	btnTouch   = 0x14a
	btnStylus  = 0x14b
)

// rawEvent mirrors struct input_event on 64-bit kernels.
type rawEvent struct {
	Sec, Usec int64
	Type      uint16
	Code      uint16
	Value     int32
}

// Feed applies one kernel event to pad and returns the resulting gesture
// event, if any.
func Feed(pad *Pad, typ, code uint16, value int32) (Event, bool) {
	switch typ {
	case evAbs:
		switch code {
		case absX:
			pad.AbsX(value)
		case absY:
			pad.AbsY(value)
		}
	case evKey:
		switch code {
		case btnTouch:
			return pad.Touch(value != 0)
		case btnStylus:
			pad.Stylus(value != 0)
		case btnToolPen:
			return pad.Hover(value != 0)
		}
	case evSyn:
		return pad.Sync()
	}
	return Event{}, false
}

// ReadEvdev decodes input_event records from r until ctx is cancelled or
// the device goes away, sending gesture events to pump.
func ReadEvdev(ctx context.Context, r io.Reader, pad *Pad, pump *Pump) error {
	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var ev rawEvent
		if err := binary.Read(br, binary.NativeEndian, &ev); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("read input event: %w", err)
		}
		if e, ok := Feed(pad, ev.Type, ev.Code, ev.Value); ok {
			pump.Send(ctx, e)
		}
	}
}

// RunDevice opens path and streams it into pump. Errors are logged; a pad
// being unplugged is not fatal.
func RunDevice(ctx context.Context, path string, pad *Pad, pump *Pump) {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("penpad: %v", err)
		return
	}
	go func() {
		<-ctx.Done()
		f.Close()
	}()
	if err := ReadEvdev(ctx, f, pad, pump); err != nil && ctx.Err() == nil {
		log.Printf("penpad %s: %v", path, err)
	}
}

// FindStylus scans a /proc/bus/input/devices listing for the first device
// advertising BTN_STYLUS and returns its /dev/input path.
func FindStylus(r io.Reader) (string, bool) {
	sc := bufio.NewScanner(r)
	var handler string
	var stylus bool
	flush := func() (string, bool) {
		defer func() { handler, stylus = "", false }()
		if stylus && handler != "" {
			return "/dev/input/" + handler, true
		}
		return "", false
	}
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			if p, ok := flush(); ok {
				return p, true
			}
		case strings.HasPrefix(line, "H: Handlers="):
			for _, h := range strings.Fields(strings.TrimPrefix(line, "H: Handlers=")) {
				if strings.HasPrefix(h, "event") {
					handler = h
				}
			}
		case strings.HasPrefix(line, "B: KEY="):
			stylus = hasBit(strings.TrimPrefix(line, "B: KEY="), btnStylus)
		}
	}
	return flush()
}

// hasBit tests a bit in a kernel bitmap printed as space separated hex
// words, most significant word first.
func hasBit(bitmap string, bit int) bool {
	words := strings.Fields(bitmap)
	idx := len(words) - 1 - bit/64
	if idx < 0 {
		return false
	}
	w, err := strconv.ParseUint(words[idx], 16, 64)
	if err != nil {
		return false
	}
	return w&(1<<(uint(bit)%64)) != 0
}
