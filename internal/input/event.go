// Package input turns pointer events from the window system and from raw
// pen tablets into slide-relative events for the tool state machine.
package input

import (
	"context"

	"seehuhn.de/go/geom/vec"
)

// Type is the phase of a pointer gesture.
type Type int

const (
	Press Type = iota
	Drag
	Release
	// Motion is pointer movement with no button held, used to show the
	// pen position.
	Motion
	// Leave hides the pen position.
	Leave
)

func (t Type) String() string {
	switch t {
	case Press:
		return "press"
	case Drag:
		return "drag"
	case Release:
		return "release"
	case Motion:
		return "motion"
	case Leave:
		return "leave"
	}
	return "unknown"
}

// Button identifies which button started a gesture.
type Button int

const (
	ButtonNone Button = iota
	ButtonPrimary
	ButtonMiddle
	ButtonSecondary
)

// Event is a normalized pointer event. Point is in page fractions.
type Event struct {
	Type    Type
	Point   vec.Vec2
	Button  Button
	Pressed bool
}

// Pump carries events from producer goroutines to the UI loop. Producers
// never touch UI state; they only send on the pump.
type Pump struct {
	ch chan Event
}

// NewPump returns a pump buffering up to size events.
func NewPump(size int) *Pump {
	if size <= 0 {
		size = 64
	}
	return &Pump{ch: make(chan Event, size)}
}

// Events is the receive side consumed by the UI loop.
func (p *Pump) Events() <-chan Event { return p.ch }

// Send queues e, blocking until there is room or ctx is done. Drag and
// motion events are dropped instead of blocking when the queue is full.
func (p *Pump) Send(ctx context.Context, e Event) bool {
	if e.Type == Drag || e.Type == Motion {
		select {
		case p.ch <- e:
			return true
		default:
			return false
		}
	}
	select {
	case p.ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
