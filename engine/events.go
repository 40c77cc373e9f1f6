// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

// Event is the type of device notifications.
type Event int

// Events.
const (
	// The GPU context was lost.
	// Frame does nothing until EventRestore.
	EventLose Event = iota
	// Every resource was rebuilt after a context loss.
	EventRestore
	// The size of the default framebuffer changed.
	// It is detected at the start of a frame, before
	// anything is drawn.
	EventResize
)

// String implements fmt.Stringer.
func (e Event) String() string {
	switch e {
	case EventLose:
		return "EventLose"
	case EventRestore:
		return "EventRestore"
	case EventResize:
		return "EventResize"
	default:
		return "!engine.Event"
	}
}

type listener struct {
	id int
	fn func(Event)
}

// Listen registers fn to be called on every event.
// Listeners are called synchronously, in registration
// order. Calling cancel unregisters fn.
func (d *Device) Listen(fn func(Event)) (cancel func()) {
	d.nextListener++
	id := d.nextListener
	d.listeners = append(d.listeners, listener{id, fn})
	return func() {
		for i := range d.listeners {
			if d.listeners[i].id == id {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

func (d *Device) emit(e Event) {
	for _, l := range append([]listener(nil), d.listeners...) {
		l.fn(e)
	}
}
