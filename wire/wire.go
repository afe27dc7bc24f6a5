// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package wire defines the seam between the compositor core and the
// Wayland wire-protocol dispatcher.
//
// Marshaling requests/events to and from the wire format is out of
// scope (spec.md §6): this package defines only the narrow interface
// that the core needs to push events back out to a client resource,
// mirroring how driver.GPU is a narrow interface onto an out-of-scope
// GPU implementation rather than a reimplementation of it.
package wire

// Resource is a single protocol object bound by some client: a
// wl_surface, an xdg_toplevel, a wl_seat pointer, and so on.
// Implementations live in the (out-of-scope) wire-protocol dispatcher;
// this package never constructs one.
type Resource interface {
	// PostEvent sends an event with the given opcode and arguments to
	// the client that owns this resource. Argument marshaling is the
	// dispatcher's responsibility; args are passed through verbatim.
	PostEvent(opcode uint32, args ...any)

	// Serial returns the protocol serial most recently associated
	// with this resource (e.g., the serial of the last configure
	// event sent for an xdg_surface).
	Serial() uint32

	// ClientID identifies the client connection that owns this
	// resource, for grouping resources that must be torn down
	// together on disconnect.
	ClientID() uint32
}

// Display is the minimal serial/event-loop-scheduling surface the
// core needs from the wire-protocol dispatcher's global display
// object: minting new serials and posting a callback to run once the
// current event batch has been fully dispatched to clients.
type Display interface {
	// NextSerial mints a new, monotonically increasing protocol
	// serial.
	NextSerial() uint32

	// Flush schedules fn to run after all pending client events have
	// been written to their sockets, matching wl_display_flush_clients
	// timing.
	Flush(fn func())
}
