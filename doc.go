// Package rondo is a server-driven UI runtime for small round displays.
//
// A rondo device keeps no screen definitions of its own. It holds a
// persistent connection to a gateway, and the gateway pushes JSON layout
// documents that the runtime materializes into a widget tree, plus
// incremental patches that mutate single widgets in place. Interactions
// travel the other way: widgets carry action URIs, and firing one publishes
// an event either back to the gateway or onto the device's local bus.
//
// The package is organized around three pieces:
//
//   - Bus: a topic-keyed message bus with one handler per topic. Downlink
//     frames route to subscribers; uplink publishes go out through an
//     attached Transport.
//   - Runtime: the widget tree, id registry, animation scheduler, and
//     particle stepping, serialized by a single lock.
//   - Game/Drawer: the ebiten loop that lays out, paints, and feeds pointer
//     input back into the runtime.
//
// Everything downlink-driven happens synchronously on the caller's
// goroutine; the runtime has no goroutines of its own.
package rondo
