// Package coordinator implements the event router at the heart of the
// real-time session coordinator.
//
// The coordinator receives decoded client events (join, move, resign,
// restart, disconnect) from the transport, validates them against the
// connection's session binding and the room's state, consults the rules
// engine, mutates the room, and emits outbound events through a Sender.
//
// Session bindings:
//
// A connection is unbound until its first successful join, which records the
// room id and assigned seat. The binding is immutable afterwards; the only
// way out is disconnect. A connection therefore appears in at most one room.
//
// Event flow:
//
//	connection -> join -> registry get-or-create -> seat -> binding
//	           -> init (unicast) -> room_state + status_message (broadcast)
//
// Moves are turn-gated: only the bound player whose color matches the rules
// engine's turn owner may move. Rejections of every kind are unicast to the
// offending connection and never mutate the room. A move that omits its
// promotion piece and gets rejected is retried once with a queen promotion
// before the rejection is reported — a usability fallback for clients that
// never ask the user which piece to promote to.
//
// Error containment:
//
// A panic while applying a move is recovered at the router boundary and
// surfaces as a generic invalid_move to the mover; it never takes down the
// connection or leaks internals.
//
// Concurrency:
//
// All operations run under one coordinator lock, giving the same
// run-to-completion semantics per event as a single-threaded event loop.
// Nothing under the lock blocks: sends are fire-and-forget and the rules
// engine is pure computation.
package coordinator
