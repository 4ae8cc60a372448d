// Package room provides the room model and the process-wide room registry.
//
// A Room is the unit of one concurrent game session: two player seats
// (white and black), an unbounded spectator set, a rules-engine game handle,
// and a status. Rooms are created on first reference through the Registry and
// destroyed when the last connection leaves.
//
// Seats:
//
// Seat assignment is first-come-first-served. The first joiner takes white,
// the second black, and everyone after that becomes a spectator for the
// lifetime of their connection. A connection releases its seat only on
// disconnect, and only if it is still the recorded occupant — a stale release
// racing a later joiner must not evict the new occupant.
//
// Status:
//
// A room is "playing" exactly when both seats are occupied and no terminal
// condition has been recorded for the current game; "finished" is sticky
// until the game is replaced via restart; otherwise the room is "waiting".
//
// Concurrency:
//
// The Registry is safe for concurrent use; get-or-create is atomic per room
// id. Room itself carries no lock — the coordinator serializes all room
// mutations (see package coordinator).
package room
