// Package rules defines the rules-engine capability consumed by the room
// coordinator, plus the default chess implementation.
//
// The coordinator never inspects board state directly. It talks to the engine
// through two small interfaces:
//
// Engine creates fresh game handles. Game applies moves, reports the turn
// owner, and exposes a Snapshot of the position suitable for broadcasting to
// clients.
//
// Moves:
//
// A Move carries coordinate notation ("e2" -> "e4") plus an optional
// promotion piece. Promotion accepts both single letters ("q") and long names
// ("queen"). Illegal moves are rejected with ErrIllegalMove and leave the
// game handle untouched.
//
// Default implementation:
//
// NewChessEngine returns an Engine backed by github.com/notnil/chess. The
// wrapper translates coordinate moves through UCI notation, records SAN for
// broadcasts before the move commits, and maps the library's outcome/method
// pair onto the snapshot flags. Claimable draws (threefold repetition, the
// fifty-move rule) are terminal: the game ends the moment one arises, with no
// claim step.
//
// Substitution:
//
// Because the coordinator depends only on the interfaces, a different game
// entirely (or a test stub) can be injected without touching any other
// package.
package rules
