package room

import (
	"regexp"
	"time"

	"github.com/sapdemon/chess-test/game/rules"
)

// ConnectionID is an opaque handle for one client connection. The transport
// layer decides the format; nothing in here depends on it.
type ConnectionID string

// Seat is a connection's role within a room.
type Seat string

const (
	SeatWhite     Seat = "w"
	SeatBlack     Seat = "b"
	SeatSpectator Seat = "s"
)

// Color returns the playing color for a player seat. Spectators have no
// color.
func (s Seat) Color() (rules.Color, bool) {
	switch s {
	case SeatWhite:
		return rules.White, true
	case SeatBlack:
		return rules.Black, true
	default:
		return "", false
	}
}

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidID reports whether id is acceptable as a room identifier: the
// [A-Za-z0-9_-] grammar with a 3-50 character length bound.
func ValidID(id string) bool {
	if len(id) < 3 || len(id) > 50 {
		return false
	}
	return idPattern.MatchString(id)
}

// Room is one game session. Fields are mutated only by the coordinator,
// which serializes access; see the package documentation.
type Room struct {
	ID         string
	Game       rules.Game
	White      ConnectionID // empty when the seat is free
	Black      ConnectionID
	Spectators map[ConnectionID]struct{}
	Status     Status
	CreatedAt  time.Time
}

// New creates an empty waiting room with a fresh game from the engine.
func New(id string, engine rules.Engine) *Room {
	return &Room{
		ID:         id,
		Game:       engine.NewGame(),
		Spectators: make(map[ConnectionID]struct{}),
		Status:     StatusWaiting,
		CreatedAt:  time.Now(),
	}
}

// AssignSeat seats the connection: white first, then black, then spectator.
func (r *Room) AssignSeat(conn ConnectionID) Seat {
	if r.White == "" {
		r.White = conn
		return SeatWhite
	}
	if r.Black == "" {
		r.Black = conn
		return SeatBlack
	}
	r.Spectators[conn] = struct{}{}
	return SeatSpectator
}

// Release undoes the connection's membership. A player seat is freed only if
// the connection is still its recorded occupant; otherwise the connection is
// dropped from the spectator set. It reports whether a player seat emptied.
func (r *Room) Release(conn ConnectionID, seat Seat) (seatFreed bool) {
	switch {
	case seat == SeatWhite && r.White == conn:
		r.White = ""
		return true
	case seat == SeatBlack && r.Black == conn:
		r.Black = ""
		return true
	default:
		delete(r.Spectators, conn)
		return false
	}
}

// Empty reports whether no connection remains in the room.
func (r *Room) Empty() bool {
	return r.White == "" && r.Black == "" && len(r.Spectators) == 0
}

// RecomputeStatus derives waiting/playing from seat occupancy. A finished
// game stays finished until the game handle is replaced.
func (r *Room) RecomputeStatus() {
	if r.Status == StatusFinished {
		return
	}
	if r.White != "" && r.Black != "" {
		r.Status = StatusPlaying
	} else {
		r.Status = StatusWaiting
	}
}

// ResetGame replaces the game with a fresh one and re-derives the status
// from occupancy, clearing a finished state.
func (r *Room) ResetGame(engine rules.Engine) {
	r.Game = engine.NewGame()
	if r.White != "" && r.Black != "" {
		r.Status = StatusPlaying
	} else {
		r.Status = StatusWaiting
	}
}

// SpectatorIDs returns the spectator connection ids. Order is unspecified.
func (r *Room) SpectatorIDs() []string {
	ids := make([]string, 0, len(r.Spectators))
	for id := range r.Spectators {
		ids = append(ids, string(id))
	}
	return ids
}
