package coordinator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sapdemon/chess-test/game/room"
	"github.com/sapdemon/chess-test/game/rules"
)

// Sender is the broadcast fanout contract implemented by the transport.
// Delivery is fire-and-forget: at most once, no acknowledgment, no retry.
type Sender interface {
	// Unicast delivers an event to a single connection. It must work for
	// connections that have not joined any group yet.
	Unicast(conn room.ConnectionID, ev Event)

	// Broadcast delivers an event to every connection in the room's
	// group, including the originator.
	Broadcast(roomID string, ev Event)

	// JoinGroup adds the connection to the room's multicast group.
	JoinGroup(conn room.ConnectionID, roomID string)
}

// binding is the per-connection session state recorded at join time.
type binding struct {
	roomID string
	seat   room.Seat
	name   string
}

// Coordinator routes client events: it validates them against the session
// binding and room state, invokes the rules engine, mutates rooms, and emits
// outbound events through the Sender.
type Coordinator struct {
	mu       sync.Mutex
	registry *room.Registry
	engine   rules.Engine
	sender   Sender
	bindings map[room.ConnectionID]binding
}

// New creates a coordinator around the given registry, rules engine, and
// fanout sender.
func New(registry *room.Registry, engine rules.Engine, sender Sender) *Coordinator {
	return &Coordinator{
		registry: registry,
		engine:   engine,
		sender:   sender,
		bindings: make(map[room.ConnectionID]binding),
	}
}

// HandleEvent dispatches one decoded client event.
func (c *Coordinator) HandleEvent(conn room.ConnectionID, ev ClientEvent) {
	switch ev.Type {
	case EventJoin:
		c.Join(conn, ev.RoomID, ev.Name)
	case EventMove:
		c.Move(conn, ev.From, ev.To, ev.Promotion)
	case EventResign:
		c.Resign(conn)
	case EventRestart:
		c.Restart(conn)
	default:
		c.sender.Unicast(conn, Event{Type: EventErrorMessage, Payload: "unknown event"})
	}
}

// Join resolves or creates the room, assigns a seat, records the session
// binding, and announces the arrival.
func (c *Coordinator) Join(conn room.ConnectionID, roomID, name string) {
	if !room.ValidID(roomID) {
		c.sender.Unicast(conn, Event{Type: EventErrorMessage, Payload: "invalid room id"})
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, bound := c.bindings[conn]; bound {
		// A connection binds once; changing rooms means reconnecting.
		c.sender.Unicast(conn, Event{Type: EventErrorMessage, Payload: "already joined a room"})
		return
	}

	rm := c.registry.GetOrCreate(roomID, c.engine)
	seat := rm.AssignSeat(conn)
	c.bindings[conn] = binding{roomID: roomID, seat: seat, name: name}
	c.sender.JoinGroup(conn, roomID)
	rm.RecomputeStatus()

	log.Info().
		Str("room", roomID).
		Str("conn", string(conn)).
		Str("seat", string(seat)).
		Msg("connection joined")

	c.sender.Unicast(conn, Event{Type: EventInit, Payload: InitPayload{
		RoomID:      roomID,
		Color:       seat,
		GamePayload: gamePayload(rm),
	}})
	c.sender.Broadcast(roomID, Event{Type: EventRoomState, Payload: occupancy(rm)})
	c.sender.Broadcast(roomID, Event{Type: EventStatusMessage, Payload: joinNotice(seat, name)})
}

// Move applies a turn-gated move for the bound player. Unbound connections
// are ignored; every rejection is unicast and mutates nothing.
func (c *Coordinator) Move(conn room.ConnectionID, from, to, promotion string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.bindings[conn]
	if !ok {
		return
	}
	rm, ok := c.registry.Get(b.roomID)
	if !ok {
		return
	}

	color, isPlayer := b.seat.Color()
	if !isPlayer {
		c.sender.Unicast(conn, Event{Type: EventInvalidMove, Payload: "spectator cannot move"})
		return
	}
	if color != rm.Game.Turn() {
		c.sender.Unicast(conn, Event{Type: EventInvalidMove, Payload: "not your turn"})
		return
	}
	from = strings.ToLower(from)
	to = strings.ToLower(to)
	if !validSquare(from) || !validSquare(to) {
		c.sender.Unicast(conn, Event{Type: EventInvalidMove, Payload: "bad coordinates"})
		return
	}

	res, err := applyMove(rm.Game, rules.Move{From: from, To: to, Promotion: promotion})
	if errors.Is(err, rules.ErrIllegalMove) && promotion == "" {
		// Clients commonly omit the promotion piece; retry once assuming
		// a queen before rejecting.
		res, err = applyMove(rm.Game, rules.Move{From: from, To: to, Promotion: "q"})
	}
	if errors.Is(err, rules.ErrIllegalMove) {
		c.sender.Unicast(conn, Event{Type: EventInvalidMove, Payload: "illegal move"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("room", b.roomID).Str("conn", string(conn)).Msg("move processing failed")
		c.sender.Unicast(conn, Event{Type: EventInvalidMove, Payload: "processing error"})
		return
	}

	if over, _ := rm.Game.Outcome(); over {
		rm.Status = room.StatusFinished
	}

	log.Debug().
		Str("room", b.roomID).
		Str("san", res.SAN).
		Str("color", string(res.Color)).
		Msg("move accepted")

	c.sender.Broadcast(b.roomID, Event{Type: EventState, Payload: StatePayload{
		Move:        &MovePayload{From: from, To: to, SAN: res.SAN, Color: res.Color},
		GamePayload: gamePayload(rm),
	}})
}

// Resign ends the game in favor of the opponent. Spectators and unbound
// connections are ignored.
func (c *Coordinator) Resign(conn room.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.bindings[conn]
	if !ok {
		return
	}
	rm, ok := c.registry.Get(b.roomID)
	if !ok {
		return
	}
	color, isPlayer := b.seat.Color()
	if !isPlayer {
		return
	}

	rm.Status = room.StatusFinished

	log.Info().Str("room", b.roomID).Str("color", string(color)).Msg("player resigned")

	c.sender.Broadcast(b.roomID, Event{Type: EventGameOver, Payload: GameOverPayload{
		Reason: "resign",
		Winner: color.Opponent(),
		FEN:    rm.Game.Snapshot().FEN,
	}})
}

// Restart replaces the room's game with a fresh one. Any bound connection,
// spectators included, may trigger it.
func (c *Coordinator) Restart(conn room.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.bindings[conn]
	if !ok {
		return
	}
	rm, ok := c.registry.Get(b.roomID)
	if !ok {
		return
	}

	rm.ResetGame(c.engine)

	log.Info().Str("room", b.roomID).Msg("game restarted")

	c.sender.Broadcast(b.roomID, Event{Type: EventState, Payload: StatePayload{
		GamePayload: gamePayload(rm),
	}})
}

// Disconnect reconciles a closed connection. It always succeeds and never
// emits errors: the seat is freed only if this connection still occupies it,
// an emptied room is destroyed, and the remainder is notified otherwise.
func (c *Coordinator) Disconnect(conn room.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.bindings[conn]
	if !ok {
		return
	}
	delete(c.bindings, conn)

	rm, ok := c.registry.Get(b.roomID)
	if !ok {
		return
	}

	seatFreed := rm.Release(conn, b.seat)

	if rm.Empty() {
		c.registry.Remove(b.roomID)
		log.Info().Str("room", b.roomID).Msg("room destroyed")
		return
	}

	if seatFreed && rm.Status == room.StatusPlaying {
		rm.Status = room.StatusWaiting
	}

	log.Info().Str("room", b.roomID).Str("conn", string(conn)).Msg("connection left")

	c.sender.Broadcast(b.roomID, Event{Type: EventRoomState, Payload: occupancy(rm)})
	c.sender.Broadcast(b.roomID, Event{Type: EventStatusMessage, Payload: "someone disconnected"})
}

// validSquare reports whether s names a board square in algebraic form.
func validSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// RoomSummary is a read-only view of one room for listings.
type RoomSummary struct {
	ID         string      `json:"id"`
	Status     room.Status `json:"status"`
	Players    int         `json:"players"`
	Spectators int         `json:"spectators"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// RoomSummaries returns a consistent snapshot of every live room, newest
// first.
func (c *Coordinator) RoomSummaries() []RoomSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms := c.registry.List()
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, rm := range rooms {
		players := 0
		if rm.White != "" {
			players++
		}
		if rm.Black != "" {
			players++
		}
		summaries = append(summaries, RoomSummary{
			ID:         rm.ID,
			Status:     rm.Status,
			Players:    players,
			Spectators: len(rm.Spectators),
			CreatedAt:  rm.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

// applyMove invokes the rules engine with panic containment: a panicking
// engine is reported as an error instead of crashing the connection.
func applyMove(g rules.Game, mv rules.Move) (res rules.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("move processing panic: %v", r)
		}
	}()
	return g.Apply(mv)
}

func gamePayload(rm *room.Room) GamePayload {
	return GamePayload{Snapshot: rm.Game.Snapshot(), Status: rm.Status}
}

func occupancy(rm *room.Room) RoomStatePayload {
	return RoomStatePayload{
		Players:    PlayersPayload{White: string(rm.White), Black: string(rm.Black)},
		Spectators: rm.SpectatorIDs(),
	}
}

func joinNotice(seat room.Seat, name string) string {
	who := "player"
	if seat == room.SeatSpectator {
		who = "spectator"
	}
	if name != "" {
		who = name
	}
	return who + " connected"
}
