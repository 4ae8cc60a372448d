package coordinator

import (
	"github.com/sapdemon/chess-test/game/room"
	"github.com/sapdemon/chess-test/game/rules"
)

// Inbound event types.
const (
	EventJoin    = "join"
	EventMove    = "move"
	EventResign  = "resign"
	EventRestart = "restart"
)

// Outbound event types.
const (
	EventInit          = "init"
	EventState         = "state"
	EventRoomState     = "room_state"
	EventStatusMessage = "status_message"
	EventErrorMessage  = "error_message"
	EventInvalidMove   = "invalid_move"
	EventGameOver      = "game_over"
)

// ClientEvent is the tagged inbound message decoded at the transport
// boundary. Only the fields relevant to the event's type are consulted.
type ClientEvent struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId,omitempty"`
	Name      string `json:"name,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Promotion string `json:"promotion,omitempty"`
}

// Event is the outbound envelope. Payload is one of the payload structs
// below, or a plain string for message events.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// GamePayload is the game snapshot plus room status, shared by init and
// state events.
type GamePayload struct {
	rules.Snapshot
	Status room.Status `json:"status"`
}

// InitPayload is unicast to a connection right after it joins.
type InitPayload struct {
	RoomID string    `json:"roomId"`
	Color  room.Seat `json:"color"`
	GamePayload
}

// MovePayload describes the move that triggered a state broadcast.
type MovePayload struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	SAN   string      `json:"san"`
	Color rules.Color `json:"color"`
}

// StatePayload is broadcast after every accepted move and on restart.
// Move is nil for restarts.
type StatePayload struct {
	Move *MovePayload `json:"move,omitempty"`
	GamePayload
}

// PlayersPayload maps seats to their occupying connection ids ("" = free).
type PlayersPayload struct {
	White string `json:"w"`
	Black string `json:"b"`
}

// RoomStatePayload is the occupancy summary broadcast on join/disconnect.
type RoomStatePayload struct {
	Players    PlayersPayload `json:"players"`
	Spectators []string       `json:"spectators"`
}

// GameOverPayload is broadcast when a game ends by resignation.
type GameOverPayload struct {
	Reason string      `json:"reason"`
	Winner rules.Color `json:"winner"`
	FEN    string      `json:"fen"`
}
