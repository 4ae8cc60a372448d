package coordinator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapdemon/chess-test/game/coordinator"
	"github.com/sapdemon/chess-test/game/room"
	"github.com/sapdemon/chess-test/game/rules"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// fakeSender records emitted events for assertions.
type fakeSender struct {
	unicasts   []unicastRecord
	broadcasts []broadcastRecord
	groups     map[room.ConnectionID]string
}

type unicastRecord struct {
	conn room.ConnectionID
	ev   coordinator.Event
}

type broadcastRecord struct {
	roomID string
	ev     coordinator.Event
}

func newFakeSender() *fakeSender {
	return &fakeSender{groups: make(map[room.ConnectionID]string)}
}

func (s *fakeSender) Unicast(conn room.ConnectionID, ev coordinator.Event) {
	s.unicasts = append(s.unicasts, unicastRecord{conn: conn, ev: ev})
}

func (s *fakeSender) Broadcast(roomID string, ev coordinator.Event) {
	s.broadcasts = append(s.broadcasts, broadcastRecord{roomID: roomID, ev: ev})
}

func (s *fakeSender) JoinGroup(conn room.ConnectionID, roomID string) {
	s.groups[conn] = roomID
}

func (s *fakeSender) reset() {
	s.unicasts = nil
	s.broadcasts = nil
}

func (s *fakeSender) broadcastsOfType(eventType string) []broadcastRecord {
	var out []broadcastRecord
	for _, b := range s.broadcasts {
		if b.ev.Type == eventType {
			out = append(out, b)
		}
	}
	return out
}

// scriptedGame lets tests control Apply results directly.
type scriptedGame struct {
	turn  rules.Color
	apply func(mv rules.Move) (rules.Result, error)
	calls []rules.Move
}

func (g *scriptedGame) Apply(mv rules.Move) (rules.Result, error) {
	g.calls = append(g.calls, mv)
	return g.apply(mv)
}

func (g *scriptedGame) Snapshot() rules.Snapshot { return rules.Snapshot{Turn: g.turn} }
func (g *scriptedGame) Turn() rules.Color        { return g.turn }
func (g *scriptedGame) Outcome() (bool, string)  { return false, "" }

type stubEngine struct{ game rules.Game }

func (e stubEngine) NewGame() rules.Game { return e.game }

func newTestCoordinator() (*coordinator.Coordinator, *fakeSender, *room.Registry) {
	reg := room.NewRegistry()
	sender := newFakeSender()
	c := coordinator.New(reg, rules.NewChessEngine(), sender)
	return c, sender, reg
}

func initPayload(t *testing.T, ev coordinator.Event) coordinator.InitPayload {
	t.Helper()
	payload, ok := ev.Payload.(coordinator.InitPayload)
	require.True(t, ok, "expected InitPayload, got %T", ev.Payload)
	return payload
}

func TestJoinSeatOrder(t *testing.T) {
	c, sender, _ := newTestCoordinator()

	c.Join("conn-a", "abc123", "")
	require.Len(t, sender.unicasts, 1)
	init := initPayload(t, sender.unicasts[0].ev)
	assert.Equal(t, coordinator.EventInit, sender.unicasts[0].ev.Type)
	assert.Equal(t, "abc123", init.RoomID)
	assert.Equal(t, room.SeatWhite, init.Color)
	assert.Equal(t, rules.White, init.Turn)
	assert.Equal(t, room.StatusWaiting, init.Status)
	assert.Equal(t, startFEN, init.FEN)

	c.Join("conn-b", "abc123", "")
	init = initPayload(t, sender.unicasts[1].ev)
	assert.Equal(t, room.SeatBlack, init.Color)
	assert.Equal(t, room.StatusPlaying, init.Status)

	c.Join("conn-c", "abc123", "")
	init = initPayload(t, sender.unicasts[2].ev)
	assert.Equal(t, room.SeatSpectator, init.Color)

	states := sender.broadcastsOfType(coordinator.EventRoomState)
	require.Len(t, states, 3)
	last := states[2].ev.Payload.(coordinator.RoomStatePayload)
	assert.Equal(t, "conn-a", last.Players.White)
	assert.Equal(t, "conn-b", last.Players.Black)
	assert.Equal(t, []string{"conn-c"}, last.Spectators)
}

func TestJoinNotices(t *testing.T) {
	c, sender, _ := newTestCoordinator()

	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "alice")
	c.Join("conn-c", "abc123", "")

	notices := sender.broadcastsOfType(coordinator.EventStatusMessage)
	require.Len(t, notices, 3)
	assert.Equal(t, "player connected", notices[0].ev.Payload)
	assert.Equal(t, "alice connected", notices[1].ev.Payload)
	assert.Equal(t, "spectator connected", notices[2].ev.Payload)
}

func TestJoinInvalidRoomID(t *testing.T) {
	c, sender, reg := newTestCoordinator()

	for _, id := range []string{"", "ab", "bad id", "room/7"} {
		c.Join("conn-a", id, "")
	}

	require.Len(t, sender.unicasts, 4)
	for _, u := range sender.unicasts {
		assert.Equal(t, coordinator.EventErrorMessage, u.ev.Type)
		assert.Equal(t, "invalid room id", u.ev.Payload)
	}
	assert.Empty(t, sender.broadcasts)
	assert.Equal(t, 0, reg.Count())
}

func TestJoinTwiceRejected(t *testing.T) {
	c, sender, reg := newTestCoordinator()

	c.Join("conn-a", "abc123", "")
	sender.reset()

	c.Join("conn-a", "other1", "")
	require.Len(t, sender.unicasts, 1)
	assert.Equal(t, coordinator.EventErrorMessage, sender.unicasts[0].ev.Type)
	assert.Empty(t, sender.broadcasts)
	assert.Equal(t, 1, reg.Count())
}

func TestMoveBroadcastsState(t *testing.T) {
	c, sender, _ := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	sender.reset()

	c.Move("conn-a", "e2", "e4", "")

	assert.Empty(t, sender.unicasts)
	states := sender.broadcastsOfType(coordinator.EventState)
	require.Len(t, states, 1)
	assert.Equal(t, "abc123", states[0].roomID)

	payload := states[0].ev.Payload.(coordinator.StatePayload)
	require.NotNil(t, payload.Move)
	assert.Equal(t, "e2", payload.Move.From)
	assert.Equal(t, "e4", payload.Move.To)
	assert.Equal(t, "e4", payload.Move.SAN)
	assert.Equal(t, rules.White, payload.Move.Color)
	assert.Equal(t, rules.Black, payload.Turn)
	assert.Equal(t, room.StatusPlaying, payload.Status)
}

func TestMoveUppercaseCoordinates(t *testing.T) {
	c, sender, _ := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	sender.reset()

	// Case alone must not change the outcome of a legal move.
	c.Move("conn-a", "E2", "E4", "")

	assert.Empty(t, sender.unicasts)
	states := sender.broadcastsOfType(coordinator.EventState)
	require.Len(t, states, 1)

	payload := states[0].ev.Payload.(coordinator.StatePayload)
	require.NotNil(t, payload.Move)
	assert.Equal(t, "e2", payload.Move.From)
	assert.Equal(t, "e4", payload.Move.To)
	assert.Equal(t, "e4", payload.Move.SAN)
}

func TestMoveOutOfTurn(t *testing.T) {
	c, sender, reg := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	sender.reset()

	c.Move("conn-b", "e7", "e5", "")

	require.Len(t, sender.unicasts, 1)
	assert.Equal(t, "conn-b", string(sender.unicasts[0].conn))
	assert.Equal(t, coordinator.EventInvalidMove, sender.unicasts[0].ev.Type)
	assert.Equal(t, "not your turn", sender.unicasts[0].ev.Payload)
	assert.Empty(t, sender.broadcasts)

	rm, _ := reg.Get("abc123")
	assert.Equal(t, startFEN, rm.Game.Snapshot().FEN)
}

func TestSpectatorCannotMove(t *testing.T) {
	c, sender, _ := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	c.Join("conn-c", "abc123", "")
	sender.reset()

	c.Move("conn-c", "e2", "e4", "")

	require.Len(t, sender.unicasts, 1)
	assert.Equal(t, "spectator cannot move", sender.unicasts[0].ev.Payload)
	assert.Empty(t, sender.broadcasts)
}

func TestMoveUnboundIgnored(t *testing.T) {
	c, sender, _ := newTestCoordinator()

	c.Move("conn-x", "e2", "e4", "")

	assert.Empty(t, sender.unicasts)
	assert.Empty(t, sender.broadcasts)
}

func TestMoveBadCoordinates(t *testing.T) {
	c, sender, _ := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	sender.reset()

	for _, mv := range [][2]string{{"", "e4"}, {"e2", ""}, {"z9", "e4"}, {"e2", "e44"}} {
		c.Move("conn-a", mv[0], mv[1], "")
	}

	require.Len(t, sender.unicasts, 4)
	for _, u := range sender.unicasts {
		assert.Equal(t, "bad coordinates", u.ev.Payload)
	}
	assert.Empty(t, sender.broadcasts)
}

func TestMoveIllegal(t *testing.T) {
	c, sender, _ := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	sender.reset()

	c.Move("conn-a", "e2", "e6", "")

	require.Len(t, sender.unicasts, 1)
	assert.Equal(t, "illegal move", sender.unicasts[0].ev.Payload)
	assert.Empty(t, sender.broadcasts)
}

func TestMovePromotionDefaultsToQueen(t *testing.T) {
	game := &scriptedGame{turn: rules.White}
	game.apply = func(mv rules.Move) (rules.Result, error) {
		if mv.Promotion == "" {
			return rules.Result{}, rules.ErrIllegalMove
		}
		return rules.Result{SAN: "e8=Q+", Color: rules.White}, nil
	}

	reg := room.NewRegistry()
	sender := newFakeSender()
	c := coordinator.New(reg, stubEngine{game: game}, sender)
	c.Join("conn-a", "abc123", "")
	sender.reset()

	c.Move("conn-a", "e7", "e8", "")

	require.Len(t, game.calls, 2)
	assert.Equal(t, "", game.calls[0].Promotion)
	assert.Equal(t, "q", game.calls[1].Promotion)

	states := sender.broadcastsOfType(coordinator.EventState)
	require.Len(t, states, 1)
	payload := states[0].ev.Payload.(coordinator.StatePayload)
	assert.Equal(t, "e8=Q+", payload.Move.SAN)
}

func TestMoveExplicitPromotionNotRetried(t *testing.T) {
	game := &scriptedGame{turn: rules.White}
	game.apply = func(mv rules.Move) (rules.Result, error) {
		return rules.Result{}, rules.ErrIllegalMove
	}

	reg := room.NewRegistry()
	sender := newFakeSender()
	c := coordinator.New(reg, stubEngine{game: game}, sender)
	c.Join("conn-a", "abc123", "")
	sender.reset()

	c.Move("conn-a", "e7", "e8", "r")

	require.Len(t, game.calls, 1)
	require.Len(t, sender.unicasts, 1)
	assert.Equal(t, "illegal move", sender.unicasts[0].ev.Payload)
}

func TestMovePanicContained(t *testing.T) {
	game := &scriptedGame{turn: rules.White}
	game.apply = func(mv rules.Move) (rules.Result, error) {
		panic("engine bug")
	}

	reg := room.NewRegistry()
	sender := newFakeSender()
	c := coordinator.New(reg, stubEngine{game: game}, sender)
	c.Join("conn-a", "abc123", "")
	sender.reset()

	c.Move("conn-a", "e2", "e4", "")

	require.Len(t, game.calls, 1)
	require.Len(t, sender.unicasts, 1)
	assert.Equal(t, coordinator.EventInvalidMove, sender.unicasts[0].ev.Type)
	assert.Equal(t, "processing error", sender.unicasts[0].ev.Payload)
	assert.Empty(t, sender.broadcasts)
}

func TestResign(t *testing.T) {
	c, sender, reg := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	sender.reset()

	c.Resign("conn-a")

	overs := sender.broadcastsOfType(coordinator.EventGameOver)
	require.Len(t, overs, 1)
	payload := overs[0].ev.Payload.(coordinator.GameOverPayload)
	assert.Equal(t, "resign", payload.Reason)
	assert.Equal(t, rules.Black, payload.Winner)
	assert.Equal(t, startFEN, payload.FEN)

	rm, _ := reg.Get("abc123")
	assert.Equal(t, room.StatusFinished, rm.Status)
}

func TestSpectatorResignIgnored(t *testing.T) {
	c, sender, reg := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	c.Join("conn-c", "abc123", "")
	sender.reset()

	c.Resign("conn-c")

	assert.Empty(t, sender.unicasts)
	assert.Empty(t, sender.broadcasts)
	rm, _ := reg.Get("abc123")
	assert.Equal(t, room.StatusPlaying, rm.Status)
}

func TestRestartAfterFinish(t *testing.T) {
	c, sender, reg := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	c.Resign("conn-a")
	sender.reset()

	// Spectators may restart too; use the white player here.
	c.Restart("conn-a")

	states := sender.broadcastsOfType(coordinator.EventState)
	require.Len(t, states, 1)
	payload := states[0].ev.Payload.(coordinator.StatePayload)
	assert.Nil(t, payload.Move)
	assert.Equal(t, rules.White, payload.Turn)
	assert.Equal(t, startFEN, payload.FEN)
	assert.Equal(t, room.StatusPlaying, payload.Status)

	rm, _ := reg.Get("abc123")
	assert.Equal(t, room.StatusPlaying, rm.Status)
}

func TestDisconnectReleasesSeat(t *testing.T) {
	c, sender, reg := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	sender.reset()

	c.Disconnect("conn-a")

	rm, ok := reg.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, room.StatusWaiting, rm.Status)
	assert.Equal(t, room.ConnectionID(""), rm.White)

	states := sender.broadcastsOfType(coordinator.EventRoomState)
	require.Len(t, states, 1)
	payload := states[0].ev.Payload.(coordinator.RoomStatePayload)
	assert.Equal(t, "", payload.Players.White)
	assert.Equal(t, "conn-b", payload.Players.Black)

	notices := sender.broadcastsOfType(coordinator.EventStatusMessage)
	require.Len(t, notices, 1)
	assert.Equal(t, "someone disconnected", notices[0].ev.Payload)
}

func TestLastDisconnectDestroysRoom(t *testing.T) {
	c, sender, reg := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	c.Move("conn-a", "e2", "e4", "")

	c.Disconnect("conn-a")
	sender.reset()
	c.Disconnect("conn-b")

	assert.Empty(t, sender.broadcasts)
	assert.Equal(t, 0, reg.Count())

	// A new join with the same id gets a brand-new game.
	c.Join("conn-c", "abc123", "")
	init := initPayload(t, sender.unicasts[0].ev)
	assert.Equal(t, room.SeatWhite, init.Color)
	assert.Equal(t, startFEN, init.FEN)
}

func TestSpectatorDisconnect(t *testing.T) {
	c, sender, reg := newTestCoordinator()
	c.Join("conn-a", "abc123", "")
	c.Join("conn-b", "abc123", "")
	c.Join("conn-c", "abc123", "")
	sender.reset()

	c.Disconnect("conn-c")

	rm, _ := reg.Get("abc123")
	assert.Equal(t, room.StatusPlaying, rm.Status)
	assert.Equal(t, room.ConnectionID("conn-a"), rm.White)
	assert.Equal(t, room.ConnectionID("conn-b"), rm.Black)

	states := sender.broadcastsOfType(coordinator.EventRoomState)
	require.Len(t, states, 1)
	assert.Empty(t, states[0].ev.Payload.(coordinator.RoomStatePayload).Spectators)
}

func TestDisconnectUnboundIgnored(t *testing.T) {
	c, sender, _ := newTestCoordinator()

	c.Disconnect("conn-x")

	assert.Empty(t, sender.unicasts)
	assert.Empty(t, sender.broadcasts)
}

func TestHandleEventDispatch(t *testing.T) {
	c, sender, _ := newTestCoordinator()

	c.HandleEvent("conn-a", coordinator.ClientEvent{Type: coordinator.EventJoin, RoomID: "abc123"})
	require.Len(t, sender.unicasts, 1)
	assert.Equal(t, coordinator.EventInit, sender.unicasts[0].ev.Type)

	c.HandleEvent("conn-a", coordinator.ClientEvent{Type: "teleport"})
	last := sender.unicasts[len(sender.unicasts)-1]
	assert.Equal(t, coordinator.EventErrorMessage, last.ev.Type)
	assert.Equal(t, "unknown event", last.ev.Payload)
}
