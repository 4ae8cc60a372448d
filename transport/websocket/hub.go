package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sapdemon/chess-test/game/coordinator"
	"github.com/sapdemon/chess-test/game/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	// Inbound event budget per connection: sustained rate and burst.
	eventRate  = 20
	eventBurst = 40

	// Outbound queue depth per connection.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Router consumes decoded client events and connection lifecycle signals.
// The coordinator implements it.
type Router interface {
	HandleEvent(conn room.ConnectionID, ev coordinator.ClientEvent)
	Disconnect(conn room.ConnectionID)
}

// Client represents one WebSocket connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	id      room.ConnectionID
	send    chan []byte
	limiter *rate.Limiter

	// roomID is the multicast group the client belongs to, "" until the
	// coordinator accepts a join. Guarded by hub.mu.
	roomID string
}

// Hub maintains the set of active clients and the per-room multicast groups.
type Hub struct {
	mu sync.RWMutex

	// Live clients by connection ID.
	conns map[room.ConnectionID]*Client

	// Multicast groups by room ID.
	rooms map[string]map[*Client]bool

	router Router
}

// NewHub creates a hub with no clients. Attach a Router before serving.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[room.ConnectionID]*Client),
		rooms: make(map[string]map[*Client]bool),
	}
}

// Attach wires the event router. Must be called before ServeWS.
func (h *Hub) Attach(router Router) {
	h.router = router
}

// ServeWS upgrades an HTTP request to a WebSocket connection and starts the
// client's read and write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		id:      room.ConnectionID(uuid.NewString()),
		send:    make(chan []byte, sendBuffer),
		limiter: rate.NewLimiter(eventRate, eventBurst),
	}
	h.addClient(client)

	log.Debug().Str("conn", string(client.id)).Msg("client connected")

	go client.writePump()
	go client.readPump()
}

// Unicast sends an event to a single connection. The send is fire-and-forget:
// unknown connections and full send queues drop the event. The read lock is
// held across the send so removeClient cannot close the channel mid-send.
func (h *Hub) Unicast(conn room.ConnectionID, ev coordinator.Event) {
	data, ok := marshalEvent(ev)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client := h.conns[conn]
	if client == nil {
		return
	}

	select {
	case client.send <- data:
	default:
		log.Warn().Str("conn", string(conn)).Str("event", ev.Type).Msg("send queue full, dropping event")
	}
}

// Broadcast sends an event to every connection in a room's multicast group.
// The sends are non-blocking, so holding the read lock across the loop is
// safe; it excludes removeClient's close of any member's channel.
func (h *Hub) Broadcast(roomID string, ev coordinator.Event) {
	data, ok := marshalEvent(ev)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		select {
		case client.send <- data:
		default:
			log.Warn().Str("conn", string(client.id)).Str("event", ev.Type).Msg("send queue full, dropping event")
		}
	}
}

// JoinGroup adds a connection to a room's multicast group. A connection
// belongs to at most one group.
func (h *Hub) JoinGroup(conn room.ConnectionID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.conns[conn]
	if !ok || client.roomID != "" {
		return
	}

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.roomID = roomID
}

// GroupSize reports how many connections are in a room's multicast group.
func (h *Hub) GroupSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[client.id] = client
}

// removeClient drops the client from its group and closes its send channel,
// which terminates the write pump. Safe to call more than once.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[client.id]; !ok {
		return
	}
	delete(h.conns, client.id)

	if client.roomID != "" {
		if group, ok := h.rooms[client.roomID]; ok {
			delete(group, client)
			if len(group) == 0 {
				delete(h.rooms, client.roomID)
			}
		}
	}

	close(client.send)
}

func marshalEvent(ev coordinator.Event) ([]byte, bool) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("event", ev.Type).Msg("failed to marshal event")
		return nil, false
	}
	return data, true
}

// readPump pumps messages from the WebSocket connection to the router.
func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.hub.router.Disconnect(c.id)
		c.conn.Close()
		log.Debug().Str("conn", string(c.id)).Msg("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", string(c.id)).Msg("websocket read error")
			}
			break
		}

		if !c.limiter.Allow() {
			log.Warn().Str("conn", string(c.id)).Msg("rate limit exceeded, dropping event")
			continue
		}

		var ev coordinator.ClientEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.hub.Unicast(c.id, coordinator.Event{
				Type:    coordinator.EventErrorMessage,
				Payload: "malformed event",
			})
			continue
		}

		c.hub.router.HandleEvent(c.id, ev)
	}
}

// writePump pumps messages from the send queue to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
