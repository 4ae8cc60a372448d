package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sapdemon/chess-test/game/coordinator"
	"github.com/sapdemon/chess-test/game/room"
	"github.com/sapdemon/chess-test/transport/websocket"
)

// roomIDLength is the length of server-minted room ids.
const roomIDLength = 6

// Server represents the HTTP server: room entry points, the WebSocket
// endpoint, and a small REST surface for introspection.
type Server struct {
	coord  *coordinator.Coordinator
	hub    *websocket.Hub
	router *mux.Router
}

// NewServer creates a new HTTP server around the coordinator and hub.
func NewServer(coord *coordinator.Coordinator, hub *websocket.Hub) *Server {
	s := &Server{
		coord:  coord,
		hub:    hub,
		router: mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// REST surface
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	// Room entry points
	s.router.HandleFunc("/r/{roomId}", s.handleRoomPage).Methods("GET")
	s.router.HandleFunc("/", s.handleNewRoom).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// newRoomID mints a short shareable room id.
func newRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:roomIDLength]
}

// handleNewRoom redirects the visitor to a freshly minted room URL. The room
// itself is created lazily when the first client joins over the socket.
func (s *Server) handleNewRoom(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/r/"+newRoomID(), http.StatusFound)
}

// handleRoomPage serves the room landing page. Clients on it connect to /ws
// and send a join event carrying the room id from the URL.
func (s *Server) handleRoomPage(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	if !room.ValidID(roomID) {
		respondError(w, http.StatusNotFound, "invalid room id")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"roomId": roomID,
		"ws":     "/ws",
	})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.coord.RoomSummaries()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"rooms": rooms,
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
