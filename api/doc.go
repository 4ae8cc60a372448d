// Package api provides the HTTP surface of the chess room server.
//
// The api package implements:
//   - Room entry points that mint and validate shareable room URLs
//   - The WebSocket upgrade endpoint used by the realtime protocol
//   - A small REST surface for introspecting live rooms
//   - Health checking
//
// Endpoints:
//
// Room Entry:
//   - GET /            - Mint a fresh room id and redirect to its URL
//   - GET /r/{roomId}  - Room landing; 404 when the id is malformed
//
// Realtime:
//   - GET /ws - WebSocket upgrade; all game traffic flows over this socket
//
// Introspection:
//   - GET /api/rooms - List live rooms (id, status, occupancy, createdAt)
//   - GET /healthz   - Liveness probe
//
// The HTTP layer never mutates rooms. Rooms are created, filled, and
// destroyed exclusively by the coordinator in response to socket events, so
// sharing a room URL is the whole invitation flow: the first visitor to open
// the socket and join becomes white.
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
package api
