// Package websocket provides the WebSocket transport for the chess room
// coordinator.
//
// The package uses a hub-and-spoke model: a central Hub tracks every live
// connection and the per-room multicast groups, while each connection runs a
// dedicated read and write goroutine.
//
// Message protocol:
//
// Inbound messages are JSON ClientEvents ({"type":"join","roomId":"abc123"});
// the read pump decodes them and hands them to the coordinator. Outbound
// messages are JSON Event envelopes ({"type":"state","payload":{...}}).
//
// Delivery:
//
// Sends are fire-and-forget. Each client has a buffered send channel; when it
// is full the message is dropped rather than blocking the sender — the next
// broadcast supersedes a lost one.
//
// Group membership:
//
// A connection is registered with the hub at upgrade time but joins a room's
// multicast group only once the coordinator accepts its join event. Unicast
// therefore works before any group membership exists.
//
// Hardening:
//
// Inbound events are rate limited per connection; messages over the budget
// are dropped before they reach the coordinator. Read deadlines are pushed
// by pong responses to the hub's periodic pings.
package websocket
