// Package websocket provides the WebSocket transport for the dice match
// server.
//
// The package uses a hub-and-spoke model where a central Hub manages all
// connections, grouped by user id. When the first connection for a user
// arrives, the hub subscribes to that user's change events in the match
// registry; every event re-reads the user's state and pushes a fresh
// snapshot to all of the user's connections. The subscription is cancelled
// when the last connection goes away, so subscriber lists do not grow with
// churn.
//
// Message protocol (JSON):
//   - Incoming: {"action": "matchmake" | "stop" | "roll" | "rematch" | "leave"}
//   - Outgoing: {"event": "state", "user_id": "...", "state": {...}}
//     or {"event": "error", "user_id": "...", "error": "..."}
//
// Clients identify themselves with the ?user=<id> query parameter when
// establishing the connection. Delivery is best effort: a client whose send
// buffer is full is disconnected rather than allowed to block the hub.
package websocket
