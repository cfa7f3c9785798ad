// Package service provides the business logic layer for the dice match
// server.
//
// The service package implements:
//   - Matchmaking entry points delegating to the match registry
//   - The dice turn collaborator (Roll) that mutates room state
//   - Room teardown and finished-match lookup
//   - A background sweeper finalizing abandoned finished rooms
//
// Architecture:
//
// The service sits between the transports (HTTP, WebSocket, MCP) and the
// match registry. The registry owns all pairing and registration
// invariants; the service adds the game rules (a d6 per move, a fixed
// number of rounds, higher total wins) and converts rooms into
// transport-friendly snapshots.
package service
