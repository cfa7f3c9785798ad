// Package mcp exposes the dice match service as MCP tools.
//
// The tool surface covers the full player loop: request and cancel
// matchmaking, read user or room state, roll, bump the rematch counter, and
// leave a room. Handlers call the service directly and return JSON-encoded
// snapshots, so an MCP client observes exactly what the REST API would
// return.
package mcp
