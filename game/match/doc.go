// Package match pairs users into rooms and owns the room registry.
//
// The match package implements:
//   - A lock-free single-slot rendezvous for matchmaking
//   - user-to-room and id-to-room tables with a compound critical section
//   - Per-user change-notification subscriber lists
//   - Room finalization, handing finished matches to the recorder
//
// Matchmaking:
//
// The waiting slot holds at most one user id. A matchmaking request first
// tries to take whatever occupant is in the slot; if it got one, that
// occupant is the partner. Otherwise it installs itself and returns, waiting
// for the next caller. Both steps are single atomic operations, so two
// concurrent requests always pair with each other instead of both waiting,
// and no queue or lock is needed. StopMatchmaking clears the slot only if it
// still holds the caller, which makes cancellation safe against a
// simultaneous pairing.
//
// Registration invariant:
//
// Creating or tearing down a room changes a user's room pointer and the
// id table as one externally indivisible step: both mutations happen inside
// a single registry-wide critical section. The section is deliberately
// coarse; hold times are a few map operations. Change notifications always
// fire after the section is released so a slow subscriber can never block
// pairing or teardown.
//
// User link records are created lazily on first access and live for the
// process lifetime; only their room pointer is cleared on teardown.
package match
