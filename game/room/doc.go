// Package room holds the authoritative state of one two-player dice match.
//
// The room package implements:
//   - Fixed two-player slots with per-side scores and last rolls
//   - A monotonically increasing step counter with derived turn and side
//   - Winner, game-over, timed-out, and rematch bookkeeping
//   - A per-room turn timeout that forfeits a stalling mover
//
// Concurrency:
//
// Gameplay fields (scores, rolls, step, winner) are guarded by a per-room
// mutex, so move submission and the timeout tick never race on them. The
// timeout deadline and the poll-timer handle are managed with atomics: the
// timer is installed with compare-and-swap so concurrent refreshes can never
// leave two pollers running for the same room.
//
// Derived values:
//
// The side on move is step mod 2 and the round number is step div 2. Both
// are always recomputed from the current step. Forfeiture depends on this:
// the tick increments the step first and only then derives the winner, so
// the player who stalled loses and the opponent is awarded the win.
//
// Usage:
//
//	r := room.New(id, [2]identity.User{a, b}, room.DefaultTiming, 5, onChange)
//	r.ArmOrRefreshTimeout()
//	side, err := r.SubmitRoll(a.ID, 4)
//
// Rooms are created and torn down by the match registry; application code
// reads state through Snapshot or the individual accessors.
package room
