package room

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"diceduel/identity"
)

var (
	ErrRoomOver  = errors.New("room is already over")
	ErrNotOnMove = errors.New("user is not on move")
	ErrNotInRoom = errors.New("user is not in this room")
)

// NoWinner is the winner index of a room that ended without a winner.
const NoWinner = -1

// Room is one in-progress or finished two-player match.
type Room struct {
	id     int64
	users  [2]identity.User
	rounds int

	mu       sync.Mutex
	scores   [2]int
	rolls    [2]int // last roll per side; rolls are 1..6, 0 means no roll yet
	step     int
	winner   int
	over     bool
	timedOut bool
	rematch  int
	endedAt  time.Time

	deadline atomic.Int64 // unix nanos; meaningful only while the room is live
	timer    atomic.Pointer[pollTimer]

	timing   Timing
	onChange func()
}

// New creates a room in its default state: zero scores, no rolls, step zero,
// no winner. rounds is the number of full rounds after which the match ends
// by score comparison. onChange is invoked (outside the room's own lock)
// whenever gameplay state changes; it may be nil.
func New(id int64, users [2]identity.User, timing Timing, rounds int, onChange func()) *Room {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	return &Room{
		id:       id,
		users:    users,
		rounds:   rounds,
		winner:   NoWinner,
		timing:   timing.withDefaults(),
		onChange: onChange,
	}
}

// DefaultRounds is the match length used when the registry does not override it.
const DefaultRounds = 5

// ID returns the room's unique id.
func (r *Room) ID() int64 { return r.id }

// User returns the player in the given slot (0 or 1).
func (r *Room) User(index int) identity.User { return r.users[index] }

// Rounds returns the number of rounds this match runs for.
func (r *Room) Rounds() int { return r.rounds }

// Side returns the index of the player currently on move.
func (r *Room) Side() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step % 2
}

// Turn returns the current round number.
func (r *Room) Turn() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step / 2
}

// Step returns the current step counter value.
func (r *Room) Step() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step
}

// Score returns the given side's total.
func (r *Room) Score(index int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores[index]
}

// LastRoll returns the given side's most recent roll, or 0 if that side has
// not rolled yet.
func (r *Room) LastRoll(index int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rolls[index]
}

// Winner returns the winning side, or NoWinner while the match is live or
// ended without a winner.
func (r *Room) Winner() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

// Over reports whether the match has ended.
func (r *Room) Over() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.over
}

// TimedOut reports whether the match ended by forfeiture.
func (r *Room) TimedOut() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timedOut
}

// EndedAt returns when the match ended; ok is false while it is live.
func (r *Room) EndedAt() (when time.Time, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endedAt, r.over
}

// Rematch returns the rematch counter. Its negotiation semantics belong to
// the UI layer; the room only stores the count.
func (r *Room) Rematch() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rematch
}

// IncrementRematch bumps the rematch counter and returns the new value.
func (r *Room) IncrementRematch() int {
	r.mu.Lock()
	n := r.rematch + 1
	r.rematch = n
	r.mu.Unlock()
	r.notifyChange()
	return n
}

// SubmitRoll applies a roll by the given user. The user must occupy the slot
// currently on move; the roll overwrites that side's last roll, is added to
// its score, and advances the step. When the final round completes the match
// ends with the higher total winning (a tie ends with no winner).
// It returns the side that rolled.
func (r *Room) SubmitRoll(userID string, value int) (int, error) {
	r.mu.Lock()
	if r.over {
		r.mu.Unlock()
		return 0, ErrRoomOver
	}
	side := r.step % 2
	if r.users[side].ID != userID {
		if r.users[0].ID != userID && r.users[1].ID != userID {
			r.mu.Unlock()
			return 0, ErrNotInRoom
		}
		r.mu.Unlock()
		return 0, ErrNotOnMove
	}
	r.rolls[side] = value
	r.scores[side] += value
	r.step++
	if r.step >= r.rounds*2 {
		r.endLocked(false)
	} else {
		// Push the deadline out while still holding the lock; forfeit
		// re-reads it under the same lock, so an accepted roll can never
		// be forfeited against the previous move's deadline.
		r.deadline.Store(time.Now().Add(r.timing.TurnTimeout).UnixNano())
	}
	r.mu.Unlock()
	r.notifyChange()
	return side, nil
}

// End finishes the match by score comparison if it is still live, and
// returns whether this call ended it.
func (r *Room) End() bool {
	r.mu.Lock()
	if r.over {
		r.mu.Unlock()
		return false
	}
	r.endLocked(false)
	r.mu.Unlock()
	r.DisarmTimeout()
	r.notifyChange()
	return true
}

// endLocked marks the match over. With forfeit set, the step is advanced one
// past the stalled move and the winner is the side on move *after* that
// increment, i.e. the opponent of whoever stalled. Without forfeit the winner
// is whichever side has the higher total.
func (r *Room) endLocked(forfeit bool) {
	r.over = true
	r.endedAt = time.Now()
	if forfeit {
		r.timedOut = true
		r.step++
		r.winner = r.step % 2
		return
	}
	switch {
	case r.scores[0] > r.scores[1]:
		r.winner = 0
	case r.scores[1] > r.scores[0]:
		r.winner = 1
	default:
		r.winner = NoWinner
	}
}

// forfeit ends a live match against the side on move if the deadline has
// passed. The deadline is re-read under the lock: a roll that landed after
// the caller's check has already pushed it out, so the forfeiture is skipped.
// It reports whether this call performed the forfeiture.
func (r *Room) forfeit() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.over {
		return false
	}
	if time.Now().UnixNano() < r.deadline.Load() {
		return false
	}
	r.endLocked(true)
	return true
}

func (r *Room) notifyChange() {
	if r.onChange != nil {
		r.onChange()
	}
}

// Snapshot is a consistent copy of a room's gameplay state. The id is
// serialized as a string: ids are 63-bit integers and JSON numbers lose
// precision past 2^53.
type Snapshot struct {
	ID       int64            `json:"id,string"`
	Users    [2]identity.User `json:"users"`
	Scores   [2]int           `json:"scores"`
	Rolls    [2]int           `json:"rolls"`
	Step     int              `json:"step"`
	Turn     int              `json:"turn"`
	Side     int              `json:"side"`
	Rounds   int              `json:"rounds"`
	Winner   int              `json:"winner"`
	Over     bool             `json:"over"`
	TimedOut bool             `json:"timed_out"`
	Rematch  int              `json:"rematch"`
	Deadline time.Time        `json:"deadline,omitzero"`
}

// Snapshot returns a copy of the room's current state taken under the room
// lock.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Snapshot{
		ID:       r.id,
		Users:    r.users,
		Scores:   r.scores,
		Rolls:    r.rolls,
		Step:     r.step,
		Turn:     r.step / 2,
		Side:     r.step % 2,
		Rounds:   r.rounds,
		Winner:   r.winner,
		Over:     r.over,
		TimedOut: r.timedOut,
		Rematch:  r.rematch,
	}
	if !r.over {
		if d := r.deadline.Load(); d != 0 {
			s.Deadline = time.Unix(0, d)
		}
	}
	return s
}
