package match

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"diceduel/game/room"
	"diceduel/identity"
	"diceduel/record"
)

// Config tunes registry behavior. The zero value uses production defaults.
type Config struct {
	// Timing is the per-room turn-timeout configuration.
	Timing room.Timing
	// Rounds is the number of full rounds per match.
	Rounds int
}

// Registry owns the waiting slot, the user and room tables, and the per-user
// subscriber lists. It is safe for concurrent use from any goroutine.
type Registry struct {
	cfg      Config
	recorder record.Recorder
	logger   zerolog.Logger

	// mu is the compound critical section: creating or removing a room
	// mutates a user's link and the room table under one hold. Reads take
	// the read side.
	mu    sync.RWMutex
	links map[string]*userLink
	rooms map[int64]*room.Room

	waiting atomic.Pointer[waiter]
}

// userLink is the per-user record: the current room assignment plus the
// user's notification subscribers. Links are never removed once created.
type userLink struct {
	room *room.Room // guarded by Registry.mu

	subMu sync.Mutex
	subs  []*Subscription
}

// NewRegistry creates a registry that hands finished matches to recorder.
// recorder may be nil, in which case outcomes are dropped with a warning.
func NewRegistry(cfg Config, recorder record.Recorder) *Registry {
	return &Registry{
		cfg:      cfg,
		recorder: recorder,
		logger:   log.With().Str("component", "match-registry").Logger(),
		links:    make(map[string]*userLink),
		rooms:    make(map[int64]*room.Room),
	}
}

// UserRoom returns the user's current room, or nil.
func (r *Registry) UserRoom(userID string) *room.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.links[userID]; ok {
		return l.room
	}
	return nil
}

// Room returns the live room with the given id, or nil.
func (r *Registry) Room(id int64) *room.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[id]
}

// Rooms returns a snapshot of all live rooms.
func (r *Registry) Rooms() []*room.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*room.Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		out = append(out, rm)
	}
	return out
}

// link returns the user's link record, creating it on first access.
func (r *Registry) link(userID string) *userLink {
	r.mu.RLock()
	l, ok := r.links[userID]
	r.mu.RUnlock()
	if ok {
		return l
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok = r.links[userID]; ok {
		return l
	}
	l = &userLink{}
	r.links[userID] = l
	return l
}

// linkLocked is link for callers already holding the write lock.
func (r *Registry) linkLocked(userID string) *userLink {
	l, ok := r.links[userID]
	if !ok {
		l = &userLink{}
		r.links[userID] = l
	}
	return l
}

// createRoom links both users to a fresh room as one atomic step. It returns
// nil without side effects if either user acquired a room through another
// concurrent path since the caller's check.
func (r *Registry) createRoom(u0, u1 *identity.User) *room.Room {
	r.mu.Lock()
	l0 := r.linkLocked(u0.ID)
	l1 := r.linkLocked(u1.ID)
	if l0.room != nil || l1.room != nil {
		r.mu.Unlock()
		r.logger.Debug().Str("user0", u0.ID).Str("user1", u1.ID).
			Msg("pairing abandoned: user already in a room")
		return nil
	}

	id := r.newRoomIDLocked()
	rm := room.New(id, [2]identity.User{*u0, *u1}, r.cfg.Timing, r.cfg.Rounds, func() {
		r.notifyUser(u0.ID)
		r.notifyUser(u1.ID)
	})
	r.rooms[id] = rm
	l0.room = rm
	l1.room = rm
	rm.ArmOrRefreshTimeout()
	r.mu.Unlock()

	r.notifyUser(u0.ID)
	r.notifyUser(u1.ID)
	r.logger.Info().Int64("room", id).Str("user0", u0.ID).Str("user1", u1.ID).
		Msg("room created")
	return rm
}

// newRoomIDLocked draws random ids until one does not collide with a live
// room. Caller holds the write lock.
func (r *Registry) newRoomIDLocked() int64 {
	for {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand never fails on supported platforms
			panic(err)
		}
		id := int64(binary.BigEndian.Uint64(buf[:]) &^ (1 << 63))
		if id == 0 {
			continue
		}
		if _, taken := r.rooms[id]; !taken {
			return id
		}
	}
}

// RemoveRoom ends and finalizes a room: it unlinks both users and the id
// table entry as one atomic step, fires both users' change notifications,
// and hands the final snapshot to the recorder. Removing an id that is not
// live is a no-op, so the outcome is recorded exactly once no matter how
// many teardown paths race.
func (r *Registry) RemoveRoom(id int64) {
	r.mu.Lock()
	rm, ok := r.rooms[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.rooms, id)
	u0, u1 := rm.User(0), rm.User(1)
	if l, ok := r.links[u0.ID]; ok && l.room == rm {
		l.room = nil
	}
	if l, ok := r.links[u1.ID]; ok && l.room == rm {
		l.room = nil
	}
	r.mu.Unlock()

	rm.DisarmTimeout()
	r.notifyUser(u0.ID)
	r.notifyUser(u1.ID)
	r.recordOutcome(rm)
	r.logger.Info().Int64("room", id).Msg("room removed")
}

func (r *Registry) recordOutcome(rm *room.Room) {
	snap := rm.Snapshot()
	rec := record.MatchRecord{
		UserID1: snap.Users[0].ID,
		UserID2: snap.Users[1].ID,
		Score1:  snap.Scores[0],
		Score2:  snap.Scores[1],
		Winner:  snap.Winner,
		When:    time.Now(),
	}
	if r.recorder == nil {
		r.logger.Warn().Int64("room", snap.ID).Msg("no recorder configured, dropping match outcome")
		return
	}
	if err := r.recorder.Record(context.Background(), rec); err != nil {
		r.logger.Error().Err(err).Int64("room", snap.ID).Msg("failed to hand off match record")
	}
}
