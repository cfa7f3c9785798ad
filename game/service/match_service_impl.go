package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"diceduel/game/match"
	"diceduel/identity"
	"diceduel/record"
)

var (
	ErrNotInRoom = errors.New("user has no current room")
	ErrNoRoom    = errors.New("room not found")
)

// matchServiceImpl implements the MatchService interface.
type matchServiceImpl struct {
	registry *match.Registry
	resolver identity.Resolver
	store    record.Store
	die      func() int
}

// NewMatchService creates a new match service instance. store may be nil if
// no record lookup is available.
func NewMatchService(registry *match.Registry, resolver identity.Resolver, store record.Store) MatchService {
	return &matchServiceImpl{
		registry: registry,
		resolver: resolver,
		store:    store,
		die:      func() int { return rand.IntN(6) + 1 },
	}
}

// StartMatchmaking queues the user for pairing.
func (s *matchServiceImpl) StartMatchmaking(ctx context.Context, userID string) error {
	return s.registry.StartMatchmaking(ctx, userID, s.resolver)
}

// StopMatchmaking cancels a pending matchmaking request.
func (s *matchServiceImpl) StopMatchmaking(ctx context.Context, userID string) error {
	s.registry.StopMatchmaking(userID)
	return nil
}

// UserState returns the user's matchmaking and room state.
func (s *matchServiceImpl) UserState(ctx context.Context, userID string) (*UserState, error) {
	state := &UserState{
		UserID:  userID,
		Waiting: s.registry.Waiting(userID),
	}
	if rm := s.registry.UserRoom(userID); rm != nil {
		snap := rm.Snapshot()
		state.InRoom = true
		state.Room = &snap
	}
	return state, nil
}

// RoomState returns a snapshot of the given live room.
func (s *matchServiceImpl) RoomState(ctx context.Context, roomID int64) (*RoomState, error) {
	rm := s.registry.Room(roomID)
	if rm == nil {
		return nil, ErrNoRoom
	}
	return &RoomState{Room: rm.Snapshot()}, nil
}

// Roll rolls a d6 for the user. The user must be in a room and on move. The
// turn timeout is refreshed on every accepted roll; when the roll completes
// the final round the room ends by score comparison and the timeout is
// removed instead.
func (s *matchServiceImpl) Roll(ctx context.Context, userID string) (*RollResult, error) {
	rm := s.registry.UserRoom(userID)
	if rm == nil {
		return nil, ErrNotInRoom
	}
	value := s.die()
	side, err := rm.SubmitRoll(userID, value)
	if err != nil {
		return nil, fmt.Errorf("roll rejected: %w", err)
	}
	rm.ArmOrRefreshTimeout()
	return &RollResult{Side: side, Value: value, Room: rm.Snapshot()}, nil
}

// Rematch bumps the rematch counter on the user's room. Negotiation
// semantics are owned by the UI layer.
func (s *matchServiceImpl) Rematch(ctx context.Context, userID string) (int, error) {
	rm := s.registry.UserRoom(userID)
	if rm == nil {
		return 0, ErrNotInRoom
	}
	return rm.IncrementRematch(), nil
}

// LeaveRoom ends and finalizes the user's current room. The outcome is
// persisted with whatever scores and winner the room held; leaving a live
// room forfeits nothing, it simply ends the match without a winner change.
func (s *matchServiceImpl) LeaveRoom(ctx context.Context, userID string) error {
	rm := s.registry.UserRoom(userID)
	if rm == nil {
		return ErrNotInRoom
	}
	s.registry.RemoveRoom(rm.ID())
	return nil
}

// RemoveRoom ends and finalizes a room by id. Unknown ids are a no-op, so
// racing teardown paths are harmless.
func (s *matchServiceImpl) RemoveRoom(ctx context.Context, roomID int64) error {
	s.registry.RemoveRoom(roomID)
	return nil
}

// Records returns the user's finished matches, most recent first.
func (s *matchServiceImpl) Records(ctx context.Context, userID string) ([]MatchSummary, error) {
	if s.store == nil {
		return nil, nil
	}
	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]MatchSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, MatchSummary{
			ID:           rec.ID,
			UserID1:      rec.UserID1,
			UserID2:      rec.UserID2,
			Score1:       rec.Score1,
			Score2:       rec.Score2,
			Winner:       rec.Winner,
			WinnerUserID: rec.WinnerUserID(),
			When:         rec.When,
		})
	}
	return out, nil
}
