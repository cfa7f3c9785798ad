package service

import (
	"context"
)

// MatchService defines all match-related operations exposed to transports.
type MatchService interface {
	// Matchmaking
	StartMatchmaking(ctx context.Context, userID string) error
	StopMatchmaking(ctx context.Context, userID string) error

	// State
	UserState(ctx context.Context, userID string) (*UserState, error)
	RoomState(ctx context.Context, roomID int64) (*RoomState, error)

	// Gameplay
	Roll(ctx context.Context, userID string) (*RollResult, error)
	Rematch(ctx context.Context, userID string) (int, error)
	LeaveRoom(ctx context.Context, userID string) error
	RemoveRoom(ctx context.Context, roomID int64) error

	// History
	Records(ctx context.Context, userID string) ([]MatchSummary, error)
}
