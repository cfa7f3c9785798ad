package service

import (
	"time"

	"diceduel/game/room"
)

// UserState describes a user's current matchmaking/session situation.
type UserState struct {
	UserID  string         `json:"user_id"`
	Waiting bool           `json:"waiting"`
	InRoom  bool           `json:"in_room"`
	Room    *room.Snapshot `json:"room,omitempty"`
}

// RoomState wraps a room snapshot for transport responses.
type RoomState struct {
	Room room.Snapshot `json:"room"`
}

// RollResult is the outcome of a single roll.
type RollResult struct {
	Side  int           `json:"side"`
	Value int           `json:"value"`
	Room  room.Snapshot `json:"room"`
}

// MatchSummary is a finished match as returned to transports.
type MatchSummary struct {
	ID           string    `json:"id"`
	UserID1      string    `json:"user_id_1"`
	UserID2      string    `json:"user_id_2"`
	Score1       int       `json:"score_1"`
	Score2       int       `json:"score_2"`
	Winner       int       `json:"winner"`
	WinnerUserID string    `json:"winner_user_id,omitempty"`
	When         time.Time `json:"when"`
}
