package record

import (
	"context"
	"time"
)

// NoWinner marks a match that ended without a winner.
const NoWinner = -1

// MatchRecord is the persisted outcome of one finished match.
type MatchRecord struct {
	ID      string    `gorm:"primaryKey" json:"id"`
	UserID1 string    `gorm:"index" json:"user_id_1"`
	UserID2 string    `gorm:"index" json:"user_id_2"`
	Score1  int       `json:"score_1"`
	Score2  int       `json:"score_2"`
	Winner  int       `json:"winner"` // 0 or 1; NoWinner when the match had no winner
	When    time.Time `json:"when"`
}

// WinnerUserID returns the winning user's id, or "" when there is none.
func (m MatchRecord) WinnerUserID() string {
	switch m.Winner {
	case 0:
		return m.UserID1
	case 1:
		return m.UserID2
	}
	return ""
}

// UserScore returns the given user's score in this match, or 0 if the user
// did not play in it.
func (m MatchRecord) UserScore(userID string) int {
	switch userID {
	case m.UserID1:
		return m.Score1
	case m.UserID2:
		return m.Score2
	}
	return 0
}

// Recorder accepts one finished-match outcome per finalized room.
type Recorder interface {
	Record(ctx context.Context, rec MatchRecord) error
}

// Store is a Recorder that can also be queried.
type Store interface {
	Recorder
	// ListByUser returns the user's match records, most recent first.
	ListByUser(ctx context.Context, userID string) ([]MatchRecord, error)
}
