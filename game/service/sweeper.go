package service

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"diceduel/game/match"
)

// StartSweeper schedules a periodic job that finalizes rooms whose match
// ended more than grace ago but that no client ever tore down (for example
// both players closed their tabs after a forfeiture). Finalizing goes
// through the registry, so the outcome is still recorded exactly once.
// The returned scheduler should be shut down on server exit.
func StartSweeper(registry *match.Registry, interval, grace time.Duration) (gocron.Scheduler, error) {
	logger := log.With().Str("component", "room-sweeper").Logger()

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-grace)
			swept := 0
			for _, rm := range registry.Rooms() {
				if ended, over := rm.EndedAt(); over && ended.Before(cutoff) {
					registry.RemoveRoom(rm.ID())
					swept++
				}
			}
			if swept > 0 {
				logger.Info().Int("rooms", swept).Msg("finalized abandoned rooms")
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}
