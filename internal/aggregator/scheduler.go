package aggregator

import (
	"context"
	"time"

	"github.com/chunyu/logs2weekly-go/internal/logging"
)

// CycleStats summarizes one scheduled aggregation cycle.
type CycleStats struct {
	Users     int
	Summaries int
	NoOps     int
	Failures  int
	Duration  time.Duration
}

// Notifier receives the digest after each scheduled cycle. Optional.
type Notifier interface {
	SendDailyDigest(stats CycleStats) error
}

// Scheduler owns the daily wait-compute-run loop. It is started once from
// process init and stops when its context is cancelled; it is never
// restarted after cancellation.
type Scheduler struct {
	agg      *Aggregator
	hour     int // local wall-clock hour of the daily run
	log      *logging.SecureLogger
	notifier Notifier // nil when digests are disabled
}

// NewScheduler creates the daily scheduler.
func NewScheduler(agg *Aggregator, hour int, log *logging.SecureLogger, notifier Notifier) *Scheduler {
	return &Scheduler{
		agg:      agg,
		hour:     hour,
		log:      log,
		notifier: notifier,
	}
}

// NextRunAt computes the next occurrence of the daily run time, strictly in
// the future. At 19:00 with an 18:00 target the next run is 18:00 tomorrow.
func NextRunAt(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run executes the scheduling loop until ctx is cancelled. The only
// suspension point is the wait for the next run time; cancellation during
// the wait returns immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		next := NextRunAt(s.agg.now(), s.hour)
		s.log.Info().Str("next_run", next.Format(time.RFC3339)).Msg("Aggregation scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("Aggregation scheduler stopped")
			return nil
		case <-timer.C:
		}

		stats := s.runCycle(ctx)

		if s.notifier != nil {
			if err := s.notifier.SendDailyDigest(stats); err != nil {
				s.log.Warn().Err(err).Msg("Failed to send daily digest")
			}
		}
	}
}

// runCycle aggregates every configured user sequentially. A single user's
// failure never aborts the batch; failed runs get no retry until the next
// cycle or a manual trigger.
func (s *Scheduler) runCycle(ctx context.Context) CycleStats {
	start := s.agg.now()
	stats := CycleStats{}

	userIDs, err := s.agg.gw.ConfiguredUserIDs()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to enumerate configured users")
		stats.Duration = s.agg.now().Sub(start)
		return stats
	}

	stats.Users = len(userIDs)
	s.log.Info().Int("users", len(userIDs)).Msg("Starting daily aggregation cycle")

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}

		result, err := s.agg.RunForUser(ctx, userID)
		switch {
		case err != nil:
			stats.Failures++
			s.log.Error().Int64("user_id", userID).Err(err).Msg("Aggregation run failed")
		case result.NoOp:
			stats.NoOps++
			s.log.Debug().Int64("user_id", userID).Str("reason", result.Message).Msg("Aggregation no-op")
		default:
			stats.Summaries++
			s.log.Info().
				Int64("user_id", userID).
				Int64("summary_id", result.SummaryID).
				Int("consumed", result.Consumed).
				Msg("Aggregation run completed")
		}
	}

	stats.Duration = s.agg.now().Sub(start)
	s.log.Info().
		Int("summaries", stats.Summaries).
		Int("noops", stats.NoOps).
		Int("failures", stats.Failures).
		Msg("Daily aggregation cycle finished")

	return stats
}
