package sentinel

import (
	"context"
	"time"
)

// ScheduledTime is a wall-clock time of day, in the process's local time
// zone, at which scheduled mode fires its daily full scan.
type ScheduledTime struct {
	Hour   int
	Minute int
}

// nextFireAfter returns the next occurrence of t at or after now.
func (t ScheduledTime) nextFireAfter(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// runScheduled blocks, firing a full scan once every 24 hours at
// Config.ScheduledAt, until ctx is cancelled.
func (s *Sentinel) runScheduled(ctx context.Context) {
	for {
		now := time.Now()
		next := s.config.ScheduledAt.nextFireAfter(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			if err := s.TriggerScan(); err != nil {
				s.log.Warnf("scheduled full scan failed: %v", err)
			}
		}
	}
}
