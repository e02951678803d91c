// Package scheduler implements a small periodic task runner registering
// the library scan, daily backup, and weekly retention sweep jobs. Each
// job is re-entrant-safe (a still-running invocation is skipped rather
// than overlapped) and checks the read-only fuse before doing any work.
package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/galcurator/galcurator/pkg/logging"
	"github.com/galcurator/galcurator/pkg/recovery"
)

// Config mirrors config.Scheduler, kept separate so this package doesn't
// depend on pkg/config.
type Config struct {
	LibraryScanInterval time.Duration
	BackupAt            TimeOfDay
	RetentionSweepDay   time.Weekday
}

// TimeOfDay is a wall-clock time of day, matching the sentinel's own
// ScheduledTime shape (pkg/sentinel/scheduled.go).
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) nextFireAfter(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func nextWeekdayAfter(now time.Time, weekday time.Weekday, at TimeOfDay) time.Time {
	candidate := at.nextFireAfter(now)
	for candidate.Weekday() != weekday {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// TriggerScan invokes a library scan. Implemented by the Sentinel in
// production; a plain function here keeps the scheduler decoupled from
// the sentinel package.
type TriggerScan func() error

// BackupFunc writes a database backup. Implemented by store.Store.Backup
// in production.
type BackupFunc func(ctx context.Context) error

// Scheduler owns the three background job loops.
type Scheduler struct {
	config Config
	fuse   *recovery.Fuse
	log    *logging.Logger

	triggerScan    TriggerScan
	backup         BackupFunc
	sweepRetention func(now time.Time) error

	scanSem      *semaphore.Weighted
	backupSem    *semaphore.Weighted
	retentionSem *semaphore.Weighted
}

// New builds a Scheduler. Any of triggerScan, backup, or sweepRetention
// may be nil, in which case that job is a no-op, useful for exercising a
// subset of jobs from the CLI or tests.
func New(config Config, fuse *recovery.Fuse, log *logging.Logger, triggerScan TriggerScan, backup BackupFunc, sweepRetention func(now time.Time) error) *Scheduler {
	return &Scheduler{
		config:         config,
		fuse:           fuse,
		log:            log.Sublogger("scheduler"),
		triggerScan:    triggerScan,
		backup:         backup,
		sweepRetention: sweepRetention,
		scanSem:        semaphore.NewWeighted(1),
		backupSem:      semaphore.NewWeighted(1),
		retentionSem:   semaphore.NewWeighted(1),
	}
}

// Run blocks, running all three job loops concurrently, until ctx is
// cancelled. A LibraryScanInterval of 0 disables the scan job.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if s.config.LibraryScanInterval > 0 {
		g.Go(func() error {
			s.runInterval(ctx, "library_scan", s.config.LibraryScanInterval, s.scanSem, s.runScan)
			return nil
		})
	}
	g.Go(func() error {
		s.runDaily(ctx, "backup", s.config.BackupAt, s.backupSem, s.runBackup)
		return nil
	})
	g.Go(func() error {
		s.runWeekly(ctx, "retention_sweep", s.config.RetentionSweepDay, s.config.BackupAt, s.retentionSem, s.runRetentionSweep)
		return nil
	})

	return g.Wait()
}

// runInterval fires fn every interval, skipping overlapping invocations.
func (s *Scheduler) runInterval(ctx context.Context, name string, interval time.Duration, sem *semaphore.Weighted, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, name, sem, fn)
		}
	}
}

// runDaily fires fn once per day at TimeOfDay, skipping overlapping
// invocations.
func (s *Scheduler) runDaily(ctx context.Context, name string, at TimeOfDay, sem *semaphore.Weighted, fn func(context.Context)) {
	for {
		now := time.Now()
		next := at.nextFireAfter(now)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce(ctx, name, sem, fn)
		}
	}
}

// runWeekly fires fn once per week on weekday at TimeOfDay.
func (s *Scheduler) runWeekly(ctx context.Context, name string, weekday time.Weekday, at TimeOfDay, sem *semaphore.Weighted, fn func(context.Context)) {
	for {
		now := time.Now()
		next := nextWeekdayAfter(now, weekday, at)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce(ctx, name, sem, fn)
		}
	}
}

// runOnce acquires sem without blocking, skipping the run entirely if a
// previous invocation of the same job is still in flight, and checks the
// fuse before doing any work.
func (s *Scheduler) runOnce(ctx context.Context, name string, sem *semaphore.Weighted, fn func(context.Context)) {
	if !sem.TryAcquire(1) {
		s.log.Infof("%s still running, skipping this tick", name)
		return
	}
	defer sem.Release(1)

	if s.fuse != nil {
		if err := s.fuse.CheckWrite(); err != nil {
			s.log.Warnf("%s skipped: %v", name, err)
			return
		}
	}
	fn(ctx)
}

func (s *Scheduler) runScan(ctx context.Context) {
	if s.triggerScan == nil {
		return
	}
	if err := s.triggerScan(); err != nil {
		s.log.Warnf("library scan failed: %v", err)
	}
}

func (s *Scheduler) runBackup(ctx context.Context) {
	if s.backup == nil {
		return
	}
	if err := s.backup(ctx); err != nil {
		s.log.Warnf("backup failed: %v", err)
	}
}

func (s *Scheduler) runRetentionSweep(ctx context.Context) {
	if s.sweepRetention == nil {
		return
	}
	if err := s.sweepRetention(time.Now()); err != nil {
		s.log.Warnf("retention sweep failed: %v", err)
	}
}
