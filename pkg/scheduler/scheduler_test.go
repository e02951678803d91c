package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/galcurator/galcurator/pkg/logging"
	"github.com/galcurator/galcurator/pkg/recovery"
)

func TestLibraryScanRunsOnIntervalAndSkipsOverlap(t *testing.T) {
	var calls int32
	slowScan := func() error {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return nil
	}

	s := New(Config{
		LibraryScanInterval: 10 * time.Millisecond,
		BackupAt:            TimeOfDay{Hour: 25, Minute: 0}, // never fires within the test
		RetentionSweepDay:   time.Sunday,
	}, nil, logging.RootLogger, slowScan, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	got := atomic.LoadInt32(&calls)
	if got < 1 || got > 4 {
		t.Fatalf("expected a small number of non-overlapping scans, got %d", got)
	}
}

func TestJobsAreSkippedWhenFuseTripped(t *testing.T) {
	var calls int32
	scan := func() error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	fuse := &recovery.Fuse{}
	fuse.Trip("simulated corruption")

	s := New(Config{
		LibraryScanInterval: 10 * time.Millisecond,
		BackupAt:            TimeOfDay{Hour: 25, Minute: 0},
		RetentionSweepDay:   time.Sunday,
	}, fuse, logging.RootLogger, scan, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected scan to be skipped while the fuse is tripped, got %d calls", calls)
	}
}

func TestNextFireAfterRollsOverToNextDay(t *testing.T) {
	at := TimeOfDay{Hour: 3, Minute: 0}
	now := time.Date(2026, 1, 1, 4, 0, 0, 0, time.UTC)

	next := at.nextFireAfter(now)
	if next.Day() != 2 || next.Hour() != 3 {
		t.Fatalf("expected next fire on day 2 at 03:00, got %v", next)
	}
}

func TestNextWeekdayAfterFindsTheRequestedWeekday(t *testing.T) {
	at := TimeOfDay{Hour: 3, Minute: 0}
	now := time.Date(2026, 1, 1, 4, 0, 0, 0, time.UTC) // a Thursday

	next := nextWeekdayAfter(now, time.Sunday, at)
	if next.Weekday() != time.Sunday {
		t.Fatalf("expected next occurrence to land on Sunday, got %v", next.Weekday())
	}
	if !next.After(now) {
		t.Fatalf("expected next occurrence to be in the future, got %v", next)
	}
}
