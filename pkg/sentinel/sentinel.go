// Package sentinel implements a noise-resilient filesystem observer: a
// multi-mode watcher that funnels raw filesystem events through a
// stability tracker and an event coalescer before handing a
// deduplicated list of directories to a callback.
package sentinel

import (
	"context"
	"sync"
	"time"

	"github.com/galcurator/galcurator/pkg/kinds"
	"github.com/galcurator/galcurator/pkg/logging"
	"github.com/galcurator/galcurator/pkg/sentinel/coalescer"
	"github.com/galcurator/galcurator/pkg/sentinel/stability"
)

// eventKind is the internal classification of a raw filesystem event,
// shared by the realtime and polling backends.
type eventKind uint8

const (
	eventCreated eventKind = iota
	eventModified
	eventDeleted
)

// ScanCallback is invoked with the set of directories that should be
// (re)examined. Sentinel performs no database writes itself; it is the
// caller's responsibility to feed these into the candidate detector and
// cluster engine.
type ScanCallback func(dirs []string)

// Config controls Sentinel's behavior.
type Config struct {
	Roots             []string
	Mode              kinds.WatchMode
	StabilityInterval time.Duration
	PollInterval      time.Duration
	ScheduledAt       ScheduledTime
	Callback          ScanCallback
	Logger            *logging.Logger
}

// Sentinel drives a single active watch mode (realtime, scheduled, or
// manual) across a set of roots, funneling every observed change through
// a StabilityTracker and an EventCoalescer before invoking Config.Callback.
type Sentinel struct {
	config Config
	log    *logging.Logger

	tracker   *stability.Tracker
	coalescer *coalescer.Coalescer

	mu      sync.Mutex
	mode    kinds.WatchMode
	cancel  context.CancelFunc
	running bool
}

// New creates a Sentinel in the configured mode. It does not start any
// background work; call Start for that.
func New(config Config) *Sentinel {
	if config.StabilityInterval <= 0 {
		config.StabilityInterval = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = logging.RootLogger.Sublogger("sentinel")
	}

	s := &Sentinel{
		config: config,
		log:    config.Logger,
		mode:   config.Mode,
	}
	s.tracker = stability.New()
	s.coalescer = coalescer.New(s.emit)
	return s
}

// emit is the coalescer callback: it forwards the coalesced parent
// directories to the configured ScanCallback.
func (s *Sentinel) emit(dirs []string) {
	if s.config.Callback != nil {
		s.config.Callback(dirs)
	}
}

// handleRawEvent is the entry point for both the realtime and polling
// backends. Deleted paths skip the stability tracker entirely (there is
// nothing left to debounce) and go straight to the coalescer; created and
// modified paths are tracked and only coalesced once CheckStability
// reports them quiescent.
func (s *Sentinel) handleRawEvent(path string, kind eventKind) {
	if kind == eventDeleted {
		s.coalescer.Add(path)
		return
	}

	sk := stability.KindModified
	if kind == eventCreated {
		sk = stability.KindCreated
	}
	if _, ok := s.tracker.Track(path, sk); !ok {
		// Stat failed (e.g. a raced deletion); nothing to debounce.
		s.coalescer.Add(path)
	}
}

// stabilityLoop periodically checks the tracker and forwards newly
// stabilized paths into the coalescer.
func (s *Sentinel) stabilityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.StabilityInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, event := range s.tracker.CheckStability(now) {
				s.coalescer.Add(event.Path)
			}
		}
	}
}

// Start begins background work appropriate to the configured mode. It is
// a no-op in manual mode.
func (s *Sentinel) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	go s.coalescer.Run(runCtx)
	go s.stabilityLoop(runCtx)

	switch s.mode {
	case kinds.WatchModeRealtime:
		s.startRealtime(runCtx)
	case kinds.WatchModeScheduled:
		go s.runScheduled(runCtx)
	case kinds.WatchModeManual:
		// No background scanning; trigger_scan() drives work explicitly.
	default:
		s.log.Warnf("sentinel started with unsupported mode %s, defaulting to manual", s.mode)
	}

	return nil
}

// startRealtime attempts the native watcher and transparently falls back
// to the polling watcher if initialization fails.
func (s *Sentinel) startRealtime(ctx context.Context) {
	watcher, err := newRealtimeWatcher(s.config.Roots, s.handleRawEvent, s.log)
	if err != nil {
		s.log.Warnf("realtime watch initialization failed, falling back to polling: %v", err)
		p := newPoller(s.config.Roots, s.config.PollInterval, s.handleRawEvent)
		go p.run(ctx)
		return
	}
	go watcher.run(ctx)
}

// Stop halts all background work. The Sentinel may be restarted with
// Start afterward.
func (s *Sentinel) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.running = false
}

// Configure switches the active mode. It is safe to call at any time,
// including while running; the Sentinel restarts its background work
// under the new mode.
func (s *Sentinel) Configure(mode kinds.WatchMode) error {
	s.mu.Lock()
	wasRunning := s.running
	if wasRunning {
		s.cancel()
		s.running = false
	}
	s.mode = mode
	s.mu.Unlock()

	if wasRunning {
		return s.Start(context.Background())
	}
	return nil
}

// TriggerScan performs a one-shot full scan across all configured roots
// and invokes Config.Callback directly with the result, bypassing the
// stability tracker and coalescer since a manual trigger implies the
// caller already believes the filesystem is settled.
func (s *Sentinel) TriggerScan() error {
	dirs, err := FullScan(s.config.Roots)
	if err != nil {
		return err
	}
	if s.config.Callback != nil {
		s.config.Callback(dirs)
	}
	return nil
}

// Mode reports the currently configured mode.
func (s *Sentinel) Mode() kinds.WatchMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}
