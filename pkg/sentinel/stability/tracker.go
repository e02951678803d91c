// Package stability implements a per-path debounce tracker: a file is
// considered stable once its size and mtime have held steady for at
// least a threshold duration.
package stability

import (
	"os"
	"sync"
	"time"
)

// Kind is the type of filesystem event observed for a path.
type Kind uint8

const (
	KindCreated Kind = iota
	KindModified
	KindDeleted
)

// Event is the in-memory record tracked per path.
type Event struct {
	Path         string
	Kind         Kind
	InitialSize  int64
	InitialMtime time.Time
	FirstSeen    time.Time
}

// Tracker holds {path -> Event} and answers stability queries. It is safe
// for concurrent use.
type Tracker struct {
	// Threshold is the minimum quiescence duration required before a
	// tracked path is reported stable. Defaults to 45 seconds, chosen so
	// large copy/unpack sessions on NAS or Docker bind-mounts quiesce
	// before triggering work.
	Threshold time.Duration

	mu     sync.Mutex
	events map[string]Event

	// now is overridable for deterministic tests; defaults to time.Now.
	now func() time.Time
}

// DefaultThreshold is the quiescence duration applied when none is configured.
const DefaultThreshold = 45 * time.Second

// New creates a Tracker with DefaultThreshold.
func New() *Tracker {
	return &Tracker{Threshold: DefaultThreshold, events: make(map[string]Event), now: time.Now}
}

// Track registers path as observed with the given kind. It is idempotent:
// a second call for a path already being tracked returns the existing
// event unchanged. Deleted-kind events are refused since there's nothing
// left to watch for stabilization.
func (t *Tracker) Track(path string, kind Kind) (Event, bool) {
	if kind == KindDeleted {
		return Event{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.events[path]; ok {
		return existing, true
	}

	info, err := os.Stat(path)
	if err != nil {
		return Event{}, false
	}

	event := Event{
		Path:         path,
		Kind:         kind,
		InitialSize:  info.Size(),
		InitialMtime: info.ModTime(),
		FirstSeen:    t.now(),
	}
	t.events[path] = event
	return event, true
}

// CheckStability returns and removes every tracked event whose path has
// been quiescent (unchanged size and mtime, and still exists) for at
// least Threshold as of now.
func (t *Tracker) CheckStability(now time.Time) []Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	var stable []Event
	for path, event := range t.events {
		if now.Sub(event.FirstSeen) < t.Threshold {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			// Path vanished mid-window; drop tracking but don't report
			// stability for something that no longer exists.
			delete(t.events, path)
			continue
		}

		if info.Size() == event.InitialSize && info.ModTime().Equal(event.InitialMtime) {
			stable = append(stable, event)
			delete(t.events, path)
		} else {
			// Still changing: refresh the baseline so the debounce window
			// restarts from the latest observed state.
			event.InitialSize = info.Size()
			event.InitialMtime = info.ModTime()
			event.FirstSeen = now
			t.events[path] = event
		}
	}
	return stable
}

// Len reports how many paths are currently being tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}
