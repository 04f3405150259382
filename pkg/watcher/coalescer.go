package watcher

import (
	"time"

	"github.com/arthur-debert/unisync/pkg/types"
)

// Event is one coalesced filesystem notification.
type Event struct {
	Path string
	Kind types.EventKind
	Time time.Time
}

type pendingEvent struct {
	kind    types.EventKind
	last    time.Time
	created bool
}

// coalescer collapses a burst of raw events per path into a single
// notification once the path has been quiet for the configured window.
// It owns no timers; the watcher loop drives it by calling Flush.
type coalescer struct {
	window  time.Duration
	pending map[string]*pendingEvent
}

func newCoalescer(window time.Duration) *coalescer {
	return &coalescer{
		window:  window,
		pending: make(map[string]*pendingEvent),
	}
}

// Add records a raw event. The latest kind wins, with two exceptions:
// a create followed by modifications is still a create, and a create
// followed by a delete within the window cancels out entirely.
func (c *coalescer) Add(path string, kind types.EventKind, at time.Time) {
	p, ok := c.pending[path]
	if !ok {
		c.pending[path] = &pendingEvent{
			kind:    kind,
			last:    at,
			created: kind == types.EventCreated,
		}
		return
	}

	p.last = at
	switch {
	case p.created && kind == types.EventDeleted:
		delete(c.pending, path)
	case p.created && kind == types.EventModified:
		// still a create; the file was just written in pieces
	default:
		p.kind = kind
		if kind == types.EventCreated {
			p.created = true
		}
	}
}

// Flush returns every pending event whose quiet window has elapsed as
// of now, removing them from the pending set.
func (c *coalescer) Flush(now time.Time) []Event {
	var out []Event
	for path, p := range c.pending {
		if now.Sub(p.last) >= c.window {
			out = append(out, Event{Path: path, Kind: p.kind, Time: p.last})
			delete(c.pending, path)
		}
	}
	return out
}

// Len returns the number of paths still waiting out their window.
func (c *coalescer) Len() int {
	return len(c.pending)
}
