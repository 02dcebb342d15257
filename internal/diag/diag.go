// Package diag collects diagnostic events emitted while compiling and
// executing traversals.
package diag

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event names, hierarchical like "area/what".
const (
	CompileSkipped   = "compile/skipped"
	CompileCompleted = "compile/completed"
	CompileFailed    = "compile/failed"
	StoreFlushed     = "store/flushed"
	ExecEagerLoaded  = "exec/eager.loaded"
)

// Event is one diagnostic occurrence. Seq orders events within a collector.
type Event struct {
	Name    string
	Seq     int64
	Start   time.Time
	End     time.Time
	Latency time.Duration
	Data    map[string]any
}

// Handler processes events as they are added.
type Handler func(event Event)

// Sequencer hands out increasing sequence numbers.
type Sequencer interface {
	Next() int64
}

type counter struct {
	seq atomic.Int64
}

func (c *counter) Next() int64 {
	return c.seq.Add(1)
}

// Collector records events and forwards each to an optional handler.
type Collector struct {
	handler Handler
	seq     Sequencer
	now     func() time.Time

	mu     sync.Mutex
	events []Event
}

// Option configures a Collector.
type Option func(*Collector)

// WithSequencer replaces the default sequence counter.
func WithSequencer(s Sequencer) Option {
	return func(c *Collector) {
		c.seq = s
	}
}

// WithNow replaces the wall clock used by AddTiming.
func WithNow(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

// NewCollector creates a collector. handler may be nil.
func NewCollector(handler Handler, opts ...Option) *Collector {
	c := &Collector{
		handler: handler,
		seq:     &counter{},
		now:     time.Now,
		events:  make([]Event, 0, 16),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add records an event, stamping its sequence number.
func (c *Collector) Add(event Event) {
	c.mu.Lock()
	event.Seq = c.seq.Next()
	c.events = append(c.events, event)
	c.mu.Unlock()

	// Handler runs outside the lock so it may call back into the collector.
	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records an event that started at start and ends now.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]any) {
	end := c.now()
	c.Add(Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	})
}

// Now returns the collector's notion of the current time.
func (c *Collector) Now() time.Time {
	return c.now()
}

// Events returns a copy of the recorded events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Named returns the recorded events with the given name.
func (c *Collector) Named(name string) []Event {
	var out []Event
	for _, e := range c.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards recorded events.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}
