package jobs

import (
	"sort"
	"sync"
	"time"

	"reaper-video-fx/internal/domain"
)

// EventType classifies messages emitted during job execution.
type EventType string

const (
	EventTypeStatus   EventType = "status"
	EventTypeProgress EventType = "progress"
	EventTypeResult   EventType = "result"
	EventTypeError    EventType = "error"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq        int64            `json:"seq"`
	Timestamp  time.Time        `json:"timestamp"`
	JobID      string           `json:"jobId"`
	Type       EventType        `json:"type"`
	Status     domain.JobStatus `json:"status,omitempty"`
	Message    string           `json:"message,omitempty"`
	Step       string           `json:"step,omitempty"`
	Percent    int              `json:"percent,omitempty"`
	Stage      string           `json:"stage,omitempty"`
	OutputPath string           `json:"outputPath,omitempty"`
}

// EventBus keeps a bounded, sequence-ordered history of job events so a UI
// that missed runtime pushes can catch up by polling.
type EventBus struct {
	mu      sync.RWMutex
	lastSeq int64
	limit   int
	history []Event
	now     func() time.Time
}

// NewEventBus creates a bus holding at most limit events; limit <= 0 means 500.
func NewEventBus(limit int) *EventBus {
	if limit <= 0 {
		limit = 500
	}
	return &EventBus{
		limit:   limit,
		history: make([]Event, 0, limit),
		now:     time.Now,
	}
}

// Publish stamps event with the next sequence number and records it.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeq++
	event.Seq = b.lastSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now().UTC()
	}

	if len(b.history) == b.limit {
		copy(b.history, b.history[1:])
		b.history[len(b.history)-1] = event
	} else {
		b.history = append(b.history, event)
	}
	return event
}

// Since returns the retained events whose sequence is greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := sort.Search(len(b.history), func(i int) bool { return b.history[i].Seq > seq })
	if i == len(b.history) {
		return nil
	}
	return append([]Event(nil), b.history[i:]...)
}

// LastSeq returns the sequence number of the newest event, or 0.
func (b *EventBus) LastSeq() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastSeq
}
