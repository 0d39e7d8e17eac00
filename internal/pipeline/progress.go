package pipeline

import (
	"sync"

	"reaper-video-fx/internal/domain"
)

// ProgressSink receives coarse progress notifications. Implementations must not block.
type ProgressSink interface {
	Progress(event domain.ProgressEvent)
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(event domain.ProgressEvent)

// Progress calls f.
func (f SinkFunc) Progress(event domain.ProgressEvent) {
	f(event)
}

// ChannelSink forwards events to a channel and drops them when it is full.
type ChannelSink chan domain.ProgressEvent

// Progress performs a non-blocking send.
func (c ChannelSink) Progress(event domain.ProgressEvent) {
	select {
	case c <- event:
	default:
	}
}

// MultiSink fans events out to every non-nil sink.
type MultiSink []ProgressSink

// Progress delivers event to each sink in order.
func (m MultiSink) Progress(event domain.ProgressEvent) {
	for _, sink := range m {
		if sink != nil {
			sink.Progress(event)
		}
	}
}

// Recorder collects events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

// Progress appends event.
func (r *Recorder) Progress(event domain.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []domain.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ProgressEvent(nil), r.events...)
}

// Percents returns the recorded percentages in order.
func (r *Recorder) Percents() []int {
	events := r.Events()
	out := make([]int, 0, len(events))
	for _, e := range events {
		out = append(out, e.Percent)
	}
	return out
}
