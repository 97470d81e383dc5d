package ratelimit

import (
	"context"
	"sync/atomic"
	"time"
)

const defaultStatsQueueSize = 1024

// StatsQueue hands decisions to a single recorder goroutine. When the
// queue is full the event is dropped, so a slow Redis never piles up work
// behind the request path.
type StatsQueue struct {
	rec     StatsRecorder
	events  chan Event
	timeout time.Duration
	dropped atomic.Int64
}

func NewStatsQueue(rec StatsRecorder, size int) *StatsQueue {
	if size <= 0 {
		size = defaultStatsQueueSize
	}
	return &StatsQueue{rec: rec, events: make(chan Event, size), timeout: 2 * time.Second}
}

// Offer enqueues ev without blocking and reports whether it was accepted.
func (q *StatsQueue) Offer(ev Event) bool {
	select {
	case q.events <- ev:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Dropped is the number of events discarded on a full queue.
func (q *StatsQueue) Dropped() int64 { return q.dropped.Load() }

// Run records queued events until ctx ends. onErr may be nil.
func (q *StatsQueue) Run(ctx context.Context, onErr func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-q.events:
			rctx, cancel := context.WithTimeout(ctx, q.timeout)
			err := q.rec.Record(rctx, ev)
			cancel()
			if err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

// Start runs the recorder in its own goroutine.
func (q *StatsQueue) Start(ctx context.Context, onErr func(error)) {
	go q.Run(ctx, onErr)
}
