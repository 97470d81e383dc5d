package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *memRecorder) Record(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *memRecorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestStatsQueueDropsWhenFull(t *testing.T) {
	q := NewStatsQueue(&memRecorder{}, 2)

	assert.True(t, q.Offer(Event{Class: ClassLogin}))
	assert.True(t, q.Offer(Event{Class: ClassLogin}))
	assert.False(t, q.Offer(Event{Class: ClassLogin}))
	assert.False(t, q.Offer(Event{Class: ClassLogin}))
	assert.Equal(t, int64(2), q.Dropped())
}

func TestStatsQueueRecordsInOrder(t *testing.T) {
	rec := &memRecorder{err: errors.New("redis down")}
	q := NewStatsQueue(rec, 4)

	var mu sync.Mutex
	var failures int
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx, func(error) {
		mu.Lock()
		failures++
		mu.Unlock()
	})

	require.True(t, q.Offer(Event{Method: "GET", Route: "/job/:id"}))
	require.True(t, q.Offer(Event{Method: "POST", Route: "/auth/login"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failures == 2
	}, time.Second, 5*time.Millisecond)

	got := rec.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "/job/:id", got[0].Route)
	assert.Equal(t, "/auth/login", got[1].Route)
	assert.Zero(t, q.Dropped())
}
