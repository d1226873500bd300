package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsQueuedTasks(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 8)
	d.Start(context.Background())

	var ran atomic.Int32
	done := make(chan struct{})
	require.True(t, d.Enqueue("a", func(context.Context) { ran.Add(1) }))
	require.True(t, d.Enqueue("b", func(context.Context) {
		ran.Add(1)
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tasks did not run")
	}
	d.Stop()
	assert.Equal(t, int32(2), ran.Load())
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 1)
	// Not started: nothing drains the queue.

	assert.True(t, d.Enqueue("fits", func(context.Context) {}))
	assert.False(t, d.Enqueue("dropped", func(context.Context) {}), "full queue drops instead of blocking")
}

func TestDispatcherStopDrainsQueue(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 8)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.True(t, d.Enqueue("n", func(context.Context) { ran.Add(1) }))
	}

	d.Start(context.Background())
	d.Stop() // Stop blocks until queued tasks finish.
	assert.Equal(t, int32(5), ran.Load())
}

func TestDispatcherSurvivesPanickingTask(t *testing.T) {
	d := NewDispatcher(zerolog.Nop(), 8)
	d.Start(context.Background())

	done := make(chan struct{})
	require.True(t, d.Enqueue("boom", func(context.Context) { panic("boom") }))
	require.True(t, d.Enqueue("after", func(context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not survive a panicking task")
	}
	d.Stop()
}
