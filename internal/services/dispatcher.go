package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher runs notification and email side effects off the request path.
// Core writes (complaint rows, activity logs) happen synchronously in the
// services; anything whose failure must not fail the request goes through
// here. Enqueue never blocks: when the queue is full the task is dropped and
// logged, not retried.
type Dispatcher interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(name string, fn func(ctx context.Context)) bool
}

type task struct {
	name string
	fn   func(ctx context.Context)
}

type dispatcher struct {
	log      zerolog.Logger
	tasks    chan task
	stopChan chan struct{}
	done     chan struct{}
	timeout  time.Duration
	running  bool
}

func NewDispatcher(log zerolog.Logger, queueSize int) Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &dispatcher{
		log:      log.With().Str("component", "dispatcher").Logger(),
		tasks:    make(chan task, queueSize),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		timeout:  30 * time.Second,
	}
}

func (d *dispatcher) Start(ctx context.Context) {
	if d.running {
		return
	}
	d.running = true

	go func() {
		defer close(d.done)
		for {
			select {
			case t := <-d.tasks:
				d.run(ctx, t)
			case <-d.stopChan:
				// Drain what is already queued before exiting.
				for {
					select {
					case t := <-d.tasks:
						d.run(ctx, t)
					default:
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (d *dispatcher) Stop() {
	if !d.running {
		return
	}
	d.running = false
	close(d.stopChan)
	<-d.done
}

func (d *dispatcher) Enqueue(name string, fn func(ctx context.Context)) bool {
	select {
	case d.tasks <- task{name: name, fn: fn}:
		return true
	default:
		d.log.Warn().Str("task", name).Msg("side-effect queue full, dropping task")
		return false
	}
}

func (d *dispatcher) run(ctx context.Context, t task) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("task", t.name).Interface("panic", r).Msg("side-effect task panicked")
		}
	}()

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	t.fn(taskCtx)
}
