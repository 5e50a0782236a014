package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type job struct {
	name    string
	run     func(ctx context.Context) error
	barrier chan struct{}
}

// worker runs collaborator calls in submission order off the event loop. A
// failed call is retried, then logged and dropped.
type worker struct {
	name    string
	jobs    chan job
	timeout time.Duration
	retries int
	log     *zap.Logger
	done    chan struct{}
}

func newWorker(name string, size int, timeout time.Duration, retries int, log *zap.Logger) *worker {
	return &worker{
		name:    name,
		jobs:    make(chan job, size),
		timeout: timeout,
		retries: retries,
		log:     log.With(zap.String("worker", name)),
		done:    make(chan struct{}),
	}
}

// submit never blocks the caller. When the queue is full the job runs on its
// own goroutine and loses its ordering guarantee.
func (w *worker) submit(name string, fn func(ctx context.Context) error) {
	j := job{name: name, run: fn}
	select {
	case w.jobs <- j:
	default:
		w.log.Warn("job queue full, running out of order", zap.String("job", name))
		go w.exec(j)
	}
}

// flush waits until every job submitted before the call has run.
func (w *worker) flush(ctx context.Context) error {
	b := make(chan struct{})
	select {
	case w.jobs <- job{name: "flush", barrier: b}:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrClosed
	}
	select {
	case <-b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrClosed
	}
}

func (w *worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case j := <-w.jobs:
			w.exec(j)
		case <-ctx.Done():
			w.drain()
			return
		}
	}
}

func (w *worker) drain() {
	for {
		select {
		case j := <-w.jobs:
			w.exec(j)
		default:
			return
		}
	}
}

func (w *worker) exec(j job) {
	if j.barrier != nil {
		close(j.barrier)
		return
	}
	var err error
	for attempt := 0; attempt <= w.retries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err = j.run(ctx)
		cancel()
		if err == nil {
			return
		}
		w.log.Warn("job failed", zap.String("job", j.name), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	w.log.Error("giving up on job", zap.String("job", j.name), zap.Error(err))
}
