package queue

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"whchecker-backend/internal/shared/metrics"
	"whchecker-backend/internal/shared/telemetry"
)

const (
	defaultLocalWorkers = 4
	defaultLocalBuffer  = 256
)

// ErrQueueClosed is returned by Send after Close.
var ErrQueueClosed = errors.New("queue closed")

// ErrQueueFull is returned when the buffer has no room.
var ErrQueueFull = errors.New("queue full")

// LocalQueue runs messages through a handler on a bounded in-process worker pool.
type LocalQueue struct {
	handler Handler
	jobs    chan Message
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	cancel context.CancelFunc
}

// NewLocalQueue starts workers goroutines that drain a buffer of the given size.
// Handlers run with a context derived from ctx.
func NewLocalQueue(ctx context.Context, handler Handler, workers, buffer int) *LocalQueue {
	if workers <= 0 {
		workers = defaultLocalWorkers
	}
	if buffer <= 0 {
		buffer = defaultLocalBuffer
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	q := &LocalQueue{
		handler: handler,
		jobs:    make(chan Message, buffer),
		cancel:  cancel,
	}
	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.work(runCtx)
	}
	return q
}

// Send enqueues msg without blocking.
func (q *LocalQueue) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to finish, or for
// ctx to end, in which case running handlers see a cancelled context.
func (q *LocalQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

func (q *LocalQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for msg := range q.jobs {
		err := q.handle(ctx, msg)
		metrics.IncQueueMessages(err != nil)
		if err != nil {
			telemetry.Error("queue.local.failed", map[string]any{
				"request_id": msg.RequestID,
				"channel":    msg.Channel,
				"error":      err.Error(),
			})
		}
	}
}

func (q *LocalQueue) handle(ctx context.Context, msg Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.Error("queue.local.panic", map[string]any{
				"request_id": msg.RequestID,
				"panic":      r,
				"stack":      string(debug.Stack()),
			})
			err = errors.New("handler panic")
		}
	}()
	return q.handler(ctx, msg)
}

var _ Client = (*LocalQueue)(nil)
