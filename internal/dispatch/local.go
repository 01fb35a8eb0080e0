package dispatch

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"cybertronic/internal/logging"

	"go.uber.org/zap"
)

// Handler processes the fulfillment of one session.
type Handler func(ctx context.Context, sessionID string) error

var ErrQueueFull = errors.New("fulfillment queue is full")

// JobTimeout bounds the processing of one job.
const JobTimeout = 2 * time.Minute

// LocalQueue runs fulfillment jobs on in-process workers. Jobs lost on shutdown are
// picked up again by the relay because the records they refer to stay pending.
type LocalQueue struct {
	jobs      chan string
	workers   int
	log       *zap.Logger
	wg        sync.WaitGroup
	startOnce sync.Once
}

func NewLocalQueue(workers, buffer int, logger *zap.Logger) *LocalQueue {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalQueue{
		jobs:    make(chan string, buffer),
		workers: workers,
		log:     logger.With(zap.String("component", "local_queue")),
	}
}

// Publish enqueues without blocking; a full buffer is reported as ErrQueueFull.
func (q *LocalQueue) Publish(ctx context.Context, sessionID string) error {
	select {
	case q.jobs <- sessionID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. They stop when ctx is done; Wait blocks until they have.
func (q *LocalQueue) Start(ctx context.Context, h Handler) {
	q.startOnce.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func() {
				defer q.wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case id := <-q.jobs:
						q.run(ctx, h, id)
					}
				}
			}()
		}
		q.log.Info("local_queue_started", zap.Int("workers", q.workers))
	})
}

// Wait blocks until every worker has returned.
func (q *LocalQueue) Wait() { q.wg.Wait() }

func (q *LocalQueue) run(ctx context.Context, h Handler, sessionID string) {
	logger := q.log.With(zap.String("session_id", sessionID))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("fulfillment_job_panic",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
		}
	}()

	// In-flight jobs finish even when shutdown has begun.
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), JobTimeout)
	defer cancel()
	jobCtx = logging.ContextWithLogger(jobCtx, logger)

	if err := h(jobCtx, sessionID); err != nil {
		logger.Warn("fulfillment_job_error", zap.Error(err))
	}
}
