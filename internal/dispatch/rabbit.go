package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"cybertronic/internal/logging"
	"cybertronic/pkg/rabbitmq"

	"go.uber.org/zap"
)

// FulfillmentQueue is the durable queue carrying fulfillment jobs.
const FulfillmentQueue = "fulfillment_queue"

// Broker is the part of the RabbitMQ client the queue needs.
type Broker interface {
	Publish(queue string, body []byte) error
	Consume(ctx context.Context, queue string, handler rabbitmq.Handler) error
}

type job struct {
	SessionID string `json:"session_id"`
}

// RabbitQueue carries fulfillment jobs through RabbitMQ so any instance can process them.
type RabbitQueue struct {
	broker Broker
	queue  string
	log    *zap.Logger
}

func NewRabbitQueue(broker Broker, queue string, logger *zap.Logger) *RabbitQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RabbitQueue{
		broker: broker,
		queue:  queue,
		log:    logger.With(zap.String("component", "rabbit_queue")),
	}
}

func (q *RabbitQueue) Publish(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(job{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("encode fulfillment job: %w", err)
	}
	return q.broker.Publish(q.queue, body)
}

// Start consumes jobs until ctx is done. Failed jobs are not requeued; the relay retries them
// once their backoff has elapsed.
func (q *RabbitQueue) Start(ctx context.Context, h Handler) error {
	return q.broker.Consume(ctx, q.queue, func(ctx context.Context, body []byte) (err error) {
		var j job
		if err := json.Unmarshal(body, &j); err != nil || j.SessionID == "" {
			q.log.Error("fulfillment_job_malformed", zap.ByteString("body", body))
			return nil
		}

		logger := q.log.With(zap.String("session_id", j.SessionID))
		defer func() {
			if r := recover(); r != nil {
				logger.Error("fulfillment_job_panic", zap.Any("panic", r), zap.String("stack", string(debug.Stack())))
				err = fmt.Errorf("fulfillment job panicked: %v", r)
			}
		}()

		jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), JobTimeout)
		defer cancel()
		return h(logging.ContextWithLogger(jobCtx, logger), j.SessionID)
	})
}
