package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DueSource lists sessions whose fulfillment should be attempted now.
type DueSource interface {
	DueSessionIDs(ctx context.Context, limit int) ([]string, error)
}

// Publisher queues one fulfillment job.
type Publisher interface {
	Publish(ctx context.Context, sessionID string) error
}

// Relay periodically re-queues pending fulfillments whose retry time has come.
type Relay struct {
	source   DueSource
	jobs     Publisher
	interval time.Duration
	batch    int
	log      *zap.Logger
}

func NewRelay(source DueSource, jobs Publisher, interval time.Duration, batch int, logger *zap.Logger) *Relay {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if batch < 1 {
		batch = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		source:   source,
		jobs:     jobs,
		interval: interval,
		batch:    batch,
		log:      logger.With(zap.String("component", "relay")),
	}
}

// Run ticks until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	r.log.Info("relay_started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay_stopped")
			return
		case <-t.C:
			r.Tick(ctx)
		}
	}
}

// Tick publishes one batch of due sessions and returns how many were queued.
func (r *Relay) Tick(ctx context.Context) int {
	ids, err := r.source.DueSessionIDs(ctx, r.batch)
	if err != nil {
		r.log.Warn("relay_due_query_failed", zap.Error(err))
		return 0
	}
	queued := 0
	for _, id := range ids {
		if err := r.jobs.Publish(ctx, id); err != nil {
			r.log.Warn("relay_publish_failed", zap.String("session_id", id), zap.Error(err))
			continue
		}
		queued++
	}
	if queued > 0 {
		r.log.Info("relay_requeued", zap.Int("count", queued))
	}
	return queued
}
