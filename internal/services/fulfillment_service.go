package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"cybertronic/internal/logging"
	"cybertronic/internal/metrics"
	"cybertronic/internal/models"
	"cybertronic/internal/payments"
	"cybertronic/internal/repositories"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Fulfillment steps.
const (
	StepOrder   = "order"
	StepStock   = "stock"
	StepReceipt = "receipt"
)

// AllSteps is every side effect owed to a paid session, in execution order.
var AllSteps = []string{StepOrder, StepStock, StepReceipt}

var ErrFulfillmentNotFailed = errors.New("fulfillment is not in failed state")

const (
	maxRetryBackoff       = 10 * time.Minute
	defaultRelayLease     = time.Minute
	sessionLockStripes    = 64
	tracerInstrumentation = "cybertronic/fulfillment"
)

// FulfillmentConfig bounds retries.
type FulfillmentConfig struct {
	MaxAttempts int
	RetryBase   time.Duration
	// RelayLease is how long a row handed to the relay stays invisible to the next relay tick.
	RelayLease time.Duration
}

// FulfillmentService carries out the side effects of paid sessions from their durable record.
// Each step is tracked separately so a retry only runs what is still owed.
type FulfillmentService struct {
	repo     repositories.FulfillmentRepository
	orders   OrderRecorder
	stock    StockReconciler
	receipts ReceiptSender
	jobs     FulfillmentJobs
	cfg      FulfillmentConfig
	metrics  *metrics.Metrics
	log      *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
	// Serializes processing of one session within this process.
	// TODO: claim rows with a lease column before processing so two instances cannot send the same receipt.
	locks [sessionLockStripes]sync.Mutex
}

func NewFulfillmentService(
	repo repositories.FulfillmentRepository,
	orders OrderRecorder,
	stock StockReconciler,
	receipts ReceiptSender,
	jobs FulfillmentJobs,
	cfg FulfillmentConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *FulfillmentService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	if cfg.RelayLease <= 0 {
		cfg.RelayLease = defaultRelayLease
	}
	return &FulfillmentService{
		repo:     repo,
		orders:   orders,
		stock:    stock,
		receipts: receipts,
		jobs:     jobs,
		cfg:      cfg,
		metrics:  m,
		log:      logger,
		tracer:   otel.Tracer(tracerInstrumentation),
		now:      time.Now,
	}
}

// Record stores the pending side effects of a completed session and queues them.
// created is false when the session was already recorded.
func (s *FulfillmentService) Record(ctx context.Context, eventID string, cs models.CompletedSession) (bool, error) {
	now := s.now()
	f := &models.Fulfillment{
		SessionID: cs.ID,
		EventID:   eventID,
		Session:   cs,
		Status:    models.FulfillmentPending,
		// The job published below normally handles it first; the relay only steps in after the lease.
		NextAttemptAt: now.Add(s.cfg.RelayLease),
	}
	created, err := s.repo.CreateIfAbsent(ctx, f)
	if err != nil {
		return false, err
	}

	logger := logging.FromContext(ctx, s.log).With(zap.String("session_id", cs.ID), zap.String("event_id", eventID))
	if !created {
		logger.Info("fulfillment_already_recorded")
		return false, nil
	}
	logger.Info("fulfillment_recorded")
	s.enqueue(ctx, cs.ID)
	return true, nil
}

// Process runs every step still owed to the session.
func (s *FulfillmentService) Process(ctx context.Context, sessionID string) error {
	_, err := s.ProcessSteps(ctx, sessionID, AllSteps...)
	return err
}

// ProcessSteps runs the given steps that are not yet done and settles the record: completed when
// nothing is owed anymore, rescheduled with backoff after a failure, failed once attempts run out.
// Records that are not pending are returned untouched.
func (s *FulfillmentService) ProcessSteps(ctx context.Context, sessionID string, steps ...string) (*models.Fulfillment, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	f, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if f.Status != models.FulfillmentPending {
		return f, nil
	}

	ctx, span := s.tracer.Start(ctx, "fulfillment.process", trace.WithAttributes(
		attribute.String("session_id", sessionID),
		attribute.Int("attempt", f.Attempts+1),
	))
	defer span.End()

	logger := logging.FromContext(ctx, s.log).With(zap.String("session_id", sessionID))
	ctx = logging.ContextWithLogger(ctx, logger)

	lines, cartErr := payments.DecodeCart(f.Session.Metadata)
	if cartErr != nil {
		logger.Error("cart_metadata_invalid", zap.Error(cartErr))
	}

	var errs []error
	for _, step := range steps {
		if stepDone(f, step) {
			continue
		}
		if err := s.runStep(ctx, f, step, lines, cartErr); err != nil {
			logger.Warn("fulfillment_step_failed", zap.String("step", step), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", step, err))
			continue
		}
		markDone(f, step)
		if err := s.repo.Save(ctx, f); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
			return f, err
		}
	}

	stepErr := errors.Join(errs...)
	if stepErr != nil {
		span.RecordError(stepErr)
		span.SetStatus(codes.Error, "step failed")
	}
	if err := s.settle(ctx, f, stepErr); err != nil {
		return f, errors.Join(stepErr, err)
	}
	return f, stepErr
}

func (s *FulfillmentService) runStep(ctx context.Context, f *models.Fulfillment, step string, lines []models.CartLine, cartErr error) error {
	ctx, span := s.tracer.Start(ctx, "fulfillment."+step)
	defer span.End()
	started := s.now()
	defer func() { s.metrics.ObserveStep(step, time.Since(started)) }()

	var err error
	switch step {
	case StepOrder:
		_, _, err = s.orders.RecordPaidOrder(ctx, f.Session, lines)
	case StepStock:
		if cartErr != nil {
			f.StockReport = models.StockReport{
				Results: []models.LineResult{{Index: -1, Outcome: models.LineFault, Error: cartErr.Error()}},
				Faults:  1,
			}
			break
		}
		f.StockReport, err = s.stock.Resume(ctx, f.SessionID, lines, f.StockReport)
	case StepReceipt:
		err = s.receipts.Send(ctx, f.SessionID)
	default:
		err = fmt.Errorf("unknown fulfillment step %q", step)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *FulfillmentService) settle(ctx context.Context, f *models.Fulfillment, stepErr error) error {
	logger := logging.FromContext(ctx, s.log)
	now := s.now()

	switch {
	case f.Done():
		f.Status = models.FulfillmentCompleted
		f.LastError = ""
		s.metrics.FulfillmentAttempt("completed")
		logger.Info("fulfillment_completed", zap.Int("attempts", f.Attempts+1))
	case stepErr != nil:
		f.Attempts++
		f.LastError = stepErr.Error()
		if f.Attempts >= s.cfg.MaxAttempts {
			f.Status = models.FulfillmentFailed
			s.metrics.FulfillmentAttempt("failed")
			logger.Error("fulfillment_failed", zap.Int("attempts", f.Attempts), zap.Error(stepErr))
		} else {
			f.NextAttemptAt = now.Add(s.Backoff(f.Attempts))
			s.metrics.FulfillmentAttempt("retry")
			logger.Warn("fulfillment_retry_scheduled", zap.Int("attempts", f.Attempts), zap.Time("next_attempt_at", f.NextAttemptAt))
		}
	default:
		// The requested steps are done but others are still owed. A pending
		// backoff is kept so a partial run never pulls a retry forward.
		if lease := now.Add(s.cfg.RelayLease); lease.After(f.NextAttemptAt) {
			f.NextAttemptAt = lease
		}
		s.metrics.FulfillmentAttempt("partial")
	}
	return s.repo.Save(ctx, f)
}

// Backoff returns the delay before the next attempt after the given number of failures.
func (s *FulfillmentService) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := s.cfg.RetryBase
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	if d > maxRetryBackoff {
		return maxRetryBackoff
	}
	return d
}

// DueSessionIDs returns pending sessions whose retry time has come and hides them from the next
// relay tick for the lease duration.
func (s *FulfillmentService) DueSessionIDs(ctx context.Context, limit int) ([]string, error) {
	now := s.now()
	ids, err := s.repo.DueSessionIDs(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Postpone(ctx, ids, now.Add(s.cfg.RelayLease)); err != nil {
		return nil, err
	}
	return ids, nil
}

// List returns fulfillments with the given status, or all when status is empty.
func (s *FulfillmentService) List(ctx context.Context, status string) ([]models.Fulfillment, error) {
	return s.repo.List(ctx, status)
}

// Get returns the fulfillment of one session.
func (s *FulfillmentService) Get(ctx context.Context, sessionID string) (*models.Fulfillment, error) {
	return s.repo.Get(ctx, sessionID)
}

// Retry puts a failed fulfillment back in the queue with a fresh attempt budget.
func (s *FulfillmentService) Retry(ctx context.Context, sessionID string) (*models.Fulfillment, error) {
	unlock := s.lock(sessionID)
	f, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, err
	}
	if f.Status != models.FulfillmentFailed {
		unlock()
		return f, fmt.Errorf("session %s is %s: %w", sessionID, f.Status, ErrFulfillmentNotFailed)
	}

	now := s.now()
	f.Status = models.FulfillmentPending
	f.Attempts = 0
	f.NextAttemptAt = now.Add(s.cfg.RelayLease)
	err = s.repo.Save(ctx, f)
	unlock()
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.log).Info("fulfillment_retry_requested", zap.String("session_id", sessionID))
	s.enqueue(ctx, sessionID)
	return f, nil
}

func (s *FulfillmentService) lock(sessionID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	mu := &s.locks[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}

func (s *FulfillmentService) enqueue(ctx context.Context, sessionID string) {
	if s.jobs == nil {
		return
	}
	if err := s.jobs.Publish(ctx, sessionID); err != nil {
		logging.FromContext(ctx, s.log).Warn("fulfillment_enqueue_failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func stepDone(f *models.Fulfillment, step string) bool {
	switch step {
	case StepOrder:
		return f.OrderRecorded
	case StepStock:
		return f.StockReconciled
	case StepReceipt:
		return f.ReceiptSent
	}
	return false
}

func markDone(f *models.Fulfillment, step string) {
	switch step {
	case StepOrder:
		f.OrderRecorded = true
	case StepStock:
		f.StockReconciled = true
	case StepReceipt:
		f.ReceiptSent = true
	}
}
