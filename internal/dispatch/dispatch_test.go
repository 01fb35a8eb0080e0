package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cybertronic/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) handle(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestLocalQueue_RunsJobsAndSurvivesPanics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewLocalQueue(1, 8, zap.NewNop())
	rec := &recorder{}

	q.Start(ctx, func(ctx context.Context, id string) error {
		if id == "boom" {
			panic("handler exploded")
		}
		return rec.handle(ctx, id)
	})

	require.NoError(t, q.Publish(ctx, "cs_1"))
	require.NoError(t, q.Publish(ctx, "boom"))
	require.NoError(t, q.Publish(ctx, "cs_2"))

	assert.Eventually(t, func() bool { return len(rec.seen()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"cs_1", "cs_2"}, rec.seen())

	cancel()
	q.Wait()
}

func TestLocalQueue_PublishWhenFull(t *testing.T) {
	q := NewLocalQueue(1, 1, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, "cs_1"))
	assert.ErrorIs(t, q.Publish(ctx, "cs_2"), ErrQueueFull)
}

// fakeBroker delivers published messages straight to the registered consumer.
type fakeBroker struct {
	mu       sync.Mutex
	handler  rabbitmq.Handler
	ctx      context.Context
	queue    string
	failNext error
}

func (b *fakeBroker) Publish(queue string, body []byte) error {
	b.mu.Lock()
	h, ctx, err := b.handler, b.ctx, b.failNext
	b.failNext = nil
	b.mu.Unlock()
	if err != nil {
		return err
	}
	if h != nil && queue == b.queue {
		_ = h(ctx, body)
	}
	return nil
}

func (b *fakeBroker) Consume(ctx context.Context, queue string, handler rabbitmq.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx, b.queue, b.handler = ctx, queue, handler
	return nil
}

func TestRabbitQueue_RoundTrip(t *testing.T) {
	broker := &fakeBroker{}
	q := NewRabbitQueue(broker, FulfillmentQueue, zap.NewNop())
	rec := &recorder{}
	ctx := context.Background()

	require.NoError(t, q.Start(ctx, rec.handle))
	require.NoError(t, q.Publish(ctx, "cs_1"))
	assert.Equal(t, []string{"cs_1"}, rec.seen())

	broker.failNext = errors.New("channel closed")
	assert.Error(t, q.Publish(ctx, "cs_2"))
}

func TestRabbitQueue_MalformedAndPanickingJobs(t *testing.T) {
	broker := &fakeBroker{}
	q := NewRabbitQueue(broker, FulfillmentQueue, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, q.Start(ctx, func(context.Context, string) error { panic("boom") }))

	assert.NoError(t, broker.handler(ctx, []byte("not json")))
	assert.Error(t, broker.handler(ctx, []byte(`{"session_id":"cs_1"}`)))
}

type mockSource struct{ mock.Mock }

func (m *mockSource) DueSessionIDs(ctx context.Context, limit int) ([]string, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, sessionID string) error {
	return m.Called(sessionID).Error(0)
}

func TestRelay_Tick(t *testing.T) {
	src := new(mockSource)
	pub := new(mockPublisher)
	relay := NewRelay(src, pub, time.Second, 50, zap.NewNop())
	ctx := context.Background()

	src.On("DueSessionIDs", 50).Return([]string{"cs_1", "cs_2", "cs_3"}, nil).Once()
	pub.On("Publish", "cs_1").Return(nil).Once()
	pub.On("Publish", "cs_2").Return(ErrQueueFull).Once()
	pub.On("Publish", "cs_3").Return(nil).Once()

	assert.Equal(t, 2, relay.Tick(ctx))

	src.On("DueSessionIDs", 50).Return(nil, errors.New("db down")).Once()
	assert.Zero(t, relay.Tick(ctx))

	src.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRelay_RunStopsWithContext(t *testing.T) {
	src := new(mockSource)
	pub := new(mockPublisher)
	ticked := make(chan struct{}, 1)
	src.On("DueSessionIDs", 100).Return([]string{}, nil).Run(func(mock.Arguments) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	})
	relay := NewRelay(src, pub, 5*time.Millisecond, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("relay never ticked")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
