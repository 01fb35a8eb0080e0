package redisx

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduperKey(t *testing.T) {
	d := NewDeduper(nil, "webhook")
	assert.Equal(t, "dedup:webhook:evt_1", d.Key("evt_1"))
}

func TestDeduperSeenAfterMark(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := New(addr)
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping redis integration test: %v", err)
	}

	d := NewDeduper(rdb, "test")
	id := uuid.NewString()
	t.Cleanup(func() { _ = rdb.Del(context.Background(), d.Key(id)).Err() })

	// Checking alone must not mark the id.
	seen, err := d.Seen(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)
	seen, err = d.Seen(ctx, id)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, d.Mark(ctx, id))
	seen, err = d.Seen(ctx, id)
	require.NoError(t, err)
	assert.True(t, seen)

	ttl, err := rdb.TTL(ctx, d.Key(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 47*time.Hour)
}
