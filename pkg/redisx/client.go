package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Dedup of event processing: dedup:{scope}:{id}
	KeyDedup = "dedup:%s:%s"
)

var TTLDedup = 48 * time.Hour

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Deduper remembers ids for TTLDedup so repeated deliveries can be recognised.
type Deduper struct {
	rdb   *redis.Client
	scope string
}

func NewDeduper(rdb *redis.Client, scope string) *Deduper {
	return &Deduper{rdb: rdb, scope: scope}
}

// Key returns the redis key used for id.
func (d *Deduper) Key(id string) string {
	return fmt.Sprintf(KeyDedup, d.scope, id)
}

// Seen reports whether id has been marked within TTLDedup.
func (d *Deduper) Seen(ctx context.Context, id string) (bool, error) {
	n, err := d.rdb.Exists(ctx, d.Key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", d.Key(id), err)
	}
	return n > 0, nil
}

// Mark records id as handled for TTLDedup.
func (d *Deduper) Mark(ctx context.Context, id string) error {
	if err := d.rdb.Set(ctx, d.Key(id), 1, TTLDedup).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", d.Key(id), err)
	}
	return nil
}
