// internal/quotes/history.go
//
// Recently served quote ids.
// Two implementations share the History interface:
//   - MemoryHistory: process-local bounded FIFO (default).
//   - RedisHistory:  a capped Redis list, for replicas that share novelty.
//
// Both keep at most Limit ids; the oldest id is evicted first.
// The history is built once at process start and handed to the Source.

package quotes

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultRecentLimit is how many served ids are remembered.
const DefaultRecentLimit = 25

// History remembers the ids of recently served quotes.
type History interface {
	// Contains reports whether id was served recently.
	Contains(ctx context.Context, id string) (bool, error)
	// Add appends id, evicting the oldest entry past the bound.
	Add(ctx context.Context, id string) error
	// IDs returns the remembered ids, oldest first.
	IDs(ctx context.Context) ([]string, error)
}

// MemoryHistory is an in-process bounded FIFO.
type MemoryHistory struct {
	mu    sync.Mutex
	limit int
	ids   []string
}

// NewMemoryHistory returns an empty history holding at most limit ids.
// A non-positive limit uses DefaultRecentLimit.
func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &MemoryHistory{limit: limit, ids: make([]string, 0, limit+1)}
}

func (h *MemoryHistory) Contains(_ context.Context, id string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Contains(h.ids, id), nil
}

func (h *MemoryHistory) Add(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, id)
	if n := len(h.ids) - h.limit; n > 0 {
		h.ids = append(h.ids[:0], h.ids[n:]...)
	}
	return nil
}

func (h *MemoryHistory) IDs(_ context.Context) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.ids), nil
}

// Len reports how many ids are held.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.ids)
}

const redisHistoryKey = "beauquote:recent"

// RedisHistory keeps the FIFO in a Redis list trimmed to limit entries.
type RedisHistory struct {
	client *redis.Client
	key    string
	limit  int
}

// NewRedisHistory wraps client. An empty key uses "beauquote:recent".
func NewRedisHistory(client *redis.Client, key string, limit int) *RedisHistory {
	if key == "" {
		key = redisHistoryKey
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &RedisHistory{client: client, key: key, limit: limit}
}

// NewRedisHistoryFromURL parses a redis:// URL and pings the server.
func NewRedisHistoryFromURL(ctx context.Context, url string, limit int) (*RedisHistory, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisHistory(client, "", limit), nil
}

func (h *RedisHistory) Contains(ctx context.Context, id string) (bool, error) {
	_, err := h.client.LPos(ctx, h.key, id, redis.LPosArgs{}).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lpos %s: %w", h.key, err)
	}
	return true, nil
}

func (h *RedisHistory) Add(ctx context.Context, id string) error {
	_, err := h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, h.key, id)
		pipe.LTrim(ctx, h.key, int64(-h.limit), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push %s: %w", h.key, err)
	}
	return nil
}

func (h *RedisHistory) IDs(ctx context.Context) ([]string, error) {
	ids, err := h.client.LRange(ctx, h.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", h.key, err)
	}
	return ids, nil
}

// Close releases the Redis connection.
func (h *RedisHistory) Close() error {
	return h.client.Close()
}
