package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list that holds feedback records.
const DefaultRedisKey = "tastegate:feedback"

// RedisLog keeps feedback in a Redis list. RPUSH is atomic, so concurrent
// runs never lose each other's records.
type RedisLog struct {
	client redis.Cmdable
	key    string
}

// NewRedisClient dials addr with the pool settings used across the project.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
}

// NewRedisLog wraps client. key "" uses DefaultRedisKey.
func NewRedisLog(client redis.Cmdable, key string) *RedisLog {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLog{client: client, key: key}
}

// Append pushes one record onto the tail of the list.
func (l *RedisLog) Append(ctx context.Context, rec FeedbackRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	if err := l.client.RPush(ctx, l.key, data).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

// List reads the whole list.
func (l *RedisLog) List(ctx context.Context) ([]FeedbackRecord, error) {
	raw, err := l.client.LRange(ctx, l.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]FeedbackRecord, 0, len(raw))
	for _, r := range raw {
		var rec FeedbackRecord
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			return nil, fmt.Errorf("decode feedback entry: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
