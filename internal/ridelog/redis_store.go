package ridelog

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/example/taxi-dispatch/internal/models"
)

const logKey = "ridelog:entries"

// RedisStore keeps the ride log as a Redis list, newest first.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Append(ctx context.Context, e models.LogEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.LPush(ctx, logKey, b).Err()
}

func (s *RedisStore) List(ctx context.Context, limit int) ([]models.LogEntry, error) {
	end := int64(-1)
	if limit > 0 {
		end = int64(limit) - 1
	}
	vals, err := s.client.LRange(ctx, logKey, 0, end).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.LogEntry, 0, len(vals))
	for _, v := range vals {
		var e models.LogEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue // skip corrupt entries rather than failing the listing
		}
		out = append(out, e)
	}
	return out, nil
}
