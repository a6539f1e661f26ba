package fleet

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/example/taxi-dispatch/internal/models"
)

const (
	vehicleSetKey    = "fleet:vehicles"
	vehicleKeyPrefix = "fleet:vehicle:"
)

// RedisStore keeps the fleet in Redis, mirroring the dashboard's
// local-storage keys on the server side. One JSON blob per vehicle plus a
// set of ids.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) List(ctx context.Context) ([]models.Vehicle, error) {
	ids, err := s.client.SMembers(ctx, vehicleSetKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.Vehicle, 0, len(ids))
	for _, id := range ids {
		v, err := s.Get(ctx, id)
		if err == ErrNotFound {
			// id lingering in the set after a delete race; skip
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (models.Vehicle, error) {
	val, err := s.client.Get(ctx, vehicleKeyPrefix+id).Result()
	if err == redis.Nil {
		return models.Vehicle{}, ErrNotFound
	}
	if err != nil {
		return models.Vehicle{}, err
	}
	var v models.Vehicle
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		return models.Vehicle{}, err
	}
	return v, nil
}

func (s *RedisStore) Put(ctx context.Context, v models.Vehicle) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, vehicleKeyPrefix+v.ID, b, 0)
	pipe.SAdd(ctx, vehicleSetKey, v.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	del := pipe.Del(ctx, vehicleKeyPrefix+id)
	pipe.SRem(ctx, vehicleSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}
