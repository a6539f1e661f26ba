package fleet

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/example/taxi-dispatch/internal/models"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()

	v := models.Vehicle{ID: "v1", Name: "Taxi 1", Type: models.TypeCar, Seats: 4}
	if err := s.Put(ctx, v); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Taxi 1" || got.Seats != 4 {
		t.Fatalf("unexpected vehicle %+v", got)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 vehicle, got %d", len(list))
	}

	if err := s.Delete(ctx, "v1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "v1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisStoreDeleteUnknown(t *testing.T) {
	s := newRedisStore(t)
	// the memory store reports unknown ids; the redis backend must agree so
	// the delete handler answers 404 either way
	if err := s.Delete(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
