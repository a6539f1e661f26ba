package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/taxi-dispatch/internal/models"
)

// fakeUpdater implements StatsUpdater for tests
type fakeUpdater struct {
	failIncr  int // number of times to fail IncrBy before succeeding
	failHIncr int // number of times to fail HIncrBy before succeeding
	incrCalls int
	hCalls    int
	incrTotal int64
	hTotal    int64
}

func (f *fakeUpdater) IncrBy(ctx context.Context, key string, value int64) error {
	f.incrCalls++
	if f.incrCalls <= f.failIncr {
		return errors.New("incr fail")
	}
	f.incrTotal += value
	return nil
}

func (f *fakeUpdater) HIncrBy(ctx context.Context, key, field string, value int64) error {
	f.hCalls++
	if f.hCalls <= f.failHIncr {
		return errors.New("hincr fail")
	}
	f.hTotal += value
	return nil
}

func testEntry() *models.LogEntry {
	return &models.LogEntry{
		ID:        "r1",
		VehicleID: "v1",
		Price:     450,
		Status:    "confirmed",
		CreatedAt: time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
	}
}

func TestFoldStatsWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeUpdater{failIncr: 1, failHIncr: 1}
	ctx := context.Background()
	start := time.Now()
	if err := foldStatsWithRetry(ctx, f, testEntry(), 3, 10*time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.incrCalls < 2 || f.hCalls < 2 {
		t.Fatalf("expected retries, got incr=%d h=%d", f.incrCalls, f.hCalls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestFoldStatsWithRetry_CountsRevenueOnce(t *testing.T) {
	// HIncrBy fails transiently after the revenue increment already landed;
	// the retry must not re-run IncrBy or the day's revenue doubles.
	f := &fakeUpdater{failHIncr: 1}
	e := testEntry()
	if err := foldStatsWithRetry(context.Background(), f, e, 3, time.Millisecond); err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.incrCalls != 1 {
		t.Fatalf("IncrBy called %d times, want 1", f.incrCalls)
	}
	if f.incrTotal != int64(e.Price) {
		t.Fatalf("revenue counted %d, want %d counted once", f.incrTotal, e.Price)
	}
	if f.hTotal != 1 {
		t.Fatalf("ride counted %d times, want 1", f.hTotal)
	}
}

func TestFoldStatsWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeUpdater{failIncr: 5}
	ctx := context.Background()
	if err := foldStatsWithRetry(ctx, f, testEntry(), 3, 5*time.Millisecond); err == nil {
		t.Fatalf("expected error after retries")
	}
}
