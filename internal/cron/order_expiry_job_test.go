package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anayakapoor/luxethreads-backend/pkg/logger"
)

type fakeOrderExpirer struct {
	batches    []int
	err        error
	lastCutoff time.Time
	lastLimit  int
	calls      int
}

func (f *fakeOrderExpirer) ExpireStale(_ context.Context, cutoff time.Time, limit int) (int, error) {
	f.lastCutoff = cutoff
	f.lastLimit = limit
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if len(f.batches) == 0 {
		return 0, nil
	}
	count := f.batches[0]
	f.batches = f.batches[1:]
	return count, nil
}

func newOrderExpiryJob(t *testing.T, expirer *fakeOrderExpirer, ttl time.Duration) *orderExpiryJob {
	t.Helper()
	jobIface, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Orders: expirer,
		TTL:    ttl,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}
	job, ok := jobIface.(*orderExpiryJob)
	if !ok {
		t.Fatalf("expected orderExpiryJob, got %T", jobIface)
	}
	return job
}

func TestOrderExpiryJobSweepsUntilShortBatch(t *testing.T) {
	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	expirer := &fakeOrderExpirer{batches: []int{expiryBatchSize, 7}}
	job := newOrderExpiryJob(t, expirer, 240*time.Hour)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if expirer.calls != 2 {
		t.Fatalf("expected 2 batches, got %d", expirer.calls)
	}
	expectedCutoff := now.Add(-240 * time.Hour)
	if !expirer.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("cutoff = %s, want %s", expirer.lastCutoff, expectedCutoff)
	}
	if expirer.lastLimit != expiryBatchSize {
		t.Fatalf("limit = %d, want %d", expirer.lastLimit, expiryBatchSize)
	}
}

func TestOrderExpiryJobPropagatesErrors(t *testing.T) {
	expirer := &fakeOrderExpirer{err: errors.New("boom")}
	job := newOrderExpiryJob(t, expirer, time.Hour)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestOrderExpiryJobRequiresPositiveTTL(t *testing.T) {
	_, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		Orders: &fakeOrderExpirer{},
	})
	if err == nil {
		t.Fatal("expected error for missing ttl")
	}
}
