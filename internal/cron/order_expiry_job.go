package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/anayakapoor/luxethreads-backend/pkg/logger"
)

const expiryBatchSize = 100

type staleOrderExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// OrderExpiryJobParams configure the stale order sweeper.
type OrderExpiryJobParams struct {
	Logger *logger.Logger
	Orders staleOrderExpirer
	TTL    time.Duration
}

// NewOrderExpiryJob builds the job that cancels and restocks orders whose
// payment never settled within the TTL.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("order ttl must be positive")
	}
	return &orderExpiryJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    params.TTL,
		now:    time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg   *logger.Logger
	orders staleOrderExpirer
	ttl    time.Duration
	now    func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	total := 0
	for {
		expired, err := j.orders.ExpireStale(ctx, cutoff, expiryBatchSize)
		total += expired
		if err != nil {
			return fmt.Errorf("expire stale orders: %w", err)
		}
		if expired < expiryBatchSize {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": total, "cutoff": cutoff})
	j.logg.Info(logCtx, "stale order sweep complete")
	return nil
}
