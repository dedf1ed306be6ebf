package lifecycle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/meadowcart/storefront-backend/internal/orders"
	"github.com/meadowcart/storefront-backend/pkg/logger"
)

const advanceJobName = "order-lifecycle"

// AdvanceJobParams configure the order advancement job.
type AdvanceJobParams struct {
	Logger    *logger.Logger
	Orders    orders.Repository
	Schedule  orders.TransitionSchedule
	BatchSize int
	Now       func() time.Time
}

type advanceJob struct {
	logg      *logger.Logger
	orders    orders.Repository
	schedule  orders.TransitionSchedule
	batchSize int
	now       func() time.Time
}

// NewAdvanceJob builds the job that moves due orders one step forward:
// processing to in-transit, then in-transit to delivered. Each advance is
// guarded on the current status, so a concurrent operator override wins and
// the scheduled step silently drops out.
func NewAdvanceJob(params AdvanceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &advanceJob{
		logg:      params.Logger,
		orders:    params.Orders,
		schedule:  params.Schedule,
		batchSize: batchSize,
		now:       now,
	}, nil
}

func (j *advanceJob) Name() string {
	return advanceJobName
}

func (j *advanceJob) Run(ctx context.Context) error {
	now := j.now()
	due, err := j.orders.FindDueForTransition(ctx, now, j.batchSize)
	if err != nil {
		return fmt.Errorf("load due orders: %w", err)
	}

	var errs error
	advanced := 0
	for _, order := range due {
		next, ok := order.Status.Next()
		if !ok {
			// terminal order with a stale schedule; clear it
			if _, err := j.orders.UpdateStatus(ctx, order.ID, order.Status, nil); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("clear schedule for %s: %w", order.ID, err))
			}
			continue
		}

		rows, err := j.orders.AdvanceStatus(ctx, order.ID, order.Status, next, j.schedule.NextAfter(next, now))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("advance order %s: %w", order.ID, err))
			continue
		}
		if rows == 0 {
			// status changed underneath us; the override owns the order now
			continue
		}
		advanced++

		logCtx := j.logg.WithOrderID(ctx, order.ID.String())
		logCtx = j.logg.WithFields(logCtx, map[string]any{
			"from": order.Status.String(),
			"to":   next.String(),
		})
		j.logg.Info(logCtx, "order status advanced")
	}

	if advanced > 0 {
		j.logg.Info(j.logg.WithField(ctx, "count", advanced), "lifecycle pass complete")
	}
	return errs
}
