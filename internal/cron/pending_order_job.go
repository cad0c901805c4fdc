package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-core/internal/orders"
	"github.com/angelmondragon/storefront-core/pkg/commerce"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"go.uber.org/multierr"
)

const (
	defaultPendingExpiry = 72 * time.Hour
	defaultExpiryPage    = 50
	// maxExpiryPages bounds one run; anything left is picked up next cycle.
	maxExpiryPages = 20
)

// PendingOrderJobParams configure the pending-order expiry job.
type PendingOrderJobParams struct {
	Logger    *logger.Logger
	Orders    pendingOrderLister
	Canceller orderCanceller
	Metrics   *metrics.CronJobMetrics
	Expiry    time.Duration
	PageSize  int
}

type pendingOrderLister interface {
	Orders(ctx context.Context, q commerce.OrderQuery) (*commerce.OrderPage, error)
}

type orderCanceller interface {
	Cancel(ctx context.Context, orderID int64) (*orders.OrderDTO, error)
}

type pendingOrderJob struct {
	logg      *logger.Logger
	orders    pendingOrderLister
	canceller orderCanceller
	metrics   *metrics.CronJobMetrics
	expiry    time.Duration
	pageSize  int
	now       func() time.Time
}

// NewPendingOrderJob builds the job that cancels orders left pending longer
// than the expiry, restoring their stock through the order manager. Orders
// stuck in cancelled after a failed trash are finished the same way.
func NewPendingOrderJob(params PendingOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order lister required")
	}
	if params.Canceller == nil {
		return nil, fmt.Errorf("order canceller required")
	}
	expiry := params.Expiry
	if expiry <= 0 {
		expiry = defaultPendingExpiry
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultExpiryPage
	}
	return &pendingOrderJob{
		logg:      params.Logger,
		orders:    params.Orders,
		canceller: params.Canceller,
		metrics:   params.Metrics,
		expiry:    expiry,
		pageSize:  pageSize,
		now:       time.Now,
	}, nil
}

func (j *pendingOrderJob) Name() string { return "pending-order-expiry" }

// Run collects every stale pending order first and only then cancels, since
// cancelling moves orders out of the listing being paged.
func (j *pendingOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.expiry)
	ids, err := j.stalePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list pending orders: %w", err)
	}

	var errs error
	cancelled := 0
	for _, id := range ids {
		if _, err := j.canceller.Cancel(ctx, id); err != nil {
			j.logg.Error(j.logg.WithOrderID(ctx, id), "expiring pending order failed", err)
			errs = multierr.Append(errs, fmt.Errorf("order %d: %w", id, err))
			continue
		}
		cancelled++
	}
	j.metrics.AddItems(j.Name(), "cancelled", cancelled)
	j.metrics.AddItems(j.Name(), "failed", len(ids)-cancelled)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff.Format(time.RFC3339),
		"found":     len(ids),
		"cancelled": cancelled,
	})
	j.logg.Info(logCtx, "pending order expiry complete")
	return errs
}

func (j *pendingOrderJob) stalePending(ctx context.Context, cutoff time.Time) ([]int64, error) {
	var ids []int64
	for page := 1; page <= maxExpiryPages; page++ {
		result, err := j.orders.Orders(ctx, commerce.OrderQuery{
			Page:     page,
			PerPage:  j.pageSize,
			Statuses: []string{string(enums.OrderStatusPending), string(enums.OrderStatusCancelled)},
			Before:   cutoff,
		})
		if err != nil {
			return nil, err
		}
		for _, order := range result.Orders {
			ids = append(ids, order.ID)
		}
		if len(result.Orders) < j.pageSize || page*j.pageSize >= result.Total {
			break
		}
	}
	return ids, nil
}
