package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
)

// StockAdjuster moves platform stock for a single product.
type StockAdjuster interface {
	Decrease(ctx context.Context, productID int64, qty int) error
	Increase(ctx context.Context, productID int64, qty int) error
}

type stockAdjuster struct {
	platform stockPlatform
	metrics  *metrics.StockMetrics
}

// NewStockAdjuster adjusts stock through the platform's stock endpoint.
func NewStockAdjuster(platform stockPlatform, m *metrics.StockMetrics) (StockAdjuster, error) {
	if platform == nil {
		return nil, fmt.Errorf("stock platform required")
	}
	return &stockAdjuster{platform: platform, metrics: m}, nil
}

func (s *stockAdjuster) Decrease(ctx context.Context, productID int64, qty int) error {
	return s.change(ctx, productID, commerce.StockDecrease, qty)
}

func (s *stockAdjuster) Increase(ctx context.Context, productID int64, qty int) error {
	return s.change(ctx, productID, commerce.StockIncrease, qty)
}

func (s *stockAdjuster) change(ctx context.Context, productID int64, op commerce.StockOperation, qty int) error {
	if qty <= 0 {
		return nil
	}
	if productID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	if _, err := s.platform.ChangeStock(ctx, productID, op, qty); err != nil {
		s.metrics.IncFailure(string(op))
		return err
	}
	s.metrics.IncAdjustment(string(op))
	return nil
}
