package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

type productSource interface {
	Product(ctx context.Context, id int64) (*commerce.Product, error)
	Products(ctx context.Context, ids []int64) ([]commerce.Product, error)
}

// Gateway is read-only access to the platform catalog, the only inventory authority.
type Gateway interface {
	Product(ctx context.Context, id int64) (*Product, error)
	Products(ctx context.Context, ids []int64) ([]Product, error)
}

type gateway struct {
	source productSource
}

// NewGateway builds a catalog gateway over the platform client.
func NewGateway(source productSource) (Gateway, error) {
	if source == nil {
		return nil, fmt.Errorf("product source required")
	}
	return &gateway{source: source}, nil
}

func (g *gateway) Product(ctx context.Context, id int64) (*Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	rec, err := g.source.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	product := FromRecord(*rec)
	return &product, nil
}

// Products fetches in one call; callers that need bounded batches split ids first.
func (g *gateway) Products(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := g.source.Products(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out, nil
}
