// Package ownership attributes products to the sellers that own them.
package ownership

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
)

// Resolver maps product ids to owner ids. Ids no tier can attribute are
// absent from the result; that is not an error.
type Resolver interface {
	Resolve(ctx context.Context, productIDs []int64) (map[int64]int64, error)
}

type resolver struct {
	tiers     []Tier
	batchSize int
	metrics   *metrics.OwnershipMetrics
	logg      *logger.Logger
}

// NewResolver runs tiers in the given order, each over the ids the previous
// tiers left unresolved, in batches of at most cfg.EffectiveBatchSize ids.
func NewResolver(tiers []Tier, cfg config.OwnershipConfig, m *metrics.OwnershipMetrics, logg *logger.Logger) (Resolver, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("at least one ownership tier required")
	}
	for i, tier := range tiers {
		if tier == nil {
			return nil, fmt.Errorf("ownership tier %d is nil", i)
		}
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &resolver{
		tiers:     tiers,
		batchSize: cfg.EffectiveBatchSize(),
		metrics:   m,
		logg:      logg,
	}, nil
}

func (r *resolver) Resolve(ctx context.Context, productIDs []int64) (map[int64]int64, error) {
	owners := make(map[int64]int64)
	cache := memoFrom(ctx)
	pending := cache.lookup(dedupe(productIDs), owners)

	for _, tier := range r.tiers {
		if len(pending) == 0 {
			break
		}
		found := r.runTier(ctx, tier, pending)
		for id, owner := range found {
			owners[id] = owner
		}
		cache.store(found)
		r.metrics.AddResolved(tier.Name(), len(found))
		pending = without(pending, found)
	}

	if len(pending) > 0 {
		r.metrics.AddUnresolved(len(pending))
		r.logg.Warn(r.logg.WithField(ctx, "product_ids", pending), fmt.Sprintf("%d products have no resolvable owner", len(pending)))
	}
	return owners, nil
}

// runTier issues one call per batch, sequentially. A failed batch is logged
// and skipped; its ids stay pending for the next tier.
func (r *resolver) runTier(ctx context.Context, tier Tier, ids []int64) map[int64]int64 {
	found := make(map[int64]int64)
	for i, batch := range batches(ids, r.batchSize) {
		result, err := tier.Resolve(ctx, batch)
		if err != nil {
			r.metrics.IncTierError(tier.Name())
			r.logg.Error(r.logg.WithFields(ctx, map[string]any{
				"tier":  tier.Name(),
				"batch": i,
				"size":  len(batch),
			}), "ownership tier batch failed", err)
			continue
		}
		for _, id := range batch {
			if owner, ok := result[id]; ok && owner > 0 {
				found[id] = owner
			}
		}
	}
	return found
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func batches(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = len(ids)
	}
	var out [][]int64
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

func without(ids []int64, found map[int64]int64) []int64 {
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
