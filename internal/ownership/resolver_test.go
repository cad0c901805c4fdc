package ownership

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-core/internal/catalog"
	"github.com/angelmondragon/storefront-core/internal/commercetest"
	"github.com/angelmondragon/storefront-core/pkg/config"
	"github.com/angelmondragon/storefront-core/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func openStore(t *testing.T, name string, owners map[int64]int64) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		Driver:       config.DBDriverSQLite,
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().Exec(`CREATE TABLE wp_posts (id INTEGER PRIMARY KEY, post_author INTEGER)`).Error)
	for id, owner := range owners {
		require.NoError(t, client.DB().Exec(`INSERT INTO wp_posts (id, post_author) VALUES (?, ?)`, id, owner).Error)
	}
	return client
}

// seedPlatform builds 25 products: 1-10 carry post_author 7, 11-25 carry no
// owner in the API, and 21-23 have a content author of 9.
func seedPlatform() *commercetest.Platform {
	platform := commercetest.New()
	for id := int64(1); id <= 25; id++ {
		spec := commercetest.ProductSpec{ID: id, Price: "1.00"}
		if id <= 10 {
			spec.Extra = map[string]any{"post_author": 7}
		}
		platform.AddProduct(spec)
	}
	for id := int64(21); id <= 23; id++ {
		platform.SetContentAuthor(id, 9)
	}
	return platform
}

func newTestResolver(t *testing.T, platform *commercetest.Platform, store *db.Client, reg prometheus.Registerer) Resolver {
	t.Helper()
	gateway, err := catalog.NewGateway(platform)
	require.NoError(t, err)
	catalogTier, err := NewCatalogTier(gateway)
	require.NoError(t, err)
	storeTier, err := NewStoreTier(store, "wp_posts", "post_author", time.Second)
	require.NoError(t, err)
	contentTier, err := NewContentTier(platform)
	require.NoError(t, err)

	r, err := NewResolver([]Tier{catalogTier, storeTier, contentTier}, config.OwnershipConfig{BatchSize: 50}, metrics.NewOwnershipMetrics(reg), testLogger())
	require.NoError(t, err)
	return r
}

func ids(from, to int64) []int64 {
	out := make([]int64, 0, to-from+1)
	for id := from; id <= to; id++ {
		out = append(out, id)
	}
	return out
}

func TestResolveCascadesAndBatches(t *testing.T) {
	platform := seedPlatform()
	store := openStore(t, "ownership_cascade", map[int64]int64{11: 8, 12: 8, 13: 8, 14: 8, 15: 8, 16: 8, 17: 8, 18: 8, 19: 8, 20: 8})
	r := newTestResolver(t, platform, store, nil)

	requested := append(ids(1, 25), 3, 3, 0, -4)
	owners, err := r.Resolve(context.Background(), requested)
	require.NoError(t, err)

	assert.Len(t, owners, 23)
	for id := int64(1); id <= 10; id++ {
		assert.Equal(t, int64(7), owners[id], "product %d", id)
	}
	for id := int64(11); id <= 20; id++ {
		assert.Equal(t, int64(8), owners[id], "product %d", id)
	}
	for id := int64(21); id <= 23; id++ {
		assert.Equal(t, int64(9), owners[id], "product %d", id)
	}
	assert.NotContains(t, owners, int64(24))
	assert.NotContains(t, owners, int64(25))

	productBatches := platform.Batches("list_products")
	require.Len(t, productBatches, 2)
	assert.Len(t, productBatches[0], 20)
	assert.Len(t, productBatches[1], 5)

	contentBatches := platform.Batches("list_content")
	require.Len(t, contentBatches, 1)
	assert.ElementsMatch(t, ids(21, 25), contentBatches[0])
}

func TestResolveToleratesFailingTier(t *testing.T) {
	platform := seedPlatform()
	platform.FailOn("list_products", pkgerrors.New(pkgerrors.CodeUpstreamTimeout, "timed out"))
	store := openStore(t, "ownership_failing", map[int64]int64{1: 5, 2: 5})
	reg := prometheus.NewRegistry()
	r := newTestResolver(t, platform, store, reg)

	owners, err := r.Resolve(context.Background(), ids(1, 25))
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 5, 2: 5, 21: 9, 22: 9, 23: 9}, owners)
	assert.Equal(t, 2, platform.Calls("list_products"))

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			values[mf.GetName()] += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), values["ownership_tier_errors_total"])
	assert.Equal(t, float64(20), values["ownership_unresolved_total"])
	assert.Equal(t, float64(5), values["ownership_resolved_total"])
}

func TestResolveUsesRequestMemo(t *testing.T) {
	platform := seedPlatform()
	store := openStore(t, "ownership_memo", nil)
	r := newTestResolver(t, platform, store, nil)
	ctx := WithMemo(context.Background())

	first, err := r.Resolve(ctx, []int64{1, 2, 21})
	require.NoError(t, err)
	second, err := r.Resolve(ctx, []int64{2, 21, 1})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, platform.Calls("list_products"))
	assert.Equal(t, 1, platform.Calls("list_content"))

	// a fresh request starts cold
	_, err = r.Resolve(WithMemo(context.Background()), []int64{1})
	require.NoError(t, err)
	assert.Equal(t, 2, platform.Calls("list_products"))
}

func TestResolveEmptyInput(t *testing.T) {
	platform := seedPlatform()
	r := newTestResolver(t, platform, openStore(t, "ownership_empty", nil), nil)

	owners, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, owners)
	assert.Zero(t, platform.Calls("list_products"))
}

func TestNewStoreTierRejectsUnsafeIdentifiers(t *testing.T) {
	store := openStore(t, "ownership_identifiers", nil)
	_, err := NewStoreTier(store, "wp_posts; DROP TABLE x", "post_author", time.Second)
	assert.Error(t, err)
	_, err = NewStoreTier(store, "wp_posts", "post author", time.Second)
	assert.Error(t, err)
	_, err = NewStoreTier(nil, "wp_posts", "post_author", time.Second)
	assert.Error(t, err)
}

func TestBatches(t *testing.T) {
	got := batches(ids(1, 41), 20)
	require.Len(t, got, 3)
	assert.Len(t, got[2], 1)
	assert.Nil(t, batches(nil, 20))
}
