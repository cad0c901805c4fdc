package ownership

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/angelmondragon/storefront-core/internal/catalog"
	"github.com/angelmondragon/storefront-core/pkg/commerce"
	"github.com/angelmondragon/storefront-core/pkg/db"
)

const (
	TierCatalog = "catalog"
	TierStore   = "store"
	TierContent = "content"
)

// Tier is one ownership data source. Resolve receives at most one batch of
// ids and returns the owners it could find; missing ids are simply absent.
type Tier interface {
	Name() string
	Resolve(ctx context.Context, ids []int64) (map[int64]int64, error)
}

type catalogTier struct {
	gateway catalog.Gateway
}

// NewCatalogTier reads owners from the platform's product records.
func NewCatalogTier(gateway catalog.Gateway) (Tier, error) {
	if gateway == nil {
		return nil, fmt.Errorf("catalog gateway required")
	}
	return &catalogTier{gateway: gateway}, nil
}

func (t *catalogTier) Name() string { return TierCatalog }

func (t *catalogTier) Resolve(ctx context.Context, ids []int64) (map[int64]int64, error) {
	products, err := t.gateway.Products(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(products))
	for _, p := range products {
		if p.OwnerID > 0 {
			out[p.ID] = p.OwnerID
		}
	}
	return out, nil
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type storeTier struct {
	client  *db.Client
	table   string
	column  string
	timeout time.Duration
}

// NewStoreTier reads the owner column straight from the platform database.
// table and column are interpolated, so both must be plain identifiers.
func NewStoreTier(client *db.Client, table, column string, timeout time.Duration) (Tier, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("invalid owner table %q", table)
	}
	if !identifier.MatchString(column) {
		return nil, fmt.Errorf("invalid owner column %q", column)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &storeTier{client: client, table: table, column: column, timeout: timeout}, nil
}

func (t *storeTier) Name() string { return TierStore }

func (t *storeTier) Resolve(ctx context.Context, ids []int64) (map[int64]int64, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.timeout)
	defer cancel()

	var rows []struct {
		ID      int64
		OwnerID int64
	}
	query := fmt.Sprintf("SELECT id, %s AS owner_id FROM %s WHERE id IN ?", t.column, t.table)
	if err := t.client.Raw(ctx, query, ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		if row.OwnerID > 0 {
			out[row.ID] = row.OwnerID
		}
	}
	return out, nil
}

type contentSource interface {
	ContentEntries(ctx context.Context, ids []int64) ([]commerce.ContentEntry, error)
}

type contentTier struct {
	source contentSource
}

// NewContentTier reads the post author from the content API.
func NewContentTier(source contentSource) (Tier, error) {
	if source == nil {
		return nil, fmt.Errorf("content source required")
	}
	return &contentTier{source: source}, nil
}

func (t *contentTier) Name() string { return TierContent }

func (t *contentTier) Resolve(ctx context.Context, ids []int64) (map[int64]int64, error) {
	entries, err := t.source.ContentEntries(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(entries))
	for _, e := range entries {
		if e.Author > 0 {
			out[e.ID] = e.Author
		}
	}
	return out, nil
}
