package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/pagination"
	"github.com/angelmondragon/storefront-core/pkg/types"
	"github.com/shopspring/decimal"
)

// SellerOrders lists orders attributed to a seller.
type SellerOrders interface {
	ListForSeller(ctx context.Context, q SellerQuery) (*types.OrderList[SellerOrderDTO], error)
}

type sellerOrders struct {
	platform orderPlatform
	owners   ownerResolver
	logg     *logger.Logger
}

func NewSellerOrders(platform orderPlatform, owners ownerResolver, logg *logger.Logger) (SellerOrders, error) {
	if platform == nil {
		return nil, fmt.Errorf("order platform required")
	}
	if owners == nil {
		return nil, fmt.Errorf("owner resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &sellerOrders{platform: platform, owners: owners, logg: logg}, nil
}

// ListForSeller fetches one page of orders and keeps those with at least one
// line owned by the seller. Lines whose owner cannot be resolved are not attributed.
func (s *sellerOrders) ListForSeller(ctx context.Context, q SellerQuery) (*types.OrderList[SellerOrderDTO], error) {
	if q.SellerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id must be positive")
	}
	params := pagination.Params{Page: q.Page, PerPage: q.PerPage}.Normalize()
	query := commerce.OrderQuery{Page: params.Page, PerPage: params.PerPage}
	if q.Status != "" {
		status, err := enums.ParseOrderStatus(q.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		query.Statuses = []string{string(status)}
	}
	ctx = s.logg.WithSellerID(ctx, q.SellerID)

	page, err := s.platform.Orders(ctx, query)
	if err != nil {
		return nil, err
	}

	productIDs := make([]int64, 0)
	for _, order := range page.Orders {
		for _, line := range order.LineItems {
			productIDs = append(productIDs, line.ProductID)
		}
	}
	owners, err := s.owners.Resolve(ctx, productIDs)
	if err != nil {
		s.logg.Error(ctx, "ownership resolution failed", err)
		return nil, err
	}

	matched := make([]SellerOrderDTO, 0)
	for _, order := range page.Orders {
		if entry, ok := attribute(order, q.SellerID, owners); ok {
			matched = append(matched, entry)
		}
	}
	list := types.NewOrderList(matched)
	return &list, nil
}

// attribute sums the totals of the lines owned by seller.
func attribute(order commerce.Order, seller int64, owners map[int64]int64) (SellerOrderDTO, bool) {
	total := decimal.Zero
	var lines []int64
	for _, line := range order.LineItems {
		if owner, ok := owners[line.ProductID]; ok && owner == seller {
			total = total.Add(line.Total)
			lines = append(lines, line.ID)
		}
	}
	if len(lines) == 0 {
		return SellerOrderDTO{}, false
	}
	return SellerOrderDTO{OrderDTO: ToDTO(order), SellerTotal: total, SellerLines: lines}, true
}
