package orders

import (
	"context"

	"github.com/angelmondragon/storefront-core/internal/customers"
	"github.com/angelmondragon/storefront-core/pkg/commerce"
)

// orderPlatform is the platform's order surface.
type orderPlatform interface {
	CreateOrder(ctx context.Context, input commerce.CreateOrderInput) (*commerce.Order, error)
	Order(ctx context.Context, id int64) (*commerce.Order, error)
	Orders(ctx context.Context, q commerce.OrderQuery) (*commerce.OrderPage, error)
	UpdateOrder(ctx context.Context, id int64, input commerce.UpdateOrderInput) (*commerce.Order, error)
	TrashOrder(ctx context.Context, id int64) (*commerce.Order, error)
}

type stockPlatform interface {
	ChangeStock(ctx context.Context, productID int64, op commerce.StockOperation, quantity int) (*commerce.StockLevel, error)
}

type customerResolver interface {
	Resolve(ctx context.Context, req customers.Request) (int64, error)
}

// ownerResolver maps product ids to owning seller ids; unresolved ids are absent.
type ownerResolver interface {
	Resolve(ctx context.Context, productIDs []int64) (map[int64]int64, error)
}
