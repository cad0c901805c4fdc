package reservation

import (
	"context"
	"io"
	"testing"

	"github.com/angelmondragon/storefront-core/internal/catalog"
	"github.com/angelmondragon/storefront-core/internal/commercetest"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func qty(n int) *int {
	return &n
}

func simpleProduct() catalog.Product {
	return catalog.Product{
		ID:            7,
		Name:          "Mug",
		Type:          enums.ProductTypeSimple,
		Status:        enums.ProductStatusPublished,
		Price:         price("12.00"),
		StockQuantity: qty(5),
		StockStatus:   enums.StockStatusInStock,
	}
}

func TestCanApply(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *catalog.Product)
		variant  int64
		quantity int
		allowed  bool
		code     pkgerrors.Code
	}{
		{name: "within stock", quantity: 5, allowed: true},
		{name: "above stock", quantity: 6, code: pkgerrors.CodeInsufficientStock},
		{name: "zero quantity", quantity: 0, code: pkgerrors.CodeValidation},
		{name: "variable product", mutate: func(p *catalog.Product) { p.Type = enums.ProductTypeVariable }, quantity: 1, code: pkgerrors.CodeUnsupportedProductType},
		{name: "variation on simple product", variant: 99, quantity: 1, code: pkgerrors.CodeUnsupportedProductType},
		{name: "no price", mutate: func(p *catalog.Product) { p.Price = nil }, quantity: 1, code: pkgerrors.CodeNotPurchasable},
		{name: "hidden from catalog", mutate: func(p *catalog.Product) { p.Visibility = enums.CatalogVisibilityHidden }, quantity: 1, code: pkgerrors.CodeNotPurchasable},
		{name: "out of stock status", mutate: func(p *catalog.Product) { p.StockStatus = enums.StockStatusOutOfStock }, quantity: 1, code: pkgerrors.CodeOutOfStock},
		{name: "unmanaged stock ignores status", mutate: func(p *catalog.Product) {
			p.StockQuantity = nil
			p.StockStatus = enums.StockStatusOutOfStock
		}, quantity: 500, allowed: true},
		{name: "backorder within stock", mutate: func(p *catalog.Product) { p.StockStatus = enums.StockStatusOnBackorder }, quantity: 2, allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := simpleProduct()
			if tt.mutate != nil {
				tt.mutate(&product)
			}
			decision := CanApply(product, tt.variant, tt.quantity)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.Equal(t, tt.code, decision.Code)
				assert.NotEmpty(t, decision.Reason)
				err := decision.Err(product, tt.quantity)
				assert.True(t, pkgerrors.IsCode(err, tt.code))
			}
		})
	}
}

// Cancelled and trashed products are treated as in stock so shoppers can still
// clear discontinued lines. This is intentional and must not be "fixed".
func TestCanApplyDiscontinuedProductsBypassStockStatus(t *testing.T) {
	for _, status := range []enums.ProductStatus{enums.ProductStatusCancelled, enums.ProductStatusTrashed} {
		product := simpleProduct()
		product.Status = status
		product.StockStatus = enums.StockStatusOutOfStock

		decision := CanApply(product, 0, 1)
		assert.True(t, decision.Allowed, "status %s should bypass out-of-stock", status)

		decision = CanApply(product, 0, 6)
		assert.Equal(t, pkgerrors.CodeInsufficientStock, decision.Code, "managed quantity still applies for %s", status)
	}

	published := simpleProduct()
	published.StockStatus = enums.StockStatusOutOfStock
	assert.Equal(t, pkgerrors.CodeOutOfStock, CanApply(published, 0, 1).Code)
}

type fixture struct {
	platform *commercetest.Platform
	engine   Engine
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	platform := commercetest.New()
	gateway, err := catalog.NewGateway(platform)
	require.NoError(t, err)
	eng, err := NewEngine(gateway, platform, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return fixture{platform: platform, engine: eng}
}

func lineQuantity(t *testing.T, f fixture, token string, productID int64) int {
	t.Helper()
	cart, err := f.platform.Cart(context.Background(), token)
	require.NoError(t, err)
	for _, item := range cart.Items {
		if item.ID == productID {
			return item.Quantity
		}
	}
	return 0
}

func TestAddDelegatesToPlatform(t *testing.T) {
	f := newFixture(t)
	f.platform.AddProduct(commercetest.ProductSpec{ID: 7, Price: "12.00", Stock: commercetest.Stock(3)})

	cart, err := f.engine.Add(context.Background(), "", AddRequest{ProductID: 7, Quantity: 2})
	require.NoError(t, err)
	require.NotEmpty(t, cart.Token)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.NotEmpty(t, cart.Items[0].Key)

	_, err = f.engine.Add(context.Background(), cart.Token, AddRequest{ProductID: 7, Quantity: 2, CurrentQuantity: 2})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 1, f.platform.Calls("add_cart_item"), "pre-check denial must not reach the platform")
}

func TestAddRejectsUnsupportedBeforeNetwork(t *testing.T) {
	f := newFixture(t)
	f.platform.AddProduct(commercetest.ProductSpec{ID: 8, Type: "variable", Price: "9.00"})
	f.platform.AddProduct(commercetest.ProductSpec{ID: 9, Price: ""})

	_, err := f.engine.Add(context.Background(), "tok", AddRequest{ProductID: 8, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnsupportedProductType))
	_, err = f.engine.Add(context.Background(), "tok", AddRequest{ProductID: 9, Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotPurchasable))
	assert.Zero(t, f.platform.Calls("add_cart_item"))
}

// The catalog said in stock but the platform disagrees: its notice wins.
func TestAddSurfacesPlatformNoticeVerbatim(t *testing.T) {
	f := newFixture(t)
	f.platform.AddProduct(commercetest.ProductSpec{ID: 7, Name: "Mug", Price: "12.00", Stock: commercetest.Stock(1)})
	f.platform.SeedCart("tok", 7, 1)

	_, err := f.engine.Add(context.Background(), "tok", AddRequest{ProductID: 7, Quantity: 1})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	assert.Contains(t, typed.Message(), "not enough stock (1 remaining)")
}

func TestClassifyNotice(t *testing.T) {
	assert.Equal(t, pkgerrors.CodeOutOfStock, classifyNotice(`You cannot add "Mug" to the cart because the product is out of stock.`))
	assert.Equal(t, pkgerrors.CodeOutOfStock, classifyNotice("Sorry, out_of_stock"))
	assert.Equal(t, pkgerrors.CodeInsufficientStock, classifyNotice("not enough stock (2 remaining)"))
	assert.Equal(t, pkgerrors.CodeUpstreamRejected, classifyNotice("Sorry, this product cannot be purchased."))
}

func TestUpdateScenario(t *testing.T) {
	f := newFixture(t)
	f.platform.AddProduct(commercetest.ProductSpec{ID: 7, Price: "12.00", Stock: commercetest.Stock(5)})
	key := f.platform.SeedCart("tok", 7, 2)

	_, err := f.engine.Update(context.Background(), "tok", UpdateRequest{ItemKey: key, ProductID: 7, Quantity: 7})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 2, lineQuantity(t, f, "tok", 7))

	_, err = f.engine.Update(context.Background(), "tok", UpdateRequest{ItemKey: key, ProductID: 7, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, lineQuantity(t, f, "tok", 7))
}

func TestUpdateToZeroRemovesIdempotently(t *testing.T) {
	f := newFixture(t)
	f.platform.AddProduct(commercetest.ProductSpec{ID: 7, Price: "12.00", Stock: commercetest.Stock(5)})
	key := f.platform.SeedCart("tok", 7, 2)

	cart, err := f.engine.Update(context.Background(), "tok", UpdateRequest{ItemKey: key, ProductID: 7, Quantity: 0})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = f.engine.Update(context.Background(), "tok", UpdateRequest{ItemKey: key, ProductID: 7, Quantity: -1})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, f.platform.Calls("update_cart_item"))
	assert.Zero(t, f.platform.Calls("get_product"))
}

func TestIncrementStockOfOne(t *testing.T) {
	f := newFixture(t)
	f.platform.AddProduct(commercetest.ProductSpec{ID: 7, Price: "12.00", Stock: commercetest.Stock(1)})

	cart, err := f.engine.Add(context.Background(), "", AddRequest{ProductID: 7, Quantity: 1})
	require.NoError(t, err)
	token, key := cart.Token, cart.Items[0].Key
	cached := cart.Items[0].QuantityLimits.Maximum

	_, err = f.engine.Increment(context.Background(), token, IncrementRequest{ItemKey: key, ProductID: 7, CurrentQuantity: 1, CachedStock: &cached})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 1, lineQuantity(t, f, token, 7))
	assert.Zero(t, f.platform.Calls("update_cart_item"), "cached snapshot should short-circuit")
}

func TestIncrementStaleSnapshotLosesToPlatform(t *testing.T) {
	f := newFixture(t)
	f.platform.AddProduct(commercetest.ProductSpec{ID: 7, Price: "12.00", Stock: commercetest.Stock(1)})
	key := f.platform.SeedCart("tok", 7, 1)
	stale := 5

	_, err := f.engine.Increment(context.Background(), "tok", IncrementRequest{ItemKey: key, ProductID: 7, CurrentQuantity: 1, CachedStock: &stale})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 1, f.platform.Calls("update_cart_item"))
	assert.Equal(t, 1, lineQuantity(t, f, "tok", 7))
}

func TestIncrementAnyRejectionIsInsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.platform.AddProduct(commercetest.ProductSpec{ID: 7, Price: "12.00"})
	_, err := f.engine.Increment(context.Background(), "tok", IncrementRequest{ItemKey: "missing", ProductID: 7, CurrentQuantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
}

func TestNewEngineRequiresDependencies(t *testing.T) {
	_, err := NewEngine(nil, nil, nil)
	assert.Error(t, err)
}
