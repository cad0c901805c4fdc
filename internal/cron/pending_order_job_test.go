package cron

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-core/internal/commercetest"
	"github.com/angelmondragon/storefront-core/internal/customers"
	"github.com/angelmondragon/storefront-core/internal/orders"
	"github.com/angelmondragon/storefront-core/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

type noCustomers struct{}

func (noCustomers) Resolve(context.Context, customers.Request) (int64, error) { return 0, nil }

func pendingOrder(id int64, created time.Time, productID int64, qty int) commerce.Order {
	return commerce.Order{
		ID:          id,
		Status:      "pending",
		DateCreated: commerce.Timestamp{Time: created},
		LineItems: []commerce.LineItem{{
			ID: id * 10, ProductID: productID, Quantity: qty,
			MetaData: commerce.MetaList{{Key: orders.MetaLineReducedStock, Value: qty}},
		}},
		MetaData: commerce.MetaList{{Key: orders.MetaOrderStockReduced, Value: "yes"}},
	}
}

func newExpiryJob(t *testing.T, platform *commercetest.Platform, pageSize int) *pendingOrderJob {
	t.Helper()
	stock, err := orders.NewStockAdjuster(platform, nil)
	if err != nil {
		t.Fatalf("stock adjuster: %v", err)
	}
	manager, err := orders.NewManager(platform, noCustomers{}, stock, orders.ManagerConfig{}, testLogger())
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	job, err := NewPendingOrderJob(PendingOrderJobParams{
		Logger:    testLogger(),
		Orders:    platform,
		Canceller: manager,
		Expiry:    48 * time.Hour,
		PageSize:  pageSize,
	})
	if err != nil {
		t.Fatalf("job: %v", err)
	}
	return job.(*pendingOrderJob)
}

func TestPendingOrderJobCancelsStaleOrders(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	platform := commercetest.New()
	platform.AddProduct(commercetest.ProductSpec{ID: 1, Price: "2.00", Stock: commercetest.Stock(0)})
	for id := int64(1); id <= 5; id++ {
		platform.AddOrder(pendingOrder(id, now.Add(-72*time.Hour), 1, 1))
	}
	platform.AddOrder(pendingOrder(6, now.Add(-time.Hour), 1, 4))
	job := newExpiryJob(t, platform, 2)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	for id := int64(1); id <= 5; id++ {
		order, _ := platform.StoredOrder(id)
		if order.Status != "trash" {
			t.Fatalf("order %d: expected trash, got %s", id, order.Status)
		}
	}
	fresh, _ := platform.StoredOrder(6)
	if fresh.Status != "pending" {
		t.Fatalf("fresh order should stay pending, got %s", fresh.Status)
	}
	if stock, _ := platform.StockOf(1); stock != 5 {
		t.Fatalf("expected 5 units restored, got %d", stock)
	}
}

func TestPendingOrderJobContinuesPastFailures(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	platform := commercetest.New()
	platform.AddProduct(commercetest.ProductSpec{ID: 1, Price: "2.00", Stock: commercetest.Stock(0)})
	platform.AddOrder(pendingOrder(1, now.Add(-96*time.Hour), 1, 1))
	platform.AddOrder(pendingOrder(2, now.Add(-96*time.Hour), 1, 1))
	platform.FailOn("trash_order", pkgerrors.New(pkgerrors.CodeDependency, "trash failed"))
	job := newExpiryJob(t, platform, 10)
	job.now = func() time.Time { return now }

	err := job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected combined error")
	}
	if got := platform.Calls("trash_order"); got != 2 {
		t.Fatalf("expected both orders attempted, got %d", got)
	}
}

func TestPendingOrderJobListFailure(t *testing.T) {
	platform := commercetest.New()
	platform.FailOn("list_orders", pkgerrors.New(pkgerrors.CodeUpstreamTimeout, "timeout"))
	job := newExpiryJob(t, platform, 10)
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected list error")
	}
	if got := platform.Calls("get_order"); got != 0 {
		t.Fatalf("expected no cancels, got %d", got)
	}
}

func TestPendingOrderJobFinishesStuckCancellations(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	platform := commercetest.New()
	platform.AddProduct(commercetest.ProductSpec{ID: 1, Price: "2.00", Stock: commercetest.Stock(5)})
	stuck := pendingOrder(1, now.Add(-72*time.Hour), 1, 2)
	stuck.Status = "cancelled"
	stuck.LineItems[0].MetaData = commerce.MetaList{{Key: orders.MetaLineReducedStock, Value: 0}}
	stuck.MetaData = commerce.MetaList{{Key: orders.MetaOrderStockReduced, Value: "no"}}
	platform.AddOrder(stuck)

	job := newExpiryJob(t, platform, 10)
	job.now = func() time.Time { return now }
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	stored, _ := platform.StoredOrder(1)
	if stored.Status != "trash" {
		t.Fatalf("expected stuck order trashed, got %s", stored.Status)
	}
	if stock, _ := platform.StockOf(1); stock != 5 {
		t.Fatalf("stock should be untouched, got %d", stock)
	}
	if calls := platform.Calls("stock_increase"); calls != 0 {
		t.Fatalf("expected no restoration, got %d calls", calls)
	}
}
