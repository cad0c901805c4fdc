package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-core/internal/customers"
	"github.com/angelmondragon/storefront-core/pkg/commerce"
	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/angelmondragon/storefront-core/pkg/validation"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
)

// Manager owns the order lifecycle: creation with a single stock decrement,
// forward status transitions, and cancellation with stock restoration.
type Manager interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	Get(ctx context.Context, orderID int64) (*OrderDTO, error)
	Transition(ctx context.Context, orderID int64, to enums.OrderStatus) (*OrderDTO, error)
	Cancel(ctx context.Context, orderID int64) (*OrderDTO, error)
}

// ManagerConfig carries the lifecycle policy.
type ManagerConfig struct {
	// AutoReduceStatuses are the statuses in which the platform reduces stock itself.
	AutoReduceStatuses []string
	// GuestFallback lets creation continue without a customer when resolution fails.
	GuestFallback bool
	// RecordAttempts bounds the writes of stock bookkeeping metadata. Values
	// below one mean a single attempt.
	RecordAttempts int
	RecordBackoff  time.Duration
}

type manager struct {
	platform   orderPlatform
	customers  customerResolver
	stock      StockAdjuster
	logg       *logger.Logger
	autoReduce map[enums.OrderStatus]bool
	guest      bool
	attempts   int
	backoff    time.Duration
}

// creatableStatuses are the statuses an order may be created in.
var creatableStatuses = map[enums.OrderStatus]bool{
	enums.OrderStatusPending:    true,
	enums.OrderStatusProcessing: true,
	enums.OrderStatusOnHold:     true,
	enums.OrderStatusCompleted:  true,
}

// NewManager builds the order manager.
func NewManager(platform orderPlatform, resolver customerResolver, stock StockAdjuster, cfg ManagerConfig, logg *logger.Logger) (Manager, error) {
	if platform == nil {
		return nil, fmt.Errorf("order platform required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("customer resolver required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	autoReduce := map[enums.OrderStatus]bool{}
	for _, raw := range cfg.AutoReduceStatuses {
		if status, err := enums.ParseOrderStatus(raw); err == nil {
			autoReduce[status] = true
		}
	}
	return &manager{
		platform:   platform,
		customers:  resolver,
		stock:      stock,
		logg:       logg,
		autoReduce: autoReduce,
		guest:      cfg.GuestFallback,
		attempts:   max(cfg.RecordAttempts, 1),
		backoff:    max(cfg.RecordBackoff, 0),
	}, nil
}

// Create validates everything before the first network call.
func (m *manager) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	items := validLineItems(input.LineItems)
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNoValidItems, "order has no valid line items")
	}
	status := enums.OrderStatusPending
	if strings.TrimSpace(input.Status) != "" {
		parsed, err := enums.ParseOrderStatus(input.Status)
		if err != nil || !creatableStatuses[parsed] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("orders cannot be created as %q", input.Status))
		}
		status = parsed
	}

	billing := input.Billing.toCommerce()
	shipping := shippingFor(input)

	customerID, err := m.customers.Resolve(ctx, customers.Request{CustomerID: input.CustomerID, Billing: billing, Shipping: shipping})
	if err != nil {
		if !m.guest {
			return nil, err
		}
		m.logg.Warn(ctx, fmt.Sprintf("customer resolution failed, creating guest order: %v", err))
		customerID = 0
	}

	order, err := m.platform.CreateOrder(ctx, commerce.CreateOrderInput{
		Status:             string(status),
		CustomerID:         customerID,
		Billing:            billing,
		Shipping:           shipping,
		LineItems:          items,
		PaymentMethod:      input.PaymentMethod,
		PaymentMethodTitle: input.PaymentMethodTitle,
		TransactionID:      input.TransactionID,
		SetPaid:            input.SetPaid,
	})
	if err != nil {
		return nil, err
	}
	ctx = m.logg.WithOrderID(ctx, order.ID)
	m.logg.Info(ctx, fmt.Sprintf("order created with status %s", order.Status))

	if !stockReduced(order.MetaData) && !m.autoReduce[orderStatus(order.Status)] {
		order = m.reduceStock(ctx, order)
	}
	dto := ToDTO(*order)
	return &dto, nil
}

// reduceStock decrements every line once and records what it decremented so a
// later cancel can reverse exactly that amount. Failed lines record zero.
// When the record cannot be written the decremented units are put back, so the
// order is never reduced without the flag that guards it.
func (m *manager) reduceStock(ctx context.Context, order *commerce.Order) *commerce.Order {
	updates := make([]commerce.LineItemUpdate, 0, len(order.LineItems))
	var decremented []stockLine
	for _, line := range order.LineItems {
		reduced := line.Quantity
		if err := m.stock.Decrease(ctx, line.ProductID, line.Quantity); err != nil {
			reduced = 0
			m.logg.Error(m.logg.WithField(ctx, "product_id", line.ProductID), "stock decrement failed", err)
		} else if line.Quantity > 0 {
			decremented = append(decremented, stockLine{productID: line.ProductID, quantity: line.Quantity})
		}
		updates = append(updates, commerce.LineItemUpdate{
			ID:       line.ID,
			MetaData: commerce.MetaList{{Key: MetaLineReducedStock, Value: reduced}},
		})
	}
	if len(decremented) == 0 {
		return order
	}

	updated, err := m.record(ctx, order.ID, commerce.UpdateOrderInput{
		LineItems: updates,
		MetaData:  commerce.MetaList{{Key: MetaOrderStockReduced, Value: "yes"}},
	})
	if err != nil {
		m.logg.Error(ctx, "recording stock reduction failed, returning decremented stock", err)
		m.revert(ctx, decremented, m.stock.Increase)
		return order
	}
	return updated
}

type stockLine struct {
	productID int64
	quantity  int
}

// revert undoes stock moves made before a bookkeeping write failed.
func (m *manager) revert(ctx context.Context, lines []stockLine, op func(context.Context, int64, int) error) {
	for _, line := range lines {
		if err := op(ctx, line.productID, line.quantity); err != nil {
			m.logg.Error(m.logg.WithField(ctx, "product_id", line.productID), "reverting stock change failed", err)
		}
	}
}

// record writes stock bookkeeping metadata, retrying errors the platform
// marks as transient.
func (m *manager) record(ctx context.Context, orderID int64, input commerce.UpdateOrderInput) (*commerce.Order, error) {
	step := m.backoff
	backoff := retry.WithMaxRetries(uint64(m.attempts-1), retry.BackoffFunc(func() (time.Duration, bool) {
		return step, false
	}))

	var updated *commerce.Order
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		order, err := m.platform.UpdateOrder(ctx, orderID, input)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && !pkgerrors.MetadataFor(typed.Code()).Retryable {
				return err
			}
			return retry.RetryableError(err)
		}
		updated = order
		return nil
	})
	return updated, err
}

func (m *manager) Get(ctx context.Context, orderID int64) (*OrderDTO, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	order, err := m.platform.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*order)
	return &dto, nil
}

// Transition moves an order forward. Moving to cancelled runs Cancel.
func (m *manager) Transition(ctx context.Context, orderID int64, to enums.OrderStatus) (*OrderDTO, error) {
	if to == enums.OrderStatusCancelled {
		return m.Cancel(ctx, orderID)
	}
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	order, err := m.platform.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := orderStatus(order.Status)
	if from == to {
		dto := ToDTO(*order)
		return &dto, nil
	}
	if !CanTransition(from, to) {
		return nil, transitionError(from, to)
	}

	target := string(to)
	updated, err := m.platform.UpdateOrder(ctx, orderID, commerce.UpdateOrderInput{Status: &target})
	if err != nil {
		return nil, err
	}
	m.logg.Info(m.logg.WithOrderID(ctx, orderID), fmt.Sprintf("order moved %s -> %s", from, to))
	dto := ToDTO(*updated)
	return &dto, nil
}

// Cancel restores stock line by line, then cancels and trashes the order.
// A line that fails to restore is logged and skipped; the rest still run.
// An order already cancelled but not yet trashed resumes at the trash step.
func (m *manager) Cancel(ctx context.Context, orderID int64) (*OrderDTO, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id must be positive")
	}
	order, err := m.platform.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := orderStatus(order.Status)
	resuming := from == enums.OrderStatusCancelled
	if !resuming && !from.Cancellable() {
		return nil, transitionError(from, enums.OrderStatusCancelled)
	}
	ctx = m.logg.WithOrderID(ctx, orderID)

	if stockReduced(order.MetaData) {
		if err := m.restoreStock(ctx, order); err != nil {
			return nil, err
		}
	}
	if !resuming {
		cancelled := string(enums.OrderStatusCancelled)
		if _, err := m.platform.UpdateOrder(ctx, orderID, commerce.UpdateOrderInput{Status: &cancelled}); err != nil {
			return nil, err
		}
	}

	trashed, err := m.platform.TrashOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	m.logg.Info(ctx, fmt.Sprintf("order cancelled from %s and moved to trash", from))
	dto := ToDTO(*trashed)
	return &dto, nil
}

// restoreStock increases stock by each line's recorded reduction and persists
// the zeroed records before the order status moves, so a retried cancel never
// restores a line twice. If the records cannot be written the increases are
// reverted and the error returned. Lines that fail to restore keep their
// record and the order keeps its reduced flag.
func (m *manager) restoreStock(ctx context.Context, order *commerce.Order) error {
	var failed error
	var updates []commerce.LineItemUpdate
	var restored []stockLine
	for _, line := range order.LineItems {
		qty, recorded := reducedQuantity(line.MetaData)
		if !recorded {
			qty = line.Quantity
		}
		if qty <= 0 {
			continue
		}
		if err := m.stock.Increase(ctx, line.ProductID, qty); err != nil {
			m.logg.Error(m.logg.WithField(ctx, "product_id", line.ProductID), "stock restoration failed", err)
			failed = multierr.Append(failed, fmt.Errorf("restore product %d: %w", line.ProductID, err))
			continue
		}
		restored = append(restored, stockLine{productID: line.ProductID, quantity: qty})
		updates = append(updates, commerce.LineItemUpdate{
			ID:       line.ID,
			MetaData: commerce.MetaList{{Key: MetaLineReducedStock, Value: 0}},
		})
	}
	if failed != nil {
		m.logg.Warn(ctx, fmt.Sprintf("stock restoration incomplete: %v", failed))
		if len(updates) == 0 {
			return nil
		}
	}

	input := commerce.UpdateOrderInput{LineItems: updates}
	if failed == nil {
		input.MetaData = commerce.MetaList{{Key: MetaOrderStockReduced, Value: "no"}}
	}
	if _, err := m.record(ctx, order.ID, input); err != nil {
		m.logg.Error(ctx, "recording stock restoration failed, reverting", err)
		m.revert(ctx, restored, m.stock.Decrease)
		return err
	}
	return nil
}

func validLineItems(items []LineItemInput) []commerce.LineItemInput {
	out := make([]commerce.LineItemInput, 0, len(items))
	for _, item := range items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			continue
		}
		out = append(out, commerce.LineItemInput{
			ProductID:   item.ProductID,
			VariationID: max(item.VariationID, 0),
			Quantity:    item.Quantity,
		})
	}
	return out
}

func shippingFor(input CreateOrderInput) commerce.Address {
	if input.Shipping.empty() {
		addr := input.Billing.toCommerce()
		addr.Email = ""
		addr.Phone = ""
		return addr
	}
	s := input.Shipping
	return commerce.Address{
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Company:   s.Company,
		Address1:  s.Address1,
		Address2:  s.Address2,
		City:      s.City,
		State:     s.State,
		Postcode:  s.Postcode,
		Country:   s.Country,
	}
}
