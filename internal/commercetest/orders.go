package commercetest

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
	"github.com/shopspring/decimal"
)

const (
	orderStockReducedKey = "_order_stock_reduced"
	lineReducedStockKey  = "_reduced_stock"
)

func (p *Platform) CreateOrder(_ context.Context, input commerce.CreateOrderInput) (*commerce.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("create_order"); err != nil {
		return nil, err
	}
	p.nextID++
	order := &commerce.Order{
		ID:                 p.nextID,
		Status:             input.Status,
		CustomerID:         input.CustomerID,
		Currency:           "USD",
		Billing:            input.Billing,
		Shipping:           input.Shipping,
		PaymentMethod:      input.PaymentMethod,
		PaymentMethodTitle: input.PaymentMethodTitle,
		TransactionID:      input.TransactionID,
		DateCreated:        commerce.Timestamp{Time: fixedNow},
		MetaData:           append(commerce.MetaList(nil), input.MetaData...),
	}
	if order.Status == "" {
		order.Status = "pending"
	}
	total := decimal.Zero
	for i, in := range input.LineItems {
		prod, ok := p.products[in.ProductID]
		if !ok {
			p.nextID--
			return nil, rejected("woocommerce_rest_invalid_product_id", "Product ID provided is not associated with any product.")
		}
		lineTotal := prod.unitPrice().Mul(decimal.NewFromInt(int64(in.Quantity)))
		order.LineItems = append(order.LineItems, commerce.LineItem{
			ID:          order.ID*100 + int64(i+1),
			ProductID:   in.ProductID,
			VariationID: in.VariationID,
			Quantity:    in.Quantity,
			Name:        prod.spec.Name,
			Price:       prod.unitPrice(),
			Subtotal:    lineTotal,
			Total:       lineTotal,
			MetaData:    append(commerce.MetaList(nil), in.MetaData...),
		})
		total = total.Add(lineTotal)
	}
	order.Total = total
	if input.SetPaid {
		order.DatePaid = commerce.Timestamp{Time: fixedNow}
		if order.Status == "pending" {
			order.Status = "processing"
		}
	}
	p.maybeReduce(order)
	p.orders[order.ID] = order
	out := cloneOrder(order)
	return &out, nil
}

func (p *Platform) Order(_ context.Context, id int64) (*commerce.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("get_order"); err != nil {
		return nil, err
	}
	order, ok := p.orders[id]
	if !ok {
		return nil, notFound("get_order")
	}
	out := cloneOrder(order)
	return &out, nil
}

func (p *Platform) Orders(_ context.Context, q commerce.OrderQuery) (*commerce.OrderPage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("list_orders"); err != nil {
		return nil, err
	}
	statuses := map[string]bool{}
	for _, s := range q.Statuses {
		statuses[s] = true
	}
	var matched []commerce.Order
	for _, id := range sortedOrderIDs(p.orders) {
		order := p.orders[id]
		if len(statuses) > 0 && !statuses[order.Status] {
			continue
		}
		if !q.Before.IsZero() && !order.DateCreated.Before(q.Before) {
			continue
		}
		if q.Customer > 0 && order.CustomerID != q.Customer {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}

	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	start := (page - 1) * perPage
	if start > len(matched) {
		start = len(matched)
	}
	end := start + perPage
	if end > len(matched) {
		end = len(matched)
	}
	return &commerce.OrderPage{Orders: matched[start:end], Total: len(matched)}, nil
}

func (p *Platform) UpdateOrder(_ context.Context, id int64, input commerce.UpdateOrderInput) (*commerce.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("update_order"); err != nil {
		return nil, err
	}
	order, ok := p.orders[id]
	if !ok {
		return nil, notFound("update_order")
	}
	for _, entry := range input.MetaData {
		order.MetaData = order.MetaData.Set(entry.Key, entry.Value)
	}
	for _, update := range input.LineItems {
		for i := range order.LineItems {
			if order.LineItems[i].ID != update.ID {
				continue
			}
			for _, entry := range update.MetaData {
				order.LineItems[i].MetaData = order.LineItems[i].MetaData.Set(entry.Key, entry.Value)
			}
		}
	}
	if input.Status != nil {
		order.Status = *input.Status
		p.maybeReduce(order)
	}
	out := cloneOrder(order)
	return &out, nil
}

func (p *Platform) TrashOrder(_ context.Context, id int64) (*commerce.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("trash_order"); err != nil {
		return nil, err
	}
	order, ok := p.orders[id]
	if !ok {
		return nil, notFound("trash_order")
	}
	order.Status = "trash"
	out := cloneOrder(order)
	return &out, nil
}

// maybeReduce mirrors the platform's own stock reduction on paid-ish statuses.
func (p *Platform) maybeReduce(order *commerce.Order) {
	if !p.autoReduce[order.Status] || stockReduced(order.MetaData) {
		return
	}
	for i, line := range order.LineItems {
		prod, ok := p.products[line.ProductID]
		if !ok || prod.spec.Stock == nil {
			continue
		}
		*prod.spec.Stock -= line.Quantity
		order.LineItems[i].MetaData = order.LineItems[i].MetaData.Set(lineReducedStockKey, line.Quantity)
	}
	order.MetaData = order.MetaData.Set(orderStockReducedKey, "yes")
}

func stockReduced(meta commerce.MetaList) bool {
	value, ok := meta.Get(orderStockReducedKey)
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "yes" || v == "1" || strings.EqualFold(v, "true")
	}
	return false
}

func (p *Platform) Customer(_ context.Context, id int64) (*commerce.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("get_customer"); err != nil {
		return nil, err
	}
	c, ok := p.customers[id]
	if !ok {
		return nil, notFound("get_customer")
	}
	out := *c
	return &out, nil
}

func (p *Platform) CustomersByEmail(_ context.Context, email string) ([]commerce.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("find_customer"); err != nil {
		return nil, err
	}
	var out []commerce.Customer
	for _, c := range p.customers {
		if strings.EqualFold(c.Email, email) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (p *Platform) CreateCustomer(_ context.Context, input commerce.CreateCustomerInput) (*commerce.Customer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("create_customer"); err != nil {
		return nil, err
	}
	for _, c := range p.customers {
		if strings.EqualFold(c.Email, input.Email) {
			return nil, rejected("registration-error-email-exists", "An account is already registered with your email address.")
		}
	}
	p.nextID++
	c := &commerce.Customer{
		ID:        p.nextID,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Role:      input.Role,
		Username:  input.Username,
		Billing:   input.Billing,
	}
	p.customers[c.ID] = c
	out := *c
	return &out, nil
}
