// Package commercetest is an in-memory stand-in for the commerce platform
// REST API, with the platform's own stock arbitration and call accounting.
package commercetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/shopspring/decimal"
)

// ProductSpec seeds one product. Nil Stock means the platform does not manage stock.
type ProductSpec struct {
	ID          int64
	Name        string
	Type        string
	Status      string
	Price       string
	Stock       *int
	StockStatus string
	Visibility  string
	// Extra fields merged into the raw record, e.g. post_author or meta_data.
	Extra map[string]any
}

type product struct {
	spec ProductSpec
}

type cartLine struct {
	key       string
	productID int64
	quantity  int
}

// Platform is safe for concurrent use.
type Platform struct {
	mu          sync.Mutex
	products    map[int64]*product
	carts       map[string][]*cartLine
	orders      map[int64]*commerce.Order
	customers   map[int64]*commerce.Customer
	content     map[int64]int64
	autoReduce  map[string]bool
	failures    map[string]error
	calls       map[string]int
	batches     map[string][][]int64
	nextID      int64
	tokenSerial int
}

// New builds an empty platform whose own stock reduction fires for the given statuses.
func New(autoReduce ...string) *Platform {
	p := &Platform{
		products:   map[int64]*product{},
		carts:      map[string][]*cartLine{},
		orders:     map[int64]*commerce.Order{},
		customers:  map[int64]*commerce.Customer{},
		content:    map[int64]int64{},
		autoReduce: map[string]bool{},
		failures:   map[string]error{},
		calls:      map[string]int{},
		batches:    map[string][][]int64{},
		nextID:     1000,
	}
	for _, status := range autoReduce {
		p.autoReduce[status] = true
	}
	return p
}

// Stock returns an int pointer for ProductSpec literals.
func Stock(n int) *int {
	return &n
}

func (p *Platform) AddProduct(spec ProductSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if spec.Type == "" {
		spec.Type = "simple"
	}
	if spec.Status == "" {
		spec.Status = "publish"
	}
	if spec.StockStatus == "" {
		spec.StockStatus = "instock"
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("Product %d", spec.ID)
	}
	if spec.Stock != nil {
		qty := *spec.Stock
		spec.Stock = &qty
	}
	p.products[spec.ID] = &product{spec: spec}
}

// SetContentAuthor seeds the content endpoint's author for a product post.
func (p *Platform) SetContentAuthor(productID, author int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.content[productID] = author
}

func (p *Platform) AddCustomer(c commerce.Customer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	stored := c
	p.customers[c.ID] = &stored
}

func (p *Platform) AddOrder(o commerce.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	stored := o
	p.orders[o.ID] = &stored
}

// FailOn makes every call to op return err until cleared with a nil err.
func (p *Platform) FailOn(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failures, op)
		return
	}
	p.failures[op] = err
}

// Calls returns how many times op was invoked.
func (p *Platform) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

// Batches returns the id lists passed to a bulk op, in call order.
func (p *Platform) Batches(op string) [][]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]int64(nil), p.batches[op]...)
}

// StockOf returns the managed stock quantity of a product.
func (p *Platform) StockOf(id int64) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prod, ok := p.products[id]
	if !ok || prod.spec.Stock == nil {
		return 0, false
	}
	return *prod.spec.Stock, true
}

// StoredOrder returns a copy of an order as the platform holds it.
func (p *Platform) StoredOrder(id int64) (commerce.Order, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.orders[id]
	if !ok {
		return commerce.Order{}, false
	}
	return cloneOrder(o), true
}

func (p *Platform) CustomerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.customers)
}

func (p *Platform) enter(op string) error {
	p.calls[op]++
	return p.failures[op]
}

func (p *Platform) Product(_ context.Context, id int64) (*commerce.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("get_product"); err != nil {
		return nil, err
	}
	prod, ok := p.products[id]
	if !ok {
		return nil, notFound("get_product")
	}
	rec := prod.record()
	return &rec, nil
}

func (p *Platform) Products(_ context.Context, ids []int64) ([]commerce.Product, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches["list_products"] = append(p.batches["list_products"], append([]int64(nil), ids...))
	if err := p.enter("list_products"); err != nil {
		return nil, err
	}
	var out []commerce.Product
	for _, id := range ids {
		if prod, ok := p.products[id]; ok {
			out = append(out, prod.record())
		}
	}
	return out, nil
}

func (p *Platform) ContentEntries(_ context.Context, ids []int64) ([]commerce.ContentEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches["list_content"] = append(p.batches["list_content"], append([]int64(nil), ids...))
	if err := p.enter("list_content"); err != nil {
		return nil, err
	}
	var out []commerce.ContentEntry
	for _, id := range ids {
		if author, ok := p.content[id]; ok {
			out = append(out, commerce.ContentEntry{ID: id, Author: author})
		}
	}
	return out, nil
}

func (p *Platform) ChangeStock(_ context.Context, productID int64, op commerce.StockOperation, quantity int) (*commerce.StockLevel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("stock_" + string(op)); err != nil {
		return nil, err
	}
	prod, ok := p.products[productID]
	if !ok {
		return nil, notFound("stock_" + string(op))
	}
	if prod.spec.Stock != nil {
		switch op {
		case commerce.StockDecrease:
			*prod.spec.Stock -= quantity
		case commerce.StockIncrease:
			*prod.spec.Stock += quantity
		}
	}
	level := &commerce.StockLevel{ProductID: productID}
	if prod.spec.Stock != nil {
		qty := *prod.spec.Stock
		level.StockQuantity = &qty
	}
	return level, nil
}

func (prod *product) record() commerce.Product {
	fields := map[string]any{
		"id":                 prod.spec.ID,
		"name":               prod.spec.Name,
		"type":               prod.spec.Type,
		"status":             prod.spec.Status,
		"price":              prod.spec.Price,
		"regular_price":      prod.spec.Price,
		"sale_price":         "",
		"manage_stock":       prod.spec.Stock != nil,
		"stock_status":       prod.spec.StockStatus,
		"catalog_visibility": prod.spec.Visibility,
	}
	if prod.spec.Stock != nil {
		fields["stock_quantity"] = *prod.spec.Stock
	} else {
		fields["stock_quantity"] = nil
	}
	for k, v := range prod.spec.Extra {
		fields[k] = v
	}
	raw, _ := json.Marshal(fields)
	var rec commerce.Product
	_ = json.Unmarshal(raw, &rec)
	return rec
}

func (prod *product) outOfStock() bool {
	compact := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(prod.spec.StockStatus))
	return compact == "outofstock"
}

func (prod *product) unitPrice() decimal.Decimal {
	price, err := decimal.NewFromString(prod.spec.Price)
	if err != nil {
		return decimal.Zero
	}
	return price
}

func notFound(op string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, op+": resource not found").
		WithDetails(commerce.RejectionDetails{Status: 404})
}

func rejected(upstreamCode, notice string) error {
	return pkgerrors.New(pkgerrors.CodeUpstreamRejected, notice).
		WithDetails(commerce.RejectionDetails{Status: 400, UpstreamCode: upstreamCode})
}

func cloneOrder(o *commerce.Order) commerce.Order {
	out := *o
	out.LineItems = make([]commerce.LineItem, len(o.LineItems))
	for i, line := range o.LineItems {
		line.MetaData = append(commerce.MetaList(nil), line.MetaData...)
		out.LineItems[i] = line
	}
	out.MetaData = append(commerce.MetaList(nil), o.MetaData...)
	return out
}

func sortedOrderIDs(orders map[int64]*commerce.Order) []int64 {
	ids := make([]int64, 0, len(orders))
	for id := range orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	return ids
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
