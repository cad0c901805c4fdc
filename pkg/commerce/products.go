package commerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Products fetches products by id in a single call. Missing ids are simply absent.
func (c *Client) Products(ctx context.Context, ids []int64) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := url.Values{}
	query.Set("include", idList(ids))
	query.Set("per_page", strconv.Itoa(len(ids)))
	query.Set("status", "any")

	var out []Product
	if _, err := c.do(ctx, request{op: "list_products", method: http.MethodGet, api: adminAPI, path: "products", query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Product fetches a single product.
func (c *Client) Product(ctx context.Context, id int64) (*Product, error) {
	var out Product
	if _, err := c.do(ctx, request{op: "get_product", method: http.MethodGet, api: adminAPI, path: fmt.Sprintf("products/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangeStock asks the platform to atomically move a product's stock by quantity.
func (c *Client) ChangeStock(ctx context.Context, productID int64, op StockOperation, quantity int) (*StockLevel, error) {
	var out StockLevel
	req := request{
		op:     "stock_" + string(op),
		method: http.MethodPost,
		api:    adminAPI,
		path:   fmt.Sprintf("products/%d/stock", productID),
		body:   stockChange{Operation: op, Quantity: quantity},
	}
	if _, err := c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContentEntries reads author ids from the content endpoint for the given product posts.
func (c *Client) ContentEntries(ctx context.Context, ids []int64) ([]ContentEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := url.Values{}
	query.Set("include", idList(ids))
	query.Set("per_page", strconv.Itoa(len(ids)))
	query.Set("_fields", "id,author")

	var out []ContentEntry
	if _, err := c.do(ctx, request{op: "list_content", method: http.MethodGet, api: contentAPI, path: "product", query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
