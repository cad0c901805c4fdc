package commerce

import (
	"context"
	"net/http"
)

type addItemBody struct {
	ID        int64               `json:"id"`
	Quantity  int                 `json:"quantity"`
	Variation []CartItemVariation `json:"variation,omitempty"`
}

type updateItemBody struct {
	Key      string `json:"key"`
	Quantity int    `json:"quantity"`
}

type removeItemBody struct {
	Key string `json:"key"`
}

// Cart loads the cart identified by token. An empty token starts a new cart.
func (c *Client) Cart(ctx context.Context, token string) (*Cart, error) {
	return c.cartCall(ctx, request{op: "get_cart", method: http.MethodGet, api: storeAPI, path: "cart", cartToken: token})
}

// AddCartItem runs the platform's add-to-cart, which owns the stock decision.
func (c *Client) AddCartItem(ctx context.Context, token string, id int64, quantity int, variation []CartItemVariation) (*Cart, error) {
	return c.cartCall(ctx, request{
		op:        "add_cart_item",
		method:    http.MethodPost,
		api:       storeAPI,
		path:      "cart/add-item",
		cartToken: token,
		body:      addItemBody{ID: id, Quantity: quantity, Variation: variation},
	})
}

// UpdateCartItem sets a line's absolute quantity.
func (c *Client) UpdateCartItem(ctx context.Context, token, key string, quantity int) (*Cart, error) {
	return c.cartCall(ctx, request{
		op:        "update_cart_item",
		method:    http.MethodPost,
		api:       storeAPI,
		path:      "cart/update-item",
		cartToken: token,
		body:      updateItemBody{Key: key, Quantity: quantity},
	})
}

func (c *Client) RemoveCartItem(ctx context.Context, token, key string) (*Cart, error) {
	return c.cartCall(ctx, request{
		op:        "remove_cart_item",
		method:    http.MethodPost,
		api:       storeAPI,
		path:      "cart/remove-item",
		cartToken: token,
		body:      removeItemBody{Key: key},
	})
}

func (c *Client) ClearCart(ctx context.Context, token string) (*Cart, error) {
	return c.cartCall(ctx, request{op: "clear_cart", method: http.MethodDelete, api: storeAPI, path: "cart/items", cartToken: token})
}

func (c *Client) cartCall(ctx context.Context, req request) (*Cart, error) {
	var out Cart
	resp, err := c.do(ctx, req, &out)
	if err != nil {
		return nil, err
	}
	out.Token = resp.cartToken
	if out.Token == "" {
		out.Token = req.cartToken
	}
	return &out, nil
}
