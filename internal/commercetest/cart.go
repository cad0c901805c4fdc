package commercetest

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-core/pkg/commerce"
)

const unlimitedQuantity = 9999

func (p *Platform) Cart(_ context.Context, token string) (*commerce.Cart, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("get_cart"); err != nil {
		return nil, err
	}
	return p.snapshot(p.ensureToken(token)), nil
}

func (p *Platform) AddCartItem(_ context.Context, token string, id int64, quantity int, _ []commerce.CartItemVariation) (*commerce.Cart, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("add_cart_item"); err != nil {
		return nil, err
	}
	token = p.ensureToken(token)
	prod, ok := p.products[id]
	if !ok {
		return nil, rejected("woocommerce_rest_cart_invalid_product", "This product cannot be added to the cart.")
	}
	if prod.outOfStock() {
		return nil, rejected("woocommerce_rest_product_out_of_stock",
			fmt.Sprintf("You cannot add \"%s\" to the cart because the product is out of stock.", prod.spec.Name))
	}

	line := p.findLine(token, id)
	current := 0
	if line != nil {
		current = line.quantity
	}
	if prod.spec.Stock != nil && current+quantity > *prod.spec.Stock {
		return nil, rejected("woocommerce_rest_product_partially_out_of_stock",
			fmt.Sprintf("You cannot add that amount of \"%s\" to the cart because there is not enough stock (%d remaining).", prod.spec.Name, *prod.spec.Stock))
	}

	if line == nil {
		p.tokenSerial++
		p.carts[token] = append(p.carts[token], &cartLine{key: fmt.Sprintf("item-%d-%d", id, p.tokenSerial), productID: id, quantity: quantity})
	} else {
		line.quantity += quantity
	}
	return p.snapshot(token), nil
}

func (p *Platform) UpdateCartItem(_ context.Context, token, key string, quantity int) (*commerce.Cart, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("update_cart_item"); err != nil {
		return nil, err
	}
	line := p.lineByKey(token, key)
	if line == nil {
		return nil, rejected("woocommerce_rest_cart_invalid_key", "Cart item does not exist.")
	}
	if prod, ok := p.products[line.productID]; ok && prod.spec.Stock != nil && quantity > *prod.spec.Stock {
		return nil, rejected("woocommerce_rest_product_partially_out_of_stock",
			fmt.Sprintf("You cannot add that amount of \"%s\" to the cart because there is not enough stock (%d remaining).", prod.spec.Name, *prod.spec.Stock))
	}
	line.quantity = quantity
	return p.snapshot(token), nil
}

func (p *Platform) RemoveCartItem(_ context.Context, token, key string) (*commerce.Cart, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("remove_cart_item"); err != nil {
		return nil, err
	}
	lines := p.carts[token]
	for i, line := range lines {
		if line.key == key {
			p.carts[token] = append(lines[:i:i], lines[i+1:]...)
			return p.snapshot(token), nil
		}
	}
	return nil, rejected("woocommerce_rest_cart_invalid_key", "Cart item no longer exists or is invalid.")
}

func (p *Platform) ClearCart(_ context.Context, token string) (*commerce.Cart, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter("clear_cart"); err != nil {
		return nil, err
	}
	token = p.ensureToken(token)
	delete(p.carts, token)
	return p.snapshot(token), nil
}

// SeedCart places quantity units of a product in a cart without stock checks
// and returns the issued item key.
func (p *Platform) SeedCart(token string, productID int64, quantity int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokenSerial++
	key := fmt.Sprintf("item-%d-%d", productID, p.tokenSerial)
	p.carts[token] = append(p.carts[token], &cartLine{key: key, productID: productID, quantity: quantity})
	return key
}

func (p *Platform) ensureToken(token string) string {
	if token != "" {
		return token
	}
	p.tokenSerial++
	return fmt.Sprintf("cart-token-%d", p.tokenSerial)
}

func (p *Platform) findLine(token string, productID int64) *cartLine {
	for _, line := range p.carts[token] {
		if line.productID == productID {
			return line
		}
	}
	return nil
}

func (p *Platform) lineByKey(token, key string) *cartLine {
	for _, line := range p.carts[token] {
		if line.key == key {
			return line
		}
	}
	return nil
}

func (p *Platform) snapshot(token string) *commerce.Cart {
	cart := &commerce.Cart{Token: token, Items: []commerce.CartItem{}}
	for _, line := range p.carts[token] {
		item := commerce.CartItem{
			Key:            line.key,
			ID:             line.productID,
			Quantity:       line.quantity,
			QuantityLimits: commerce.QuantityLimits{Minimum: 1, Maximum: unlimitedQuantity, Editable: true},
		}
		if prod, ok := p.products[line.productID]; ok {
			item.Name = prod.spec.Name
			item.Type = prod.spec.Type
			item.Prices = commerce.CartItemPrices{
				Price:             prod.unitPrice().Shift(2).StringFixed(0),
				RegularPrice:      prod.unitPrice().Shift(2).StringFixed(0),
				CurrencyMinorUnit: 2,
			}
			if prod.spec.Stock != nil {
				item.QuantityLimits.Maximum = *prod.spec.Stock
			}
		}
		cart.Items = append(cart.Items, item)
		cart.ItemsCount += line.quantity
	}
	return cart
}
