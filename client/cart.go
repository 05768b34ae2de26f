package client

import (
	"errors"

	"github.com/readnow/bookshop-api/internal/models"
)

// CartItem is one line of the shopping cart.
type CartItem struct {
	Book     models.Book
	Quantity int
}

// Cart holds client-side cart state. It is not safe for concurrent use; like
// the browser cart it belongs to a single session.
type Cart struct {
	items []CartItem
}

// Add puts a book in the cart, or bumps the quantity if it is already there.
func (c *Cart) Add(book models.Book, quantity int) {
	if quantity < 1 {
		return
	}
	for i := range c.items {
		if c.items[i].Book.ID == book.ID {
			c.items[i].Quantity += quantity
			return
		}
	}
	c.items = append(c.items, CartItem{Book: book, Quantity: quantity})
}

// Update sets the quantity for a book; a quantity below 1 removes it.
func (c *Cart) Update(bookID int64, quantity int) {
	if quantity < 1 {
		c.Remove(bookID)
		return
	}
	for i := range c.items {
		if c.items[i].Book.ID == bookID {
			c.items[i].Quantity = quantity
			return
		}
	}
}

// Remove drops a book from the cart.
func (c *Cart) Remove(bookID int64) {
	for i := range c.items {
		if c.items[i].Book.ID == bookID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct books in the cart.
func (c *Cart) Len() int {
	return len(c.items)
}

// Total is the cart total at the current catalog prices.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.items {
		total += item.Book.Price * float64(item.Quantity)
	}
	return total
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.items = nil
}

// Checkout places an order for the cart's contents and clears the cart on
// success.
func (c *Cart) Checkout(api *Client, address models.ShippingAddress, paymentMethod string) (OrderConfirmation, error) {
	if len(c.items) == 0 {
		return OrderConfirmation{}, errors.New("cart is empty")
	}

	req := OrderRequest{
		ShippingAddress: address,
		PaymentMethod:   paymentMethod,
		TotalAmount:     c.Total(),
	}
	for _, item := range c.items {
		req.Items = append(req.Items, OrderItemRequest{Book: item.Book.ID, Quantity: item.Quantity})
	}

	conf, err := api.PlaceOrder(req)
	if err != nil {
		return OrderConfirmation{}, err
	}

	c.Clear()
	return conf, nil
}
