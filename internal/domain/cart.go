package domain

import "fmt"

// Cart is an ordered, id-unique list of line items. Items keep the position
// of their first add; updates happen in place. The zero value is an empty
// cart ready to use.
type Cart struct {
	items []LineItem
	index map[ProductID]int
}

// NewCart builds a cart from previously stored items, rejecting anything
// with an empty id, a quantity below one, or a repeated id.
func NewCart(items []LineItem) (Cart, error) {
	cart := Cart{
		items: make([]LineItem, 0, len(items)),
		index: make(map[ProductID]int, len(items)),
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return Cart{}, err
		}
		if _, ok := cart.index[item.ID]; ok {
			return Cart{}, fmt.Errorf("%w: %s", ErrDuplicateProduct, item.ID)
		}
		cart.index[item.ID] = len(cart.items)
		cart.items = append(cart.items, item)
	}

	return cart, nil
}

// Add appends product with quantity 1, or bumps the quantity of the item
// already holding that id. Stored metadata wins over the supplied one.
// A product that fails Validate is refused, so the cart never holds a line
// NewCart would reject.
func (c *Cart) Add(product Product) bool {
	if product.Validate() != nil {
		return false
	}
	if i, ok := c.lookup(product.ID); ok {
		c.items[i].Quantity++
		return true
	}

	if c.index == nil {
		c.index = make(map[ProductID]int)
	}
	c.index[product.ID] = len(c.items)
	c.items = append(c.items, LineItem{
		ID:       product.ID,
		Title:    product.Title,
		ImageURL: product.ImageURL,
		Price:    product.Price,
		Quantity: 1,
	})

	return true
}

func (c *Cart) Increment(id ProductID) bool {
	i, ok := c.lookup(id)
	if !ok {
		return false
	}

	c.items[i].Quantity++
	return true
}

// Decrement never takes an item below quantity 1; items are not removed.
func (c *Cart) Decrement(id ProductID) bool {
	i, ok := c.lookup(id)
	if !ok || c.items[i].Quantity <= 1 {
		return false
	}

	c.items[i].Quantity--
	return true
}

// Items returns a copy of the cart contents in insertion order.
func (c Cart) Items() []LineItem {
	items := make([]LineItem, len(c.items))
	copy(items, c.items)
	return items
}

func (c Cart) Get(id ProductID) (LineItem, bool) {
	i, ok := c.lookup(id)
	if !ok {
		return LineItem{}, false
	}

	return c.items[i], true
}

func (c Cart) Len() int {
	return len(c.items)
}

// ItemCount is the sum of all quantities.
func (c Cart) ItemCount() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

func (c Cart) lookup(id ProductID) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}
