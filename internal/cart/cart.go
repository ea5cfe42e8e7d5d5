// Package cart implements the client-held shopping cart: an
// insertion-ordered map of product id to quantity, round-tripped through
// an opaque cookie token and joined against live catalog data on read.
package cart

// Cart keeps quantities keyed by product id. Every present key has
// quantity >= 1; mutations that would leave a non-positive quantity
// remove the key instead. Insertion order is preserved so resolved
// views render in the order items were added.
type Cart struct {
	ids        []string
	quantities map[string]int
}

func New() *Cart {
	return &Cart{quantities: make(map[string]int)}
}

// Add increments an existing entry by quantity, or inserts a new one.
// A non-positive quantity on a fresh insert is treated as 1; on an
// existing entry it is applied arithmetically, and the entry is removed
// if the result drops to zero or below. No stock check happens here:
// the catalog's stock_quantity is informational on this path.
func (c *Cart) Add(productID string, quantity int) {
	if current, ok := c.quantities[productID]; ok {
		c.set(productID, current+quantity)
		return
	}
	if quantity < 1 {
		quantity = 1
	}
	c.insert(productID, quantity)
}

// Update sets the quantity outright. Non-positive quantities remove the
// entry. Re-applying the same update is a no-op.
func (c *Cart) Update(productID string, quantity int) {
	if _, ok := c.quantities[productID]; !ok {
		if quantity > 0 {
			c.insert(productID, quantity)
		}
		return
	}
	c.set(productID, quantity)
}

// Remove deletes the entry if present; absent ids are not an error.
func (c *Cart) Remove(productID string) {
	if _, ok := c.quantities[productID]; !ok {
		return
	}
	delete(c.quantities, productID)
	for i, id := range c.ids {
		if id == productID {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
}

func (c *Cart) Quantity(productID string) int {
	return c.quantities[productID]
}

// ProductIDs returns the ids in insertion order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, len(c.ids))
	copy(ids, c.ids)
	return ids
}

func (c *Cart) Len() int {
	return len(c.ids)
}

func (c *Cart) Empty() bool {
	return len(c.ids) == 0
}

// Count is the total number of units across all entries.
func (c *Cart) Count() int {
	var n int
	for _, q := range c.quantities {
		n += q
	}
	return n
}

func (c *Cart) Equal(other *Cart) bool {
	if len(c.ids) != len(other.ids) {
		return false
	}
	for i, id := range c.ids {
		if other.ids[i] != id || other.quantities[id] != c.quantities[id] {
			return false
		}
	}
	return true
}

func (c *Cart) insert(productID string, quantity int) {
	c.ids = append(c.ids, productID)
	c.quantities[productID] = quantity
}

func (c *Cart) set(productID string, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	c.quantities[productID] = quantity
}
