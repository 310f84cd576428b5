package cart

import "errors"

// MaxQuantity caps the number of units of one item in a cart.
const MaxQuantity = 99

// ErrDeltaOutOfRange is returned for a quantity change larger than MaxQuantity.
var ErrDeltaOutOfRange = errors.New("Недопустимое изменение количества")
// Item is the identity and price of a menu item at the moment it was added.
// Prices are in whole rubles and never re-read for an open cart.
type Item struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Line is one cart entry. Quantity is always between 1 and MaxQuantity.
type Line struct {
	Item
	Quantity int `json:"quantity"`
}

// Subtotal returns price * quantity for the line.
func (l Line) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Cart maps item ids to lines, keeping insertion order for display.
// A Cart is not safe for concurrent use.
type Cart struct {
	lines map[int64]*Line
	order []int64
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[int64]*Line)}
}

// Restore rebuilds a cart from previously stored lines. Lines with a
// non-positive quantity are skipped and repeated ids are merged.
func Restore(lines []Line) *Cart {
	c := New()
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if existing, ok := c.lines[l.ID]; ok {
			existing.Quantity = min(existing.Quantity+min(l.Quantity, MaxQuantity), MaxQuantity)
			continue
		}
		line := l
		line.Quantity = min(line.Quantity, MaxQuantity)
		c.lines[l.ID] = &line
		c.order = append(c.order, l.ID)
	}
	return c
}

// Add puts one more unit of item into the cart. A line already at
// MaxQuantity is left as is.
func (c *Cart) Add(item Item) {
	if line, ok := c.lines[item.ID]; ok {
		if line.Quantity < MaxQuantity {
			line.Quantity++
		}
		return
	}
	c.lines[item.ID] = &Line{Item: item, Quantity: 1}
	c.order = append(c.order, item.ID)
}

// SetQuantity adds delta to the line for id. The line is removed once its
// quantity reaches zero and capped at MaxQuantity. Unknown ids are ignored.
// A delta beyond ±MaxQuantity is refused with ErrDeltaOutOfRange.
func (c *Cart) SetQuantity(id int64, delta int) error {
	if delta > MaxQuantity || delta < -MaxQuantity {
		return ErrDeltaOutOfRange
	}
	line, ok := c.lines[id]
	if !ok {
		return nil
	}
	line.Quantity = min(line.Quantity+delta, MaxQuantity)
	if line.Quantity <= 0 {
		c.remove(id)
	}
	return nil
}

// Quantity returns the current quantity for id, 0 when absent.
func (c *Cart) Quantity(id int64) int {
	if line, ok := c.lines[id]; ok {
		return line.Quantity
	}
	return 0
}

// Total returns the sum of price * quantity over all lines.
func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.lines {
		total += line.Subtotal()
	}
	return total
}

// Count returns the number of units in the cart.
func (c *Cart) Count() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = make(map[int64]*Line)
	c.order = nil
}

func (c *Cart) remove(id int64) {
	delete(c.lines, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
