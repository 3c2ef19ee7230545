// Package cart accumulates a table's selections before they are submitted as
// an order. It does no I/O.
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order/models"
)

type Line struct {
	MenuItemID uint            `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps lines in insertion order. The zero value is an empty cart.
type Cart struct {
	Lines []Line `json:"lines"`
}

func New() *Cart {
	return &Cart{Lines: []Line{}}
}

// Add increments the line for item, or appends a new line with quantity 1.
func (c *Cart) Add(item models.MenuItem) {
	if i := c.index(item.ID); i >= 0 {
		c.Lines[i].Quantity++
		return
	}
	c.Lines = append(c.Lines, Line{
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   1,
	})
}

// ChangeQuantity adds delta to the line's quantity, clamped at zero. A line
// that reaches zero is removed. Unknown ids are ignored.
func (c *Cart) ChangeQuantity(menuItemID uint, delta int) {
	i := c.index(menuItemID)
	if i < 0 {
		return
	}
	q := c.Lines[i].Quantity + delta
	if q <= 0 {
		c.removeAt(i)
		return
	}
	c.Lines[i].Quantity = q
}

func (c *Cart) Remove(menuItemID uint) {
	if i := c.index(menuItemID); i >= 0 {
		c.removeAt(i)
	}
}

func (c *Cart) Reset() {
	c.Lines = []Line{}
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) index(menuItemID uint) int {
	for i, l := range c.Lines {
		if l.MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}
