package services

import (
	"context"
	"errors"

	"github.com/yeremiapane/table-order/cart"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
)

// CartService is the customer side of a table: it edits the table's cart and
// turns it into an order, amending the open order when there is one.
type CartService struct {
	Store  CartStore
	Menu   *MenuService
	Orders *OrderService

	locks tableLocks
}

func NewCartService(store CartStore, menu *MenuService, orders *OrderService) *CartService {
	return &CartService{Store: store, Menu: menu, Orders: orders}
}

func (cs *CartService) Get(ctx context.Context, table int) (*cart.Cart, error) {
	if err := cs.Orders.validateTable(table); err != nil {
		return nil, err
	}
	return cs.Store.Load(ctx, table)
}

func (cs *CartService) AddItem(ctx context.Context, table int, menuItemID uint) (*cart.Cart, error) {
	item, err := cs.Menu.GetMenuItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	return cs.update(ctx, table, func(c *cart.Cart) { c.Add(*item) })
}

func (cs *CartService) ChangeQuantity(ctx context.Context, table int, menuItemID uint, delta int) (*cart.Cart, error) {
	return cs.update(ctx, table, func(c *cart.Cart) { c.ChangeQuantity(menuItemID, delta) })
}

func (cs *CartService) RemoveItem(ctx context.Context, table int, menuItemID uint) (*cart.Cart, error) {
	return cs.update(ctx, table, func(c *cart.Cart) { c.Remove(menuItemID) })
}

// Submit sends the cart to the kitchen. A table with an open order gets it
// amended; otherwise a new order is created. created tells which happened.
// The cart is emptied only on success.
func (cs *CartService) Submit(ctx context.Context, table int, method string) (order *models.Order, created bool, err error) {
	if err := cs.Orders.validateTable(table); err != nil {
		return nil, false, err
	}

	unlock := cs.locks.lock(table)
	defer unlock()

	c, err := cs.Store.Load(ctx, table)
	if err != nil {
		return nil, false, err
	}
	if c.Empty() {
		return nil, false, ErrEmptyOrder
	}

	items := make([]LineItemInput, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, LineItemInput{MenuItemID: l.MenuItemID, Quantity: l.Quantity})
	}

	_, err = cs.Orders.ActiveOrder(ctx, table)
	switch {
	case err == nil:
		order, err = cs.Orders.ModifyOrder(ctx, table, items)
	case errors.Is(err, ErrNoActiveOrder):
		order, err = cs.Orders.CreateOrder(ctx, table, items, method)
		created = err == nil
		if errors.Is(err, ErrTableSessionOpen) {
			// another submission opened the tab in between
			order, err = cs.Orders.ModifyOrder(ctx, table, items)
		}
	}
	if err != nil {
		return nil, false, err
	}

	if err := cs.Store.Clear(ctx, table); err != nil {
		utils.ErrorLogger.Printf("cart for table %d not cleared after order #%d: %v", table, order.ID, err)
	}
	return order, created, nil
}

func (cs *CartService) update(ctx context.Context, table int, fn func(*cart.Cart)) (*cart.Cart, error) {
	if err := cs.Orders.validateTable(table); err != nil {
		return nil, err
	}

	unlock := cs.locks.lock(table)
	defer unlock()

	c, err := cs.Store.Load(ctx, table)
	if err != nil {
		return nil, err
	}
	fn(c)
	if err := cs.Store.Save(ctx, table, c); err != nil {
		return nil, err
	}
	return c, nil
}
