// Package views holds the role-specific slices of the order collection and the
// status commands each role may issue. Everything here is pure; callers pass
// the orders in and persist the resulting command.
package views

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order/models"
)

var (
	ErrTransitionNotAllowed = errors.New("status change not allowed from the current status")
	ErrUnknownLane          = errors.New("unknown kitchen lane")
	ErrUnknownWindow        = errors.New("unknown report window")
)

// Lane is a column of the kitchen board.
type Lane string

const (
	LanePending   Lane = "pending"
	LanePreparing Lane = "preparing"
)

type KitchenBoard struct {
	Pending   []models.Order `json:"pending"`
	Preparing []models.Order `json:"preparing"`
}

// Kitchen returns the orders still being worked on, oldest first per lane.
func Kitchen(orders []models.Order) KitchenBoard {
	board := KitchenBoard{Pending: []models.Order{}, Preparing: []models.Order{}}
	for _, o := range orders {
		switch o.Status {
		case models.StatusPending:
			board.Pending = append(board.Pending, o)
		case models.StatusPreparing:
			board.Preparing = append(board.Preparing, o)
		}
	}
	oldestFirst(board.Pending)
	oldestFirst(board.Preparing)
	return board
}

// KitchenMove validates dropping order into lane and returns the status to
// write. Completed orders have left the board and cannot be moved.
func KitchenMove(order models.Order, lane Lane) (models.OrderStatus, error) {
	var target models.OrderStatus
	switch lane {
	case LanePending:
		target = models.StatusPending
	case LanePreparing:
		target = models.StatusPreparing
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLane, lane)
	}
	if order.Status == models.StatusCompleted {
		return "", fmt.Errorf("%w: order #%d is %s", ErrTransitionNotAllowed, order.ID, order.Status)
	}
	return target, nil
}

// KitchenComplete validates the completion action, offered only on the
// preparing lane.
func KitchenComplete(order models.Order) (models.OrderStatus, error) {
	if order.Status != models.StatusPreparing {
		return "", fmt.Errorf("%w: order #%d is %s", ErrTransitionNotAllowed, order.ID, order.Status)
	}
	return models.StatusCompleted, nil
}

// Waiter returns the tables with an open tab, in collection order.
func Waiter(orders []models.Order) []models.Order {
	open := []models.Order{}
	for _, o := range orders {
		if o.StatusTable == models.TableDuring {
			open = append(open, o)
		}
	}
	return open
}

// WaiterClose validates closing the order's table.
func WaiterClose(order models.Order) (models.TableStatus, error) {
	if order.StatusTable != models.TableDuring {
		return "", fmt.Errorf("%w: table %d is already %s", ErrTransitionNotAllowed, order.TableNumber, order.StatusTable)
	}
	return models.TableFinished, nil
}

// Window is the admin reporting period.
type Window string

const (
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

// ParseWindow defaults to today for an empty value.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "":
		return WindowToday, nil
	case WindowToday, WindowWeek, WindowMonth:
		return Window(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// Range returns [from, to) in now's location. Weeks start on Sunday.
func (w Window) Range(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	loc := now.Location()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch w {
	case WindowWeek:
		from := day.AddDate(0, 0, -int(day.Weekday()))
		return from, from.AddDate(0, 0, 7)
	case WindowMonth:
		from := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

type AdminReport struct {
	Window  Window          `json:"window"`
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  []models.Order  `json:"orders"`
}

// Admin returns completed orders created inside the window, newest first.
func Admin(orders []models.Order, w Window, now time.Time) AdminReport {
	from, to := w.Range(now)
	report := AdminReport{Window: w, From: from, To: to, Revenue: decimal.Zero, Orders: []models.Order{}}

	for _, o := range orders {
		if o.Status != models.StatusCompleted {
			continue
		}
		created := o.CreatedAt.In(now.Location())
		if created.Before(from) || !created.Before(to) {
			continue
		}
		report.Orders = append(report.Orders, o)
		report.Revenue = report.Revenue.Add(o.Total)
	}
	sort.SliceStable(report.Orders, func(i, j int) bool {
		return report.Orders[i].CreatedAt.After(report.Orders[j].CreatedAt)
	})
	report.Count = len(report.Orders)
	return report
}

// Baseline is what a polling client last saw.
type Baseline struct {
	Count  int64     `json:"count"`
	Latest time.Time `json:"latest_update"`
}

type Changes struct {
	NewOrders bool `json:"new_orders"`
	Updated   bool `json:"updated"`
}

// DetectChanges compares a client's baseline with the current one. A higher
// count means new orders; a later last update means something changed.
func DetectChanges(prev, cur Baseline) Changes {
	return Changes{
		NewOrders: cur.Count > prev.Count,
		Updated:   cur.Latest.After(prev.Latest),
	}
}

func oldestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID < orders[j].ID
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
