package services

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrNoActiveOrder    = errors.New("table has no open order")
	ErrTableSessionOpen = errors.New("table already has an open order")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidTable     = errors.New("invalid table number")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrNoValidItems     = errors.New("no valid items to add")
	ErrUnknownMenuItem  = errors.New("unknown menu item")
	ErrInvalidCategory  = errors.New("invalid menu category")
	ErrOrderChanged     = errors.New("order was changed by another request, reload and retry")
)
