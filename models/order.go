package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusCompleted OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusCompleted:
		return true
	}
	return false
}

// TableStatus is the open/closed state of a table's tab.
type TableStatus string

const (
	TableDuring   TableStatus = "during"
	TableFinished TableStatus = "finished"
)

func (s TableStatus) Valid() bool {
	return s == TableDuring || s == TableFinished
}

type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	TableNumber int             `gorm:"not null;index:idx_orders_table_session" json:"table_number"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	Method      string          `gorm:"type:varchar(50)" json:"method"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	StatusTable TableStatus     `gorm:"type:varchar(20);not null;default:'during';index:idx_orders_table_session" json:"status_table"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
}

// ComputeTotal sums price x quantity over the order's loaded items.
func (o *Order) ComputeTotal() decimal.Decimal {
	return SumItems(o.Items)
}

// SumItems sums price x quantity over items.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
