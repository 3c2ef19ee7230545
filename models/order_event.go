package models

import (
	"time"
)

// OrderEvent is an outbox row written in the same transaction as the order
// mutation it describes. The relay forwards unprocessed rows to the broker.
type OrderEvent struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	OrderID     uint        `gorm:"not null;index" json:"order_id"`
	TableNumber int         `gorm:"not null" json:"table_number"`
	Type        string      `gorm:"type:varchar(50);not null" json:"type"`
	Status      OrderStatus `gorm:"type:varchar(20)" json:"status"`
	StatusTable TableStatus `gorm:"type:varchar(20)" json:"status_table"`
	OccurredAt  time.Time   `gorm:"not null" json:"occurred_at"`
	Processed   bool        `gorm:"default:false;index:idx_processed" json:"-"`
}
