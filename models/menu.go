package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryDrinks    Category = "drinks"
	CategoryBrunch    Category = "brunch"
)

// Categories lists the menu sections in display order.
var Categories = []Category{CategoryBreakfast, CategoryBrunch, CategoryDrinks}

func (c Category) Valid() bool {
	switch c {
	case CategoryBreakfast, CategoryDrinks, CategoryBrunch:
		return true
	}
	return false
}

type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Category    Category        `gorm:"type:varchar(20);not null;index" json:"category"`
	ImageURL    *string         `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
