package database

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Menu is the restaurant's catalog. Ids are fixed so carts and orders can
// refer to them across reseeds.
var Menu = []models.MenuItem{
	{ID: 1, Name: "Al Tuo Gusto", Description: "Tostadas de pan de campo integral con semillas y nuestra mermelada de pera", Price: decimal.NewFromInt(3600), Category: models.CategoryBreakfast},
	{ID: 2, Name: "Festeggia e Divertiti", Description: "Tostadas de pan de campo con huevo revuelto con jamón natural y queso", Price: decimal.NewFromInt(6500), Category: models.CategoryBreakfast},
	{ID: 3, Name: "La Vita è Bella", Description: "Tostada de pan integral untada con queso crema y ciboulette, palta, huevo poche", Price: decimal.NewFromInt(6900), Category: models.CategoryBreakfast},
	{ID: 4, Name: "Luna Piena", Description: "Medialunas prensadas con jamón natural y queso", Price: decimal.NewFromInt(5800), Category: models.CategoryBreakfast},
	{ID: 5, Name: "Brunch Completo", Description: "2 infusiones, jugos de naranja, focaccia, huevos revueltos y más", Price: decimal.NewFromInt(31000), Category: models.CategoryBrunch},
	{ID: 6, Name: "Café Pocillo", Description: "Café espresso corto", Price: decimal.NewFromInt(2200), Category: models.CategoryDrinks},
	{ID: 7, Name: "Submarino", Description: "Chocolate caliente clásico", Price: decimal.NewFromInt(3500), Category: models.CategoryDrinks},
}

// SeedMenu upserts the catalog by id.
func SeedMenu(db *gorm.DB) error {
	items := make([]models.MenuItem, len(Menu))
	copy(items, Menu)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "category", "updated_at"}),
	}).Create(&items).Error
	if err != nil {
		return fmt.Errorf("failed to seed menu: %w", err)
	}
	utils.InfoLogger.Printf("Seeded %d menu items", len(items))
	return nil
}

// SeedUsers creates one account per role from passwords keyed by role name.
// Roles with an empty password and existing usernames are skipped.
func SeedUsers(db *gorm.DB, passwords map[string]string) error {
	for _, role := range []models.Role{models.RoleKitchen, models.RoleWaiter, models.RoleAdmin} {
		password := passwords[string(role)]
		if password == "" {
			continue
		}

		var existing models.User
		err := db.Where("username = ?", string(role)).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := models.User{Username: string(role), Password: string(hashed), Role: role}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user %s: %w", role, err)
		}
		utils.InfoLogger.Printf("Seeded %s user", role)
	}
	return nil
}
