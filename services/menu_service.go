package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeremiapane/table-order/models"
	"gorm.io/gorm"
)

type MenuService struct {
	DB *gorm.DB
}

func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{DB: db}
}

// FetchMenuItems returns the whole catalog ordered by id.
func (ms *MenuService) FetchMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := ms.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch menu: %w", err)
	}
	return items, nil
}

// Grouped splits the catalog by category. Every category is present, even
// when empty.
func (ms *MenuService) Grouped(ctx context.Context) (map[models.Category][]models.MenuItem, error) {
	items, err := ms.FetchMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[models.Category][]models.MenuItem, len(models.Categories))
	for _, c := range models.Categories {
		grouped[c] = []models.MenuItem{}
	}
	for _, it := range items {
		grouped[it.Category] = append(grouped[it.Category], it)
	}
	return grouped, nil
}

func (ms *MenuService) ByCategory(ctx context.Context, category models.Category) ([]models.MenuItem, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	var items []models.MenuItem
	if err := ms.DB.WithContext(ctx).Where("category = ?", category).Order("id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch menu: %w", err)
	}
	return items, nil
}

func (ms *MenuService) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := ms.DB.WithContext(ctx).First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMenuItem, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load menu item %d: %w", id, err)
	}
	return &item, nil
}
