package repository

import (
	"context"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"gorm.io/gorm"
)

type CategoryWithCount struct {
	models.Category
	ItemCount int64 `json:"item_count"`
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uint) (*models.Category, error)
	Rename(ctx context.Context, id uint, name string) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	CountItems(ctx context.Context, tx *gorm.DB, id uint) (int64, error)
	ListWithCounts(ctx context.Context) ([]CategoryWithCount, error)
	GetDB() *gorm.DB
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Rename(ctx context.Context, id uint, name string) error {
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Update("name", name).Error
}

func (r *categoryRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Delete(&models.Category{}, id).Error
}

func (r *categoryRepository) CountItems(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *categoryRepository) ListWithCounts(ctx context.Context) ([]CategoryWithCount, error) {
	var list []CategoryWithCount
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Select("categories.*, COUNT(menu_items.id) AS item_count").
		Joins("LEFT JOIN menu_items ON menu_items.category_id = categories.id").
		Group("categories.id").
		Order("categories.name ASC").
		Scan(&list).Error
	return list, err
}

type MenuItemRepository interface {
	Create(ctx context.Context, item *models.MenuItem) error
	FindByID(ctx context.Context, id uint) (*models.MenuItem, error)
	FindByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.MenuItem, error)
	Save(ctx context.Context, item *models.MenuItem) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	SetAvailability(ctx context.Context, id uint, available bool) error
	CountReferences(ctx context.Context, tx *gorm.DB, id uint) (int64, error)
	List(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error)
	GetDB() *gorm.DB
}

type menuItemRepository struct {
	db *gorm.DB
}

func NewMenuItemRepository(db *gorm.DB) MenuItemRepository {
	return &menuItemRepository{db: db}
}

func (r *menuItemRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *menuItemRepository) Create(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Omit("Category").Create(item).Error
}

func (r *menuItemRepository) FindByID(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).Preload("Category").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *menuItemRepository) FindByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *menuItemRepository) Save(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Omit("Category").Save(item).Error
}

func (r *menuItemRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return tx.WithContext(ctx).Delete(&models.MenuItem{}, id).Error
}

func (r *menuItemRepository) SetAvailability(ctx context.Context, id uint, available bool) error {
	return r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id = ?", id).
		Update("is_available", available).Error
}

// CountReferences counts order lines and dish ratings that point at the item.
func (r *menuItemRepository) CountReferences(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	var orderLines, ratings int64
	if err := tx.WithContext(ctx).Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&orderLines).Error; err != nil {
		return 0, err
	}
	if err := tx.WithContext(ctx).Model(&models.DishFeedback{}).Where("menu_item_id = ?", id).Count(&ratings).Error; err != nil {
		return 0, err
	}
	return orderLines + ratings, nil
}

func (r *menuItemRepository) List(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error) {
	var items []models.MenuItem
	q := r.db.WithContext(ctx).Preload("Category")
	if onlyAvailable {
		q = q.Where("is_available = ?", true)
	}
	if err := q.Order("category_id ASC, name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
