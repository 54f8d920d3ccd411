package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Order, error)
	FindDraftBySession(ctx context.Context, tx *gorm.DB, sessionKey string) (*models.Order, error)
	Save(ctx context.Context, tx *gorm.DB, order *models.Order) error
	LoadItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]models.OrderItem, error)
	AddItem(ctx context.Context, tx *gorm.DB, item *models.OrderItem) error
	FindItemForUpdate(ctx context.Context, tx *gorm.DB, itemID uint) (*models.OrderItem, error)
	UpdateItemQuantity(ctx context.Context, tx *gorm.DB, itemID uint, quantity int) error
	DeleteItem(ctx context.Context, tx *gorm.DB, itemID uint) error
	List(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	FindByUser(ctx context.Context, userID uint, status models.OrderStatus, limit int) ([]models.Order, error)
	CountByStatus(ctx context.Context, statuses ...models.OrderStatus) (int64, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	GetDB() *gorm.DB
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *orderRepository) Create(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.MenuItem").
		First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindDraftBySession(ctx context.Context, tx *gorm.DB, sessionKey string) (*models.Order, error) {
	var order models.Order
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_key = ? AND status = ?", sessionKey, models.OrderDraft).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Save(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *orderRepository) LoadItems(ctx context.Context, tx *gorm.DB, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := tx.WithContext(ctx).
		Preload("MenuItem").
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *orderRepository) AddItem(ctx context.Context, tx *gorm.DB, item *models.OrderItem) error {
	return tx.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

func (r *orderRepository) FindItemForUpdate(ctx context.Context, tx *gorm.DB, itemID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *orderRepository) UpdateItemQuantity(ctx context.Context, tx *gorm.DB, itemID uint, quantity int) error {
	return tx.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).Error
}

func (r *orderRepository) DeleteItem(ctx context.Context, tx *gorm.DB, itemID uint) error {
	return tx.WithContext(ctx).Delete(&models.OrderItem{}, itemID).Error
}

func (r *orderRepository) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).Where("status <> ?", models.OrderDraft)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("order_date DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindByUser(ctx context.Context, userID uint, status models.OrderStatus, limit int) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("Items.MenuItem").
		Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	} else {
		q = q.Where("status <> ?", models.OrderDraft)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("order_date DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context, statuses ...models.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status IN ?", statuses).
		Count(&count).Error
	return count, err
}

// RevenueBetween sums the totals of orders paid in [from, to).
func (r *orderRepository) RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status = ? AND paid_at >= ? AND paid_at < ?", models.OrderCompleted, from, to).
		Row().
		Scan(&total)
	return total, err
}
