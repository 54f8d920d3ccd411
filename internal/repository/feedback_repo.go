package repository

import (
	"context"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RatingAverages struct {
	Total         int64
	Food          float64
	Service       float64
	Ambiance      float64
	Cleanliness   float64
	ValueForMoney float64
}

type DishSales struct {
	MenuItemID uint
	Name       string
	OrderCount int64
	Revenue    decimal.Decimal
}

type CategorySales struct {
	Category string
	Quantity int64
}

type FeedbackRepository interface {
	Create(ctx context.Context, tx *gorm.DB, feedback *models.Feedback) error
	Averages(ctx context.Context) (*RatingAverages, error)
	TopDishes(ctx context.Context, limit int) ([]DishSales, error)
	DishRatings(ctx context.Context, menuItemIDs []uint) (map[uint]float64, error)
	CategorySales(ctx context.Context) ([]CategorySales, error)
	GetDB() *gorm.DB
}

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *feedbackRepository) Create(ctx context.Context, tx *gorm.DB, feedback *models.Feedback) error {
	return tx.WithContext(ctx).Create(feedback).Error
}

func (r *feedbackRepository) Averages(ctx context.Context) (*RatingAverages, error) {
	var avg RatingAverages
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) AS total,
		       COALESCE(AVG(food_quality_rating), 0) AS food,
		       COALESCE(AVG(service_rating), 0) AS service,
		       COALESCE(AVG(ambiance_rating), 0) AS ambiance,
		       COALESCE(AVG(cleanliness_rating), 0) AS cleanliness,
		       COALESCE(AVG(value_for_money_rating), 0) AS value_for_money
		FROM feedbacks`).Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	return &avg, nil
}

// TopDishes ranks menu items by quantity sold in completed orders.
func (r *feedbackRepository) TopDishes(ctx context.Context, limit int) ([]DishSales, error) {
	var rows []DishSales
	err := r.db.WithContext(ctx).Raw(`
		SELECT m.id AS menu_item_id, m.name AS name,
		       SUM(oi.quantity) AS order_count,
		       SUM(oi.quantity * oi.unit_price) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE o.status = ?
		GROUP BY m.id, m.name
		ORDER BY order_count DESC, m.id ASC
		LIMIT ?`, models.OrderCompleted, limit).Scan(&rows).Error
	return rows, err
}

func (r *feedbackRepository) DishRatings(ctx context.Context, menuItemIDs []uint) (map[uint]float64, error) {
	ratings := make(map[uint]float64, len(menuItemIDs))
	if len(menuItemIDs) == 0 {
		return ratings, nil
	}

	var rows []struct {
		MenuItemID uint
		Rating     float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.DishFeedback{}).
		Select("menu_item_id, AVG(rating) AS rating").
		Where("menu_item_id IN ?", menuItemIDs).
		Group("menu_item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		ratings[row.MenuItemID] = row.Rating
	}
	return ratings, nil
}

func (r *feedbackRepository) CategorySales(ctx context.Context) ([]CategorySales, error) {
	var rows []CategorySales
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.name AS category, SUM(oi.quantity) AS quantity
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN menu_items m ON m.id = oi.menu_item_id
		JOIN categories c ON c.id = m.category_id
		WHERE o.status = ?
		GROUP BY c.name
		ORDER BY quantity DESC, c.name ASC`, models.OrderCompleted).Scan(&rows).Error
	return rows, err
}
