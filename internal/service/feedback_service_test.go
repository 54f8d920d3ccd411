package service

import (
	"context"
	"testing"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/Eursukkul/restaurant-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func completedOrder(t *testing.T, db *gorm.DB, userID uint, status models.OrderStatus, lines map[*models.MenuItem]int) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:    uuid.NewString()[:18],
		Status:         status,
		NumberOfGuests: 2,
		UserID:         &userID,
	}
	require.NoError(t, db.Create(order).Error)
	for item, qty := range lines {
		require.NoError(t, db.Create(&models.OrderItem{
			OrderID:    order.ID,
			MenuItemID: item.ID,
			Quantity:   qty,
			UnitPrice:  item.Price,
		}).Error)
	}
	return order
}

func newFeedbackService(db *gorm.DB) FeedbackService {
	return NewFeedbackService(repository.NewFeedbackRepository(db), repository.NewOrderRepository(db), logger.Discard())
}

func TestSubmitFeedback(t *testing.T) {
	db := newTestDB(t)
	svc := newFeedbackService(db)
	user := seedUser(t, db, "user1", models.RoleUser)
	who := identity(user)
	burger := seedMenuItem(t, db, "Burger", "12.99")
	cola := seedMenuItem(t, db, "Cola", "2.99")
	salmon := seedMenuItem(t, db, "Salmon", "24.99")
	ctx := context.Background()

	order := completedOrder(t, db, user.ID, models.OrderCompleted, map[*models.MenuItem]int{burger: 1, cola: 2})

	in := FeedbackInput{
		OrderID: order.ID, FoodQuality: 5, Service: 4, Ambiance: 4, Cleanliness: 5, ValueForMoney: 3,
		Comments: "Great burger",
		Dishes: []DishRating{
			{MenuItemID: burger.ID, Rating: 5},
			{MenuItemID: cola.ID, Rating: 0},
		},
	}
	fb, err := svc.SubmitFeedback(ctx, who, in)
	require.NoError(t, err)
	require.Len(t, fb.Dishes, 1)
	assert.Equal(t, burger.ID, fb.Dishes[0].MenuItemID)
	require.NotNil(t, fb.UserID)

	in.Dishes = []DishRating{{MenuItemID: salmon.ID, Rating: 4}}
	_, err = svc.SubmitFeedback(ctx, who, in)
	assert.ErrorIs(t, err, ErrValidation)

	in.Dishes = nil
	in.Service = 6
	_, err = svc.SubmitFeedback(ctx, who, in)
	assert.ErrorIs(t, err, ErrValidation)

	pending := completedOrder(t, db, user.ID, models.OrderPending, map[*models.MenuItem]int{burger: 1})
	in.Service = 4
	in.OrderID = pending.ID
	_, err = svc.SubmitFeedback(ctx, who, in)
	assert.ErrorIs(t, err, ErrValidation)

	stranger := identity(seedUser(t, db, "user2", models.RoleUser))
	in.OrderID = order.ID
	_, err = svc.SubmitFeedback(ctx, stranger, in)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestAverageRatings(t *testing.T) {
	db := newTestDB(t)
	svc := newFeedbackService(db)
	ctx := context.Background()

	_, err := svc.AverageRatings(ctx)
	assert.ErrorIs(t, err, ErrNoFeedback)

	user := seedUser(t, db, "user1", models.RoleUser)
	burger := seedMenuItem(t, db, "Burger", "12.99")
	order := completedOrder(t, db, user.ID, models.OrderCompleted, map[*models.MenuItem]int{burger: 1})
	for _, food := range []int{5, 4, 4} {
		require.NoError(t, db.Create(&models.Feedback{
			OrderID: order.ID, FoodQualityRating: food, ServiceRating: 3, AmbianceRating: 4,
			CleanlinessRating: 5, ValueForMoneyRating: 2,
		}).Error)
	}

	summary, err := svc.AverageRatings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalFeedbacks)
	assert.Equal(t, 4.3, summary.Food)
	assert.Equal(t, 3.0, summary.Service)
	assert.Equal(t, 2.0, summary.Value)
}

func TestDishAnalytics_CountsCompletedOrdersOnly(t *testing.T) {
	db := newTestDB(t)
	svc := newFeedbackService(db)
	user := seedUser(t, db, "user1", models.RoleUser)
	burger := seedMenuItem(t, db, "Burger", "12.99")
	salmon := seedMenuItem(t, db, "Salmon", "24.99")

	var drinks models.Category
	require.NoError(t, db.Create(&models.Category{Name: "Beverages"}).Error)
	require.NoError(t, db.Where("name = ?", "Beverages").First(&drinks).Error)
	cola := &models.MenuItem{Name: "Cola", Price: decimal.RequireFromString("2.99"), CategoryID: drinks.ID, IsAvailable: true}
	require.NoError(t, db.Create(cola).Error)

	order := completedOrder(t, db, user.ID, models.OrderCompleted, map[*models.MenuItem]int{burger: 3, cola: 4, salmon: 1})
	completedOrder(t, db, user.ID, models.OrderPending, map[*models.MenuItem]int{salmon: 10})
	require.NoError(t, db.Create(&models.Feedback{
		OrderID: order.ID, FoodQualityRating: 5, ServiceRating: 5, AmbianceRating: 5, CleanlinessRating: 5, ValueForMoneyRating: 5,
		Dishes: []models.DishFeedback{{MenuItemID: burger.ID, Rating: 4}, {MenuItemID: burger.ID, Rating: 5}},
	}).Error)

	out, err := svc.DishAnalytics(context.Background())
	require.NoError(t, err)

	require.Len(t, out.PopularDishes, 3)
	assert.Equal(t, "Cola", out.PopularDishes[0].Name)
	assert.Equal(t, int64(4), out.PopularDishes[0].OrderCount)
	assert.Equal(t, "Burger", out.PopularDishes[1].Name)
	assert.Equal(t, 4.5, out.PopularDishes[1].Rating)
	assert.Equal(t, "38.97", out.PopularDishes[1].Revenue.StringFixed(2))
	assert.Equal(t, int64(1), out.PopularDishes[2].OrderCount)

	require.Len(t, out.CategoryPerformance, 2)
	assert.Equal(t, "Beverages", out.CategoryPerformance[0].Category)
	assert.Equal(t, 50.0, out.CategoryPerformance[0].Percentage)
	assert.Equal(t, "Main Course", out.CategoryPerformance[1].Category)
	assert.Equal(t, int64(4), out.CategoryPerformance[1].Orders)
}
