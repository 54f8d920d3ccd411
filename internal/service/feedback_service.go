package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/Eursukkul/restaurant-service/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const popularDishLimit = 5

type DishRating struct {
	MenuItemID uint
	Rating     int
}

type FeedbackInput struct {
	OrderID       uint
	FoodQuality   int
	Service       int
	Ambiance      int
	Cleanliness   int
	ValueForMoney int
	Comments      string
	Dishes        []DishRating
}

type RatingSummary struct {
	Food           float64 `json:"food"`
	Service        float64 `json:"service"`
	Ambiance       float64 `json:"ambiance"`
	Cleanliness    float64 `json:"cleanliness"`
	Value          float64 `json:"value"`
	TotalFeedbacks int64   `json:"total_feedbacks"`
}

type PopularDish struct {
	MenuItemID uint            `json:"menu_item_id"`
	Name       string          `json:"name"`
	OrderCount int64           `json:"order_count"`
	Rating     float64         `json:"rating"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type CategoryPerformance struct {
	Category   string  `json:"category"`
	Orders     int64   `json:"orders"`
	Percentage float64 `json:"percentage"`
}

type DishAnalytics struct {
	PopularDishes       []PopularDish         `json:"popular_dishes"`
	CategoryPerformance []CategoryPerformance `json:"category_performance"`
}

type FeedbackService interface {
	SubmitFeedback(ctx context.Context, who models.Identity, in FeedbackInput) (*models.Feedback, error)
	AverageRatings(ctx context.Context) (*RatingSummary, error)
	DishAnalytics(ctx context.Context) (*DishAnalytics, error)
}

type feedbackService struct {
	repo   repository.FeedbackRepository
	orders repository.OrderRepository
	log    *slog.Logger
}

func NewFeedbackService(repo repository.FeedbackRepository, orders repository.OrderRepository, log *slog.Logger) FeedbackService {
	return &feedbackService{repo: repo, orders: orders, log: log.With("component", "feedback")}
}

// SubmitFeedback records ratings for a completed order. Dish entries rated 0
// are treated as "not rated" and skipped.
func (s *feedbackService) SubmitFeedback(ctx context.Context, who models.Identity, in FeedbackInput) (*models.Feedback, error) {
	var v validator
	for field, rating := range map[string]int{
		"food_quality_rating":    in.FoodQuality,
		"service_rating":         in.Service,
		"ambiance_rating":        in.Ambiance,
		"cleanliness_rating":     in.Cleanliness,
		"value_for_money_rating": in.ValueForMoney,
	} {
		v.check(rating >= 1 && rating <= 5, field, "must be between 1 and 5")
	}
	v.maxChars(in.Comments, maxNoteLength, "comments")
	for i, dish := range in.Dishes {
		v.check(dish.Rating >= 0 && dish.Rating <= 5, fmt.Sprintf("dishes[%d].rating", i), "must be between 0 and 5")
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, storageErr("find order", err)
	}
	if !canAccess(who, order) {
		return nil, ErrOrderNotFound
	}
	if order.Status != models.OrderCompleted {
		return nil, fieldError("order_id", "feedback is only accepted for completed orders")
	}

	ordered := make(map[uint]bool, len(order.Items))
	for _, item := range order.Items {
		ordered[item.MenuItemID] = true
	}

	feedback := &models.Feedback{
		OrderID:             order.ID,
		UserID:              who.UserRef(),
		FoodQualityRating:   in.FoodQuality,
		ServiceRating:       in.Service,
		AmbianceRating:      in.Ambiance,
		CleanlinessRating:   in.Cleanliness,
		ValueForMoneyRating: in.ValueForMoney,
		Comments:            strings.TrimSpace(in.Comments),
	}
	for i, dish := range in.Dishes {
		if dish.Rating == 0 {
			continue
		}
		if !ordered[dish.MenuItemID] {
			return nil, fieldError(fmt.Sprintf("dishes[%d].menu_item_id", i), "was not part of the order")
		}
		feedback.Dishes = append(feedback.Dishes, models.DishFeedback{MenuItemID: dish.MenuItemID, Rating: dish.Rating})
	}

	if err := s.repo.Create(ctx, s.repo.GetDB(), feedback); err != nil {
		return nil, storageErr("create feedback", err)
	}
	s.log.Info("feedback received", "id", feedback.ID, "order_id", order.ID)
	return feedback, nil
}

func (s *feedbackService) AverageRatings(ctx context.Context) (*RatingSummary, error) {
	avg, err := s.repo.Averages(ctx)
	if err != nil {
		return nil, storageErr("average ratings", err)
	}
	if avg.Total == 0 {
		return nil, ErrNoFeedback
	}

	return &RatingSummary{
		Food:           roundRating(avg.Food),
		Service:        roundRating(avg.Service),
		Ambiance:       roundRating(avg.Ambiance),
		Cleanliness:    roundRating(avg.Cleanliness),
		Value:          roundRating(avg.ValueForMoney),
		TotalFeedbacks: avg.Total,
	}, nil
}

// DishAnalytics reports the best sellers with their average rating and the
// share of units sold per category. Only completed orders count.
func (s *feedbackService) DishAnalytics(ctx context.Context) (*DishAnalytics, error) {
	top, err := s.repo.TopDishes(ctx, popularDishLimit)
	if err != nil {
		return nil, storageErr("top dishes", err)
	}

	ids := make([]uint, len(top))
	for i, d := range top {
		ids[i] = d.MenuItemID
	}
	ratings, err := s.repo.DishRatings(ctx, ids)
	if err != nil {
		return nil, storageErr("dish ratings", err)
	}

	out := &DishAnalytics{
		PopularDishes:       make([]PopularDish, len(top)),
		CategoryPerformance: []CategoryPerformance{},
	}
	for i, d := range top {
		out.PopularDishes[i] = PopularDish{
			MenuItemID: d.MenuItemID,
			Name:       d.Name,
			OrderCount: d.OrderCount,
			Rating:     roundRating(ratings[d.MenuItemID]),
			Revenue:    d.Revenue.Round(2),
		}
	}

	sales, err := s.repo.CategorySales(ctx)
	if err != nil {
		return nil, storageErr("category sales", err)
	}
	var units int64
	for _, c := range sales {
		units += c.Quantity
	}
	for _, c := range sales {
		share := decimal.NewFromInt(c.Quantity * 100).Div(decimal.NewFromInt(units)).Round(1)
		out.CategoryPerformance = append(out.CategoryPerformance, CategoryPerformance{
			Category:   c.Category,
			Orders:     c.Quantity,
			Percentage: share.InexactFloat64(),
		})
	}
	return out, nil
}

func roundRating(v float64) float64 {
	return decimal.NewFromFloat(v).RoundBank(1).InexactFloat64()
}
