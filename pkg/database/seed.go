package database

import (
	"fmt"

	"github.com/Eursukkul/restaurant-service/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type demoUser struct {
	username, password string
	role               models.Role
}

var demoUsers = []demoUser{
	{"admin", "admin123", models.RoleAdmin},
	{"user1", "user123", models.RoleUser},
	{"user2", "user456", models.RoleUser},
}

type demoDish struct {
	name, description, price, category string
}

var demoMenu = []demoDish{
	{"Classic Burger", "Juicy beef patty with lettuce, tomato, cheese, and special sauce", "12.99", "Main Course"},
	{"Grilled Salmon", "Fresh salmon fillet with lemon herb butter and seasonal vegetables", "24.99", "Main Course"},
	{"Caesar Salad", "Crisp romaine lettuce, parmesan cheese, croutons with classic Caesar dressing", "10.99", "Main Course"},
	{"Coca Cola", "Classic refreshing cola drink", "2.99", "Beverages"},
	{"Fresh Orange Juice", "Freshly squeezed orange juice", "3.99", "Beverages"},
	{"Margherita Pizza", "Fresh mozzarella, tomatoes, and basil on thin crust", "15.99", "Main Course"},
}

// SeedDemo loads demo accounts, one staff member and a starter menu. It is a
// no-op once any user exists.
func SeedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, du := range demoUsers {
			u := &models.User{Username: du.username, Role: du.role}
			if err := u.HashPassword(du.password); err != nil {
				return err
			}
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", du.username, err)
			}
		}

		staff := &models.Staff{
			Name:       "Admin Staff",
			Email:      "admin@restaurant.com",
			Phone:      "123-456-7890",
			Position:   "Manager",
			Department: "Management",
			Status:     models.StaffActive,
		}
		if err := tx.Create(staff).Error; err != nil {
			return fmt.Errorf("seed staff: %w", err)
		}

		categories := map[string]uint{}
		for _, dish := range demoMenu {
			if _, ok := categories[dish.category]; !ok {
				c := &models.Category{Name: dish.category}
				if err := tx.Create(c).Error; err != nil {
					return fmt.Errorf("seed category %s: %w", dish.category, err)
				}
				categories[dish.category] = c.ID
			}

			item := &models.MenuItem{
				Name:        dish.name,
				Description: dish.description,
				Price:       decimal.RequireFromString(dish.price),
				CategoryID:  categories[dish.category],
				IsAvailable: true,
			}
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("seed menu item %s: %w", dish.name, err)
			}
		}

		return nil
	})
}
