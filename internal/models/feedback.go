package models

import "time"

type Feedback struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	OrderID             uint      `gorm:"not null;index" json:"order_id"`
	UserID              *uint     `gorm:"index" json:"user_id,omitempty"`
	FoodQualityRating   int       `gorm:"not null" json:"food_quality_rating"`
	ServiceRating       int       `gorm:"not null" json:"service_rating"`
	AmbianceRating      int       `gorm:"not null" json:"ambiance_rating"`
	CleanlinessRating   int       `gorm:"not null" json:"cleanliness_rating"`
	ValueForMoneyRating int       `gorm:"not null" json:"value_for_money_rating"`
	Comments            string    `gorm:"size:500" json:"comments"`
	CreatedAt           time.Time `json:"created_at"`

	Dishes []DishFeedback `gorm:"foreignKey:FeedbackID;constraint:OnDelete:CASCADE" json:"dishes,omitempty"`
}

type DishFeedback struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	FeedbackID uint `gorm:"not null;index" json:"feedback_id"`
	MenuItemID uint `gorm:"not null;index" json:"menu_item_id"`
	Rating     int  `gorm:"not null" json:"rating"`

	MenuItem *MenuItem `gorm:"foreignKey:MenuItemID;constraint:OnDelete:RESTRICT" json:"-"`
}
